package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	dedupPrefix     = "dedup:v1:"
	hierarchyPrefix = "hier:v1:"
	factsPrefix     = "facts:v1:"
	profilePrefix   = "profile:v1:"
)

// NormalizeName trims and NFC-normalizes a name so visually identical
// inputs share a fingerprint.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// DedupFingerprint returns an order-independent key for a set of raw names.
// Blank names and repeats do not change the key.
func DedupFingerprint(names []string) string {
	seen := make(map[string]struct{}, len(names))
	set := make([]string, 0, len(names))
	for _, n := range names {
		n = NormalizeName(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		set = append(set, n)
	}
	sort.Strings(set)
	return dedupPrefix + sha256Hex(strings.Join(set, "\n"))
}

// HierarchyFingerprint keys a parent verdict by organization and the exact
// context the classifier saw. A nil context hashes like an empty one.
func HierarchyFingerprint(name string, context *string) string {
	ctx := ""
	if context != nil {
		ctx = *context
	}
	return hierarchyPrefix + NormalizeName(name) + "|" + sha256Hex(ctx)
}

// FactsFingerprint keys a fact-source lookup by person name.
func FactsFingerprint(name string) string {
	return factsPrefix + NormalizeName(name)
}

// ProfileFingerprint keys a profile extraction by person name and the
// extract it was drawn from, so a changed extract is asked again.
func ProfileFingerprint(name, extract string) string {
	return profilePrefix + NormalizeName(name) + "|" + sha256Hex(extract)
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
