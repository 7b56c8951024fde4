// Package resolve turns raw organization names into canonical organizations
// and links them into an acyclic parent hierarchy.
package resolve

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roster-graph/internal/cache"
	"github.com/sells-group/roster-graph/internal/classifier"
	"github.com/sells-group/roster-graph/internal/model"
)

// ErrInvalidName is returned when an organization name is empty or blank.
var ErrInvalidName = eris.New("resolve: invalid organization name")

// DedupResult is the output of one deduplication pass.
type DedupResult struct {
	// Mapping covers every distinct input name.
	Mapping map[string]string
	// Canonical lists canonical names in first-observation order.
	Canonical []string
	// Groups are the effective, pairwise-disjoint groups that were applied.
	Groups    []model.DuplicateGroup
	Merges    int
	FromCache bool
	// Degraded is set when the classifier failed and the identity mapping
	// was used instead.
	Degraded bool
}

// CanonicalOf returns the canonical name for raw.
func (r *DedupResult) CanonicalOf(raw string) (string, bool) {
	c, ok := r.Mapping[raw]
	return c, ok
}

// Organizations builds one organization per canonical name with its sorted
// raw variants.
func (r *DedupResult) Organizations() []model.Organization {
	variants := make(map[string][]string, len(r.Canonical))
	for raw, c := range r.Mapping {
		variants[c] = append(variants[c], raw)
	}
	orgs := make([]model.Organization, 0, len(r.Canonical))
	for _, c := range r.Canonical {
		v := variants[c]
		sort.Strings(v)
		orgs = append(orgs, model.Organization{Name: c, Variants: v})
	}
	return orgs
}

// Deduplicator merges raw organization names that denote the same entity.
type Deduplicator struct {
	oracle classifier.Oracle
	cache  *cache.Cache
}

// NewDeduplicator creates a Deduplicator. cache may be nil.
func NewDeduplicator(oracle classifier.Oracle, c *cache.Cache) *Deduplicator {
	return &Deduplicator{oracle: oracle, cache: c}
}

// Deduplicate maps every raw name to a canonical name. Names must be
// non-blank; repeats are allowed and collapse to their first observation.
// A classifier failure degrades to the identity mapping and is not cached.
func (d *Deduplicator) Deduplicate(ctx context.Context, rawNames []string) (*DedupResult, error) {
	distinct := make([]string, 0, len(rawNames))
	seen := make(map[string]bool, len(rawNames))
	for i, n := range rawNames {
		if strings.TrimSpace(n) == "" {
			return nil, eris.Wrapf(ErrInvalidName, "dedup: name at position %d is blank", i)
		}
		if !seen[n] {
			seen[n] = true
			distinct = append(distinct, n)
		}
	}

	if len(distinct) <= 1 {
		return buildResult(distinct, nil, false), nil
	}

	fp := cache.DedupFingerprint(distinct)
	if d.cache != nil {
		if groups, ok := d.cache.GetGroups(ctx, fp); ok {
			zap.L().Debug("dedup: cache hit", zap.Int("names", len(distinct)))
			return buildResult(distinct, groups, true), nil
		}
	}

	groups, err := d.oracle.GroupDuplicates(ctx, distinct)
	if err != nil {
		zap.L().Warn("dedup: classifier failed, using identity mapping",
			zap.String("stage", model.StageDeduplicated.String()),
			zap.Int("names", len(distinct)),
			zap.Error(err),
		)
		res := buildResult(distinct, nil, false)
		res.Degraded = true
		return res, nil
	}

	res := buildResult(distinct, groups, false)
	if d.cache != nil {
		if err := d.cache.PutGroups(ctx, fp, res.Groups); err != nil {
			zap.L().Warn("dedup: failed to cache verdict", zap.Error(err))
		}
	}
	return res, nil
}

// buildResult applies groups to distinct names. The first group to claim a
// name wins; later claims are ignored with a warning.
func buildResult(distinct []string, groups []model.DuplicateGroup, fromCache bool) *DedupResult {
	// Several inputs can share a normalized key ("CIA" and "CIA ").
	index := make(map[string][]string, len(distinct))
	for _, n := range distinct {
		k := cache.NormalizeName(n)
		index[k] = append(index[k], n)
	}

	claimed := make(map[string]string)
	var effective []model.DuplicateGroup

	for _, g := range groups {
		canonical := strings.TrimSpace(g.Canonical)
		if canonical == "" {
			zap.L().Warn("dedup: skipping group without canonical name", zap.Strings("members", g.Members))
			continue
		}
		if ins, ok := index[cache.NormalizeName(canonical)]; ok {
			in := ins[0]
			if prior, taken := claimed[in]; taken {
				canonical = prior
			} else {
				canonical = in
			}
		}

		var members []string
		inGroup := make(map[string]bool)
		for _, m := range g.Members {
			for _, in := range index[cache.NormalizeName(m)] {
				if inGroup[in] {
					continue
				}
				if prior, taken := claimed[in]; taken {
					if prior != canonical {
						zap.L().Warn("dedup: name already grouped, ignoring later group",
							zap.String("name", in),
							zap.String("kept", prior),
							zap.String("ignored", canonical),
						)
					}
					continue
				}
				inGroup[in] = true
				members = append(members, in)
			}
		}
		if len(members) == 0 {
			continue
		}
		for _, m := range members {
			claimed[m] = canonical
		}
		effective = append(effective, model.DuplicateGroup{Canonical: canonical, Members: members})
	}

	res := &DedupResult{
		Mapping:   make(map[string]string, len(distinct)),
		Groups:    effective,
		FromCache: fromCache,
	}
	seenCanon := make(map[string]bool)
	for _, n := range distinct {
		c := follow(n, claimed, index)
		res.Mapping[n] = c
		if !seenCanon[c] {
			seenCanon[c] = true
			res.Canonical = append(res.Canonical, c)
		}
	}
	res.Merges = len(distinct) - len(res.Canonical)
	return res
}

// follow resolves a name through claims until it reaches a fixed point, so a
// canonical that was itself claimed by another group is redirected too.
func follow(name string, claimed map[string]string, index map[string][]string) string {
	c, ok := claimed[name]
	if !ok {
		return name
	}
	for range len(claimed) {
		ins, isInput := index[cache.NormalizeName(c)]
		if !isInput {
			return c
		}
		next, ok := claimed[ins[0]]
		if !ok || next == c {
			return c
		}
		c = next
	}
	return c
}
