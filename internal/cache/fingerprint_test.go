package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupFingerprint_OrderIndependent(t *testing.T) {
	a := DedupFingerprint([]string{"CIA", "Central Intelligence Agency"})
	b := DedupFingerprint([]string{"Central Intelligence Agency", "CIA"})
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "dedup:v1:"))
}

func TestDedupFingerprint_IgnoresRepeatsAndBlanks(t *testing.T) {
	a := DedupFingerprint([]string{"CIA", "FBI"})
	b := DedupFingerprint([]string{"FBI", " CIA ", "CIA", "", "FBI"})
	assert.Equal(t, a, b)
}

func TestDedupFingerprint_DistinctSets(t *testing.T) {
	assert.NotEqual(t,
		DedupFingerprint([]string{"CIA", "FBI"}),
		DedupFingerprint([]string{"CIA", "NSA"}),
	)
}

func TestDedupFingerprint_UnicodeNormalization(t *testing.T) {
	// "é" precomposed vs. "e" + combining acute.
	composed := "Société Générale"
	decomposed := "Socie\u0301te\u0301 Ge\u0301ne\u0301rale"
	assert.Equal(t, DedupFingerprint([]string{composed}), DedupFingerprint([]string{decomposed}))
}

func TestHierarchyFingerprint(t *testing.T) {
	ctxA := "From Jane Doe's Wikipedia: director of the agency"
	ctxB := "From John Roe's Wikipedia: analyst"

	fa := HierarchyFingerprint("CIA", &ctxA)
	assert.True(t, strings.HasPrefix(fa, "hier:v1:CIA|"))
	assert.Equal(t, fa, HierarchyFingerprint(" CIA", &ctxA))
	assert.NotEqual(t, fa, HierarchyFingerprint("CIA", &ctxB))

	empty := ""
	assert.Equal(t, HierarchyFingerprint("CIA", nil), HierarchyFingerprint("CIA", &empty))
}

func TestFactsFingerprint(t *testing.T) {
	assert.Equal(t, "facts:v1:Jane Doe", FactsFingerprint("  Jane Doe "))
}

func TestProfileFingerprint(t *testing.T) {
	a := ProfileFingerprint(" Jane Doe", "extract")
	assert.True(t, strings.HasPrefix(a, "profile:v1:Jane Doe|"))
	assert.Equal(t, a, ProfileFingerprint("Jane Doe ", "extract"))
	assert.NotEqual(t, a, ProfileFingerprint("Jane Doe", "other extract"))
}
