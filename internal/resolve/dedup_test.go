package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-graph/internal/classifier"
	"github.com/sells-group/roster-graph/internal/model"
)

var ciaGroups = []model.DuplicateGroup{
	{Canonical: "Central Intelligence Agency", Members: []string{"CIA", "Central Intelligence Agency"}},
}

func TestDeduplicate_CIAScenario(t *testing.T) {
	oracle := &mockOracle{}
	oracle.On("GroupDuplicates", mock.Anything, []string{"CIA", "Central Intelligence Agency", "U.S. Senate"}).
		Return(ciaGroups, nil).Once()

	d := NewDeduplicator(oracle, newTestCache(t))
	res, err := d.Deduplicate(context.Background(), []string{"CIA", "Central Intelligence Agency", "U.S. Senate"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Central Intelligence Agency", "U.S. Senate"}, res.Canonical)
	assert.Equal(t, 1, res.Merges)
	assert.Equal(t, "Central Intelligence Agency", res.Mapping["CIA"])
	assert.Equal(t, "Central Intelligence Agency", res.Mapping["Central Intelligence Agency"])
	assert.Equal(t, "U.S. Senate", res.Mapping["U.S. Senate"])
	assert.False(t, res.FromCache)

	orgs := res.Organizations()
	require.Len(t, orgs, 2)
	assert.Equal(t, []string{"CIA", "Central Intelligence Agency"}, orgs[0].Variants)
	assert.Equal(t, []string{"U.S. Senate"}, orgs[1].Variants)
	oracle.AssertExpectations(t)
}

func TestDeduplicate_IdempotentWithWarmCache(t *testing.T) {
	oracle := &mockOracle{}
	oracle.On("GroupDuplicates", mock.Anything, mock.Anything).Return(ciaGroups, nil).Once()

	d := NewDeduplicator(oracle, newTestCache(t))
	names := []string{"CIA", "Central Intelligence Agency", "U.S. Senate"}

	first, err := d.Deduplicate(context.Background(), names)
	require.NoError(t, err)
	second, err := d.Deduplicate(context.Background(), names)
	require.NoError(t, err)

	assert.True(t, second.FromCache)
	assert.Equal(t, first.Mapping, second.Mapping)
	assert.Equal(t, first.Canonical, second.Canonical)
	assert.Equal(t, first.Groups, second.Groups)
	assert.Equal(t, first.Merges, second.Merges)
	oracle.AssertNumberOfCalls(t, "GroupDuplicates", 1)
}

func TestDeduplicate_OrderIndependentCacheHit(t *testing.T) {
	oracle := &mockOracle{}
	oracle.On("GroupDuplicates", mock.Anything, mock.Anything).Return(ciaGroups, nil).Once()

	d := NewDeduplicator(oracle, newTestCache(t))
	_, err := d.Deduplicate(context.Background(), []string{"CIA", "Central Intelligence Agency"})
	require.NoError(t, err)

	res, err := d.Deduplicate(context.Background(), []string{"Central Intelligence Agency", "CIA"})
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	// Canonical order follows this call's observation order.
	assert.Equal(t, []string{"Central Intelligence Agency"}, res.Canonical)
	oracle.AssertNumberOfCalls(t, "GroupDuplicates", 1)
}

func TestDeduplicate_ConservativeUngroupedNamesMapToThemselves(t *testing.T) {
	oracle := &mockOracle{}
	oracle.On("GroupDuplicates", mock.Anything, mock.Anything).Return([]model.DuplicateGroup{}, nil)

	d := NewDeduplicator(oracle, nil)
	names := []string{"Department of State", "Department of Defense", "RAND Corporation"}
	res, err := d.Deduplicate(context.Background(), names)
	require.NoError(t, err)

	for _, n := range names {
		assert.Equal(t, n, res.Mapping[n])
	}
	assert.Zero(t, res.Merges)
}

func TestDeduplicate_ClassifierFailureIsIdentityAndNotCached(t *testing.T) {
	oracle := &mockOracle{}
	oracle.On("GroupDuplicates", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()
	oracle.On("GroupDuplicates", mock.Anything, mock.Anything).Return(ciaGroups, nil).Once()

	d := NewDeduplicator(oracle, newTestCache(t))
	names := []string{"CIA", "Central Intelligence Agency"}

	res, err := d.Deduplicate(context.Background(), names)
	require.NoError(t, err)
	assert.Equal(t, "CIA", res.Mapping["CIA"])
	assert.Zero(t, res.Merges)
	assert.True(t, res.Degraded)
	assert.False(t, res.FromCache)

	// The failure was not cached, so the next run asks again.
	res, err = d.Deduplicate(context.Background(), names)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Merges)
	assert.False(t, res.Degraded)
	oracle.AssertNumberOfCalls(t, "GroupDuplicates", 2)
}

func TestDeduplicate_MalformedResponseIsIdentity(t *testing.T) {
	oracle := &mockOracle{}
	oracle.On("GroupDuplicates", mock.Anything, mock.Anything).Return(nil, classifier.ErrMalformedResponse)

	d := NewDeduplicator(oracle, nil)
	res, err := d.Deduplicate(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "A", "B": "B"}, res.Mapping)
}

func TestDeduplicate_InvalidName(t *testing.T) {
	oracle := &mockOracle{}
	d := NewDeduplicator(oracle, nil)

	_, err := d.Deduplicate(context.Background(), []string{"CIA", "  "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidName))
	oracle.AssertNotCalled(t, "GroupDuplicates", mock.Anything, mock.Anything)
}

func TestDeduplicate_SingleNameSkipsClassifier(t *testing.T) {
	oracle := &mockOracle{}
	d := NewDeduplicator(oracle, nil)

	res, err := d.Deduplicate(context.Background(), []string{"CIA", "CIA", "CIA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"CIA"}, res.Canonical)
	assert.Zero(t, res.Merges)
	oracle.AssertNotCalled(t, "GroupDuplicates", mock.Anything, mock.Anything)

	res, err = d.Deduplicate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Canonical)
}

func TestBuildResult_OverlappingGroupsFirstWins(t *testing.T) {
	groups := []model.DuplicateGroup{
		{Canonical: "U.S. Department of State", Members: []string{"State Dept", "Department of State"}},
		{Canonical: "Foreign Service", Members: []string{"Department of State", "Foreign Service"}},
	}
	res := buildResult([]string{"State Dept", "Department of State", "Foreign Service"}, groups, false)

	assert.Equal(t, "U.S. Department of State", res.Mapping["State Dept"])
	assert.Equal(t, "U.S. Department of State", res.Mapping["Department of State"])
	assert.Equal(t, "Foreign Service", res.Mapping["Foreign Service"])
	require.Len(t, res.Groups, 2)
	assert.Equal(t, []string{"Foreign Service"}, res.Groups[1].Members)
}

func TestBuildResult_IgnoresUnknownMembersAndBlankCanonical(t *testing.T) {
	groups := []model.DuplicateGroup{
		{Canonical: "", Members: []string{"A", "B"}},
		{Canonical: "Z", Members: []string{"Not In Input", "Also Missing"}},
	}
	res := buildResult([]string{"A", "B"}, groups, false)
	assert.Equal(t, map[string]string{"A": "A", "B": "B"}, res.Mapping)
	assert.Empty(t, res.Groups)
}

func TestBuildResult_CanonicalClaimedElsewhereRedirects(t *testing.T) {
	groups := []model.DuplicateGroup{
		{Canonical: "Central Intelligence Agency", Members: []string{"CIA", "Agency"}},
		{Canonical: "Agency", Members: []string{"The Agency"}},
	}
	res := buildResult([]string{"CIA", "Agency", "The Agency"}, groups, false)

	assert.Equal(t, "Central Intelligence Agency", res.Mapping["The Agency"])
	assert.Equal(t, []string{"Central Intelligence Agency"}, res.Canonical)
	assert.Equal(t, 2, res.Merges)
}

func TestBuildResult_CanonicalLaterClaimedIsFollowed(t *testing.T) {
	groups := []model.DuplicateGroup{
		{Canonical: "Department of State", Members: []string{"State Dept"}},
		{Canonical: "U.S. Department of State", Members: []string{"Department of State"}},
	}
	res := buildResult([]string{"State Dept", "Department of State"}, groups, false)

	assert.Equal(t, "U.S. Department of State", res.Mapping["State Dept"])
	assert.Equal(t, "U.S. Department of State", res.Mapping["Department of State"])
	assert.Equal(t, []string{"U.S. Department of State"}, res.Canonical)
}

func TestBuildResult_MatchesMembersAfterNormalization(t *testing.T) {
	groups := []model.DuplicateGroup{
		{Canonical: "U.S. Senate", Members: []string{" US Senate ", "U.S. Senate"}},
	}
	res := buildResult([]string{"US Senate", "U.S. Senate"}, groups, false)
	assert.Equal(t, "U.S. Senate", res.Mapping["US Senate"])
}

func TestBuildResult_NamesSharingNormalizedKeyAllJoinGroup(t *testing.T) {
	groups := []model.DuplicateGroup{
		{Canonical: "Central Intelligence Agency", Members: []string{"CIA"}},
	}
	res := buildResult([]string{"CIA", "CIA ", "Central Intelligence Agency"}, groups, false)

	assert.Equal(t, "Central Intelligence Agency", res.Mapping["CIA"])
	assert.Equal(t, "Central Intelligence Agency", res.Mapping["CIA "])
	assert.Equal(t, "Central Intelligence Agency", res.Mapping["Central Intelligence Agency"])
	assert.Equal(t, []string{"Central Intelligence Agency"}, res.Canonical)
	assert.Equal(t, 2, res.Merges)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, []string{"CIA", "CIA "}, res.Groups[0].Members)
}
