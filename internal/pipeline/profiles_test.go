package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-graph/internal/cache"
	"github.com/sells-group/roster-graph/internal/classifier"
	"github.com/sells-group/roster-graph/internal/model"
)

func TestProfile_SkipsPeopleWithoutExtract(t *testing.T) {
	ext := &mockProfileExtractor{}
	ext.On("ExtractProfile", mock.Anything, classifier.ProfileRequest{
		Name: "Alice", NativeName: "爱丽丝", Role: "Senator", Extract: "Alice is a senator.",
	}).Return(model.Profile{Gender: strPtr("female")}, nil).Once()

	people := []model.Person{
		{Name: "Alice", NativeName: "爱丽丝", Role: "Senator", Facts: model.Facts{Extract: strPtr("Alice is a senator.")}},
		{Name: "Bob", Facts: model.Facts{ReferenceURL: strPtr("https://x")}},
	}
	out, found := NewProfiler(ext, nil, 2).Profile(context.Background(), people)

	assert.Equal(t, 1, found)
	require.Len(t, out, 2)
	assert.Equal(t, "female", model.Deref(out[0].Profile.Gender))
	assert.False(t, out[1].Profile.Found())
	// Input is not mutated.
	assert.False(t, people[0].Profile.Found())
	ext.AssertExpectations(t)
}

func TestProfile_CachesEmptyResults(t *testing.T) {
	ext := &mockProfileExtractor{}
	ext.On("ExtractProfile", mock.Anything, mock.Anything).Return(model.Profile{}, nil).Once()

	pr := NewProfiler(ext, cache.New(nil, time.Minute), 1)
	people := []model.Person{{Name: "Bob", Facts: model.Facts{Extract: strPtr("A stub.")}}}
	pr.Profile(context.Background(), people)
	_, found := pr.Profile(context.Background(), people)

	assert.Zero(t, found)
	ext.AssertNumberOfCalls(t, "ExtractProfile", 1)
}

func TestProfile_FailureNotCached(t *testing.T) {
	ext := &mockProfileExtractor{}
	ext.On("ExtractProfile", mock.Anything, mock.Anything).Return(model.Profile{}, errors.New("overloaded")).Once()
	ext.On("ExtractProfile", mock.Anything, mock.Anything).Return(model.Profile{Education: strPtr("Yale (JD).")}, nil).Once()

	pr := NewProfiler(ext, cache.New(nil, time.Minute), 1)
	people := []model.Person{{Name: "Carol", Facts: model.Facts{Extract: strPtr("Carol studied law at Yale.")}}}

	out, found := pr.Profile(context.Background(), people)
	assert.Zero(t, found)
	assert.Nil(t, out[0].Profile.Education)

	out, found = pr.Profile(context.Background(), people)
	assert.Equal(t, 1, found)
	assert.Equal(t, "Yale (JD).", model.Deref(out[0].Profile.Education))
	ext.AssertNumberOfCalls(t, "ExtractProfile", 2)
}
