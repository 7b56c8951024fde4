package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityKind_FormatID(t *testing.T) {
	tests := []struct {
		kind EntityKind
		seq  int
		want string
	}{
		{KindPerson, 1, "P001"},
		{KindOrganization, 7, "O007"},
		{KindParty, 12, "PTY012"},
		{KindSector, 1000, "SEC1000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.FormatID(tt.seq))
	}
}

func TestFacts_Found(t *testing.T) {
	assert.False(t, Facts{}.Found())
	assert.True(t, Facts{Extract: StringPtr("bio")}.Found())
	assert.True(t, Facts{ReferenceURL: StringPtr("https://x")}.Found())
}

func TestProfile_Found(t *testing.T) {
	assert.False(t, Profile{}.Found())
	assert.True(t, Profile{Gender: StringPtr("female")}.Found())
	assert.True(t, Profile{CareerHistory: StringPtr("Elected 2012.")}.Found())
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	assert.Nil(t, StringPtr("   "))
	p := StringPtr("CIA")
	if assert.NotNil(t, p) {
		assert.Equal(t, "CIA", *p)
	}
	assert.Equal(t, "", Deref(nil))
	assert.Equal(t, "CIA", Deref(p))
}

func TestHierarchyEdge_String(t *testing.T) {
	assert.Equal(t, "CIA -> ODNI", HierarchyEdge{Child: "CIA", Parent: "ODNI"}.String())
}
