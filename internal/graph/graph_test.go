package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-graph/internal/identity"
	"github.com/sells-group/roster-graph/internal/model"
)

func ptr(s string) *string { return &s }

func ciaInput() MapInput {
	people := []model.Person{
		{Name: "Jane Doe", Role: "Director", RawOrganization: "CIA"},
		{Name: "John Roe", Role: "Senator (R-TX)", RawOrganization: "U.S. Senate", Party: ptr("Republican Party")},
		{Name: "No Org", Role: "Analyst"},
	}
	orgs := []model.Organization{
		{Name: "Central Intelligence Agency", Variants: []string{"CIA", "Central Intelligence Agency"},
			Parent: ptr("U.S. Federal Government"), Sector: ptr("Government - Intelligence & Security")},
		{Name: "U.S. Senate", Variants: []string{"U.S. Senate"}, Sector: ptr("Government - Legislative")},
		{Name: "U.S. Federal Government", Sector: ptr("Government - Other")},
	}
	parties := []model.Party{{Name: "Republican Party", Abbreviation: "R", Color: "#E81B23"}}
	sectors := []model.Sector{
		{Name: "Government - Intelligence & Security", Category: "gov"},
		{Name: "Government - Legislative", Category: "gov"},
		{Name: "Government - Other", Category: "gov"},
	}
	canon := map[string]string{
		"CIA":                         "Central Intelligence Agency",
		"Central Intelligence Agency": "Central Intelligence Agency",
		"U.S. Senate":                 "U.S. Senate",
	}
	tables := identity.NewAllocator(nil).AllocateAll(context.Background(), identity.Names{
		People:        []string{"Jane Doe", "John Roe", "No Org"},
		Organizations: []string{"Central Intelligence Agency", "U.S. Senate", "U.S. Federal Government"},
		Parties:       []string{"Republican Party"},
		Sectors:       []string{"Government - Intelligence & Security", "Government - Legislative", "Government - Other"},
	})
	return MapInput{People: people, Organizations: orgs, Parties: parties, Sectors: sectors, Canon: canon, IDs: tables}
}

func TestMap_ResolvesThroughCanonicalMapping(t *testing.T) {
	g, unresolved := Map(ciaInput())
	assert.Empty(t, unresolved)

	require.Len(t, g.People, 3)
	assert.Equal(t, "P001", g.People[0].ID)
	assert.Equal(t, "O001", model.Deref(g.People[0].OrganizationID))
	assert.Nil(t, g.People[0].PartyID)
	assert.Equal(t, "O002", model.Deref(g.People[1].OrganizationID))
	assert.Equal(t, "PTY001", model.Deref(g.People[1].PartyID))
	assert.Nil(t, g.People[2].OrganizationID)

	require.Len(t, g.Organizations, 3)
	assert.Equal(t, "O003", model.Deref(g.Organizations[0].ParentID))
	assert.Equal(t, "SEC001", model.Deref(g.Organizations[0].SectorID))
	assert.Nil(t, g.Organizations[1].ParentID)

	require.Len(t, g.Parties, 1)
	assert.Equal(t, "#E81B23", g.Parties[0].Color)
	require.Len(t, g.Sectors, 3)
	assert.Equal(t, "gov", g.Sectors[0].Category)

	report := Validate(g)
	assert.True(t, report.Passed(), "%v", report.Violations)
	assert.Equal(t, []string{"person P003 (No Org) has no organization"}, report.Warnings)
}

func TestMap_NeverLooksUpRawName(t *testing.T) {
	in := ciaInput()
	// "CIA" has no canonical mapping; even though an org could be named
	// "CIA", the mapper must not fall back to the raw name.
	delete(in.Canon, "CIA")
	g, unresolved := Map(in)

	assert.Nil(t, g.People[0].OrganizationID)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "person", unresolved[0].Entity)
	assert.Equal(t, "organization", unresolved[0].Field)
	assert.Equal(t, "CIA", unresolved[0].Ref)
}

func TestMap_MissingIdentifiersAreFlagged(t *testing.T) {
	in := ciaInput()
	in.Organizations[1].Parent = ptr("U.S. Congress")
	in.People[0].Party = ptr("Green Party")
	in.Organizations[2].Sector = ptr("Unknown Sector")

	g, unresolved := Map(in)
	assert.Nil(t, g.Organizations[1].ParentID)
	assert.Nil(t, g.People[0].PartyID)
	assert.Nil(t, g.Organizations[2].SectorID)
	assert.Len(t, unresolved, 3)

	report := Validate(g)
	assert.True(t, report.Passed())
	assert.Contains(t, report.Warnings, "organization O003 (U.S. Federal Government) has no sector")
}

func TestValidate_MissingReferences(t *testing.T) {
	g := &model.Graph{
		People: []model.PersonNode{
			{ID: "P001", Name: "A", OrganizationID: ptr("O009"), PartyID: ptr("PTY009")},
		},
		Organizations: []model.OrganizationNode{
			{ID: "O001", Name: "X", ParentID: ptr("O404"), SectorID: ptr("SEC404")},
		},
	}
	report := Validate(g)
	assert.False(t, report.Passed())
	assert.Equal(t, 4, report.Count(model.ViolationMissingReference))

	fields := make([]string, 0, 4)
	for _, v := range report.Violations {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"organization_id", "party_id", "parent_id", "sector_id"}, fields)
}

func TestValidate_CycleReportedOnce(t *testing.T) {
	g := &model.Graph{
		Organizations: []model.OrganizationNode{
			{ID: "O001", Name: "A", ParentID: ptr("O002"), SectorID: ptr("SEC001")},
			{ID: "O002", Name: "B", ParentID: ptr("O003"), SectorID: ptr("SEC001")},
			{ID: "O003", Name: "C", ParentID: ptr("O001"), SectorID: ptr("SEC001")},
			{ID: "O004", Name: "D", ParentID: ptr("O002"), SectorID: ptr("SEC001")},
			{ID: "O005", Name: "E", ParentID: ptr("O005"), SectorID: ptr("SEC001")},
		},
		Sectors: []model.SectorNode{{ID: "SEC001", Sector: model.Sector{Name: "S"}}},
	}
	report := Validate(g)
	require.Equal(t, 2, report.Count(model.ViolationHierarchyCycle))
	assert.Equal(t, "parent chain loops: O001 -> O002 -> O003 -> O001", report.Violations[0].Detail)
	assert.Equal(t, "parent chain loops: O005 -> O005", report.Violations[1].Detail)
}

func TestValidate_CycleRefIsEntityParent(t *testing.T) {
	g := &model.Graph{
		Organizations: []model.OrganizationNode{
			{ID: "O001", Name: "A", ParentID: ptr("O002"), SectorID: ptr("SEC001")},
			{ID: "O002", Name: "B", ParentID: ptr("O003"), SectorID: ptr("SEC001")},
			{ID: "O003", Name: "C", ParentID: ptr("O001"), SectorID: ptr("SEC001")},
			{ID: "O005", Name: "E", ParentID: ptr("O005"), SectorID: ptr("SEC001")},
		},
		Sectors: []model.SectorNode{{ID: "SEC001", Sector: model.Sector{Name: "S"}}},
	}
	report := Validate(g)
	require.Equal(t, 2, report.Count(model.ViolationHierarchyCycle))

	parents := make(map[string]string, len(g.Organizations))
	for _, o := range g.Organizations {
		parents[o.ID] = *o.ParentID
	}
	for _, v := range report.Violations {
		assert.Equal(t, "parent_id", v.Field)
		assert.Equal(t, parents[v.EntityID], v.Ref, v.Detail)
	}
	assert.Equal(t, "O002", report.Violations[0].Ref)
	assert.Equal(t, "O005", report.Violations[1].Ref)
}

func TestValidate_DuplicateIdentifiersAndMixedViolations(t *testing.T) {
	g := &model.Graph{
		People: []model.PersonNode{
			{ID: "P001", Name: "A"},
			{ID: "P001", Name: "B", OrganizationID: ptr("O404")},
		},
		Parties: []model.PartyNode{
			{ID: "PTY001", Party: model.Party{Name: "R"}},
			{ID: "PTY001", Party: model.Party{Name: "D"}},
		},
	}
	report := Validate(g)
	assert.Equal(t, 2, report.Count(model.ViolationDuplicateIdentifier))
	assert.Equal(t, 1, report.Count(model.ViolationMissingReference))
}

func TestValidate_DoesNotMutate(t *testing.T) {
	g, _ := Map(ciaInput())
	before := *g
	peopleBefore := append([]model.PersonNode(nil), g.People...)
	Validate(g)
	assert.Equal(t, before.Organizations, g.Organizations)
	assert.Equal(t, peopleBefore, g.People)
}
