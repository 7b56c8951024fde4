package graph

import (
	"fmt"
	"strings"

	"github.com/sells-group/roster-graph/internal/model"
)

// Validate checks g without modifying it and collects every violation.
func Validate(g *model.Graph) *model.Report {
	r := &model.Report{}
	add := func(kind model.ViolationKind, entity model.EntityKind, id, field, ref, detail string) {
		r.Violations = append(r.Violations, model.Violation{
			Kind: kind, Entity: entity, EntityID: id, Field: field, Ref: ref, Detail: detail,
		})
	}

	collectIDs(model.KindPerson, len(g.People), func(i int) string { return g.People[i].ID }, add)
	orgIDs := collectIDs(model.KindOrganization, len(g.Organizations), func(i int) string { return g.Organizations[i].ID }, add)
	partyIDs := collectIDs(model.KindParty, len(g.Parties), func(i int) string { return g.Parties[i].ID }, add)
	sectorIDs := collectIDs(model.KindSector, len(g.Sectors), func(i int) string { return g.Sectors[i].ID }, add)

	for _, p := range g.People {
		if p.OrganizationID != nil && !orgIDs[*p.OrganizationID] {
			add(model.ViolationMissingReference, model.KindPerson, p.ID, "organization_id", *p.OrganizationID,
				fmt.Sprintf("%s references unknown organization %s", p.Name, *p.OrganizationID))
		}
		if p.PartyID != nil && !partyIDs[*p.PartyID] {
			add(model.ViolationMissingReference, model.KindPerson, p.ID, "party_id", *p.PartyID,
				fmt.Sprintf("%s references unknown party %s", p.Name, *p.PartyID))
		}
		if p.OrganizationID == nil {
			r.Warnings = append(r.Warnings, fmt.Sprintf("person %s (%s) has no organization", p.ID, p.Name))
		}
	}

	for _, o := range g.Organizations {
		if o.ParentID != nil && !orgIDs[*o.ParentID] {
			add(model.ViolationMissingReference, model.KindOrganization, o.ID, "parent_id", *o.ParentID,
				fmt.Sprintf("%s references unknown parent %s", o.Name, *o.ParentID))
		}
		if o.SectorID != nil && !sectorIDs[*o.SectorID] {
			add(model.ViolationMissingReference, model.KindOrganization, o.ID, "sector_id", *o.SectorID,
				fmt.Sprintf("%s references unknown sector %s", o.Name, *o.SectorID))
		}
		if o.SectorID == nil {
			r.Warnings = append(r.Warnings, fmt.Sprintf("organization %s (%s) has no sector", o.ID, o.Name))
		}
	}

	for _, cycle := range findCycles(g.Organizations) {
		add(model.ViolationHierarchyCycle, model.KindOrganization, cycle[0], "parent_id", cycle[1%len(cycle)],
			"parent chain loops: "+strings.Join(append(cycle, cycle[0]), " -> "))
	}

	return r
}

func collectIDs(
	kind model.EntityKind,
	n int,
	idAt func(int) string,
	add func(model.ViolationKind, model.EntityKind, string, string, string, string),
) map[string]bool {
	ids := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		id := idAt(i)
		if ids[id] {
			add(model.ViolationDuplicateIdentifier, kind, id, "id", id,
				fmt.Sprintf("identifier %s is assigned more than once", id))
			continue
		}
		ids[id] = true
	}
	return ids
}

// findCycles returns each parent cycle once. Organizations have at most one
// parent, so a walk that reaches its own path has found a new cycle.
func findCycles(orgs []model.OrganizationNode) [][]string {
	parent := make(map[string]string, len(orgs))
	for _, o := range orgs {
		if o.ParentID != nil {
			if _, seen := parent[o.ID]; !seen {
				parent[o.ID] = *o.ParentID
			}
		}
	}

	done := make(map[string]bool, len(orgs))
	var cycles [][]string
	for _, o := range orgs {
		if done[o.ID] {
			continue
		}
		pos := make(map[string]int)
		var path []string
		cur := o.ID
		for {
			if done[cur] {
				break
			}
			if i, onPath := pos[cur]; onPath {
				cycle := make([]string, len(path)-i)
				copy(cycle, path[i:])
				cycles = append(cycles, cycle)
				break
			}
			pos[cur] = len(path)
			path = append(path, cur)
			next, ok := parent[cur]
			if !ok {
				break
			}
			cur = next
		}
		for _, id := range path {
			done[id] = true
		}
	}
	return cycles
}
