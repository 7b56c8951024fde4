// Package graph links resolved entities by identifier and checks the
// resulting graph for integrity problems.
package graph

import (
	"github.com/sells-group/roster-graph/internal/model"
)

// MapInput is everything the mapper needs from earlier stages.
type MapInput struct {
	People []model.Person
	// Organizations carry canonical names with their accepted parent and
	// assigned sector.
	Organizations []model.Organization
	Parties       []model.Party
	Sectors       []model.Sector
	// Canon maps raw organization names to canonical names.
	Canon map[string]string
	IDs   model.IDTables
}

// Map resolves every reference to an identifier. References that cannot be
// resolved are left nil and reported; no identifier is ever invented.
func Map(in MapInput) (*model.Graph, []model.Unresolved) {
	var unresolved []model.Unresolved
	note := func(entity, name, field, ref, reason string) {
		unresolved = append(unresolved, model.Unresolved{
			Entity: entity, Name: name, Field: field, Ref: ref, Reason: reason,
		})
	}

	g := &model.Graph{}

	people := make(map[string]model.Person, len(in.People))
	for _, p := range in.People {
		if _, ok := people[p.Name]; !ok {
			people[p.Name] = p
		}
	}
	for _, e := range in.IDs.People.Entries() {
		p := people[e.Name]
		node := model.PersonNode{
			ID:           e.ID,
			Name:         e.Name,
			NativeName:   p.NativeName,
			Role:         p.Role,
			Extract:      p.Facts.Extract,
			Profile:      p.Profile,
			ReferenceURL: p.Facts.ReferenceURL,
		}

		if p.RawOrganization != "" {
			canonical, ok := in.Canon[p.RawOrganization]
			if !ok {
				note("person", p.Name, "organization", p.RawOrganization, "organization was never canonicalized")
			} else if id, ok := in.IDs.Organizations.Lookup(canonical); ok {
				node.OrganizationID = model.StringPtr(id)
			} else {
				note("person", p.Name, "organization", canonical, "canonical organization has no identifier")
			}
		}

		if p.Party != nil {
			if id, ok := in.IDs.Parties.Lookup(*p.Party); ok {
				node.PartyID = model.StringPtr(id)
			} else {
				note("person", p.Name, "party", *p.Party, "party has no identifier")
			}
		}
		g.People = append(g.People, node)
	}

	orgs := make(map[string]model.Organization, len(in.Organizations))
	for _, o := range in.Organizations {
		orgs[o.Name] = o
	}
	for _, e := range in.IDs.Organizations.Entries() {
		o := orgs[e.Name]
		node := model.OrganizationNode{ID: e.ID, Name: e.Name, Variants: o.Variants}
		if o.Parent != nil {
			if id, ok := in.IDs.Organizations.Lookup(*o.Parent); ok {
				node.ParentID = model.StringPtr(id)
			} else {
				note("organization", o.Name, "parent", *o.Parent, "parent organization has no identifier")
			}
		}
		if o.Sector != nil {
			if id, ok := in.IDs.Sectors.Lookup(*o.Sector); ok {
				node.SectorID = model.StringPtr(id)
			} else {
				note("organization", o.Name, "sector", *o.Sector, "sector has no identifier")
			}
		}
		g.Organizations = append(g.Organizations, node)
	}

	parties := make(map[string]model.Party, len(in.Parties))
	for _, p := range in.Parties {
		parties[p.Name] = p
	}
	for _, e := range in.IDs.Parties.Entries() {
		p, ok := parties[e.Name]
		if !ok {
			p = model.Party{Name: e.Name}
		}
		g.Parties = append(g.Parties, model.PartyNode{ID: e.ID, Party: p})
	}

	sectors := make(map[string]model.Sector, len(in.Sectors))
	for _, s := range in.Sectors {
		sectors[s.Name] = s
	}
	for _, e := range in.IDs.Sectors.Entries() {
		s, ok := sectors[e.Name]
		if !ok {
			s = model.Sector{Name: e.Name}
		}
		g.Sectors = append(g.Sectors, model.SectorNode{ID: e.ID, Sector: s})
	}

	return g, unresolved
}
