package model

// IDEntry is one allocated identifier.
type IDEntry struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Seq  int    `json:"seq"`
}

// IDTable is the append-only name -> identifier mapping for one entity kind.
// Entries are kept in allocation order.
type IDTable struct {
	Kind    EntityKind
	entries []IDEntry
	byName  map[string]int
	byID    map[string]int
}

// NewIDTable creates an empty table for kind.
func NewIDTable(kind EntityKind) *IDTable {
	return &IDTable{
		Kind:   kind,
		byName: make(map[string]int),
		byID:   make(map[string]int),
	}
}

// Add appends an entry. It returns false if the name or id is already present.
func (t *IDTable) Add(e IDEntry) bool {
	if _, ok := t.byName[e.Name]; ok {
		return false
	}
	if _, ok := t.byID[e.ID]; ok {
		return false
	}
	t.entries = append(t.entries, e)
	t.byName[e.Name] = len(t.entries) - 1
	t.byID[e.ID] = len(t.entries) - 1
	return true
}

// Lookup returns the identifier for name.
func (t *IDTable) Lookup(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	i, ok := t.byName[name]
	if !ok {
		return "", false
	}
	return t.entries[i].ID, true
}

// Name returns the entity name for id.
func (t *IDTable) Name(id string) (string, bool) {
	if t == nil {
		return "", false
	}
	i, ok := t.byID[id]
	if !ok {
		return "", false
	}
	return t.entries[i].Name, true
}

// Entries returns a copy of the entries in allocation order.
func (t *IDTable) Entries() []IDEntry {
	if t == nil {
		return nil
	}
	out := make([]IDEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of allocated identifiers.
func (t *IDTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// IDTables groups the tables for every entity kind.
type IDTables struct {
	People        *IDTable
	Organizations *IDTable
	Parties       *IDTable
	Sectors       *IDTable
}

// ForKind returns the table for kind.
func (t IDTables) ForKind(kind EntityKind) *IDTable {
	switch kind {
	case KindPerson:
		return t.People
	case KindOrganization:
		return t.Organizations
	case KindParty:
		return t.Parties
	case KindSector:
		return t.Sectors
	default:
		return nil
	}
}
