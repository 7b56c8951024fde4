package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDTable_AddAndLookup(t *testing.T) {
	tbl := NewIDTable(KindOrganization)
	require.True(t, tbl.Add(IDEntry{Name: "CIA", ID: "O001", Seq: 1}))
	require.True(t, tbl.Add(IDEntry{Name: "DoD", ID: "O002", Seq: 2}))

	id, ok := tbl.Lookup("DoD")
	assert.True(t, ok)
	assert.Equal(t, "O002", id)

	name, ok := tbl.Name("O001")
	assert.True(t, ok)
	assert.Equal(t, "CIA", name)

	_, ok = tbl.Lookup("FBI")
	assert.False(t, ok)
	assert.Equal(t, 2, tbl.Len())
}

func TestIDTable_RejectsDuplicates(t *testing.T) {
	tbl := NewIDTable(KindPerson)
	require.True(t, tbl.Add(IDEntry{Name: "Alice", ID: "P001", Seq: 1}))

	assert.False(t, tbl.Add(IDEntry{Name: "Alice", ID: "P002", Seq: 2}))
	assert.False(t, tbl.Add(IDEntry{Name: "Bob", ID: "P001", Seq: 1}))
	assert.Equal(t, 1, tbl.Len())
}

func TestIDTable_EntriesIsCopy(t *testing.T) {
	tbl := NewIDTable(KindParty)
	tbl.Add(IDEntry{Name: "Republican Party", ID: "PTY001", Seq: 1})

	entries := tbl.Entries()
	entries[0].ID = "changed"

	id, _ := tbl.Lookup("Republican Party")
	assert.Equal(t, "PTY001", id)
}

func TestIDTable_NilSafe(t *testing.T) {
	var tbl *IDTable
	_, ok := tbl.Lookup("x")
	assert.False(t, ok)
	_, ok = tbl.Name("x")
	assert.False(t, ok)
	assert.Nil(t, tbl.Entries())
	assert.Equal(t, 0, tbl.Len())
}

func TestIDTables_ForKind(t *testing.T) {
	tables := IDTables{
		People:        NewIDTable(KindPerson),
		Organizations: NewIDTable(KindOrganization),
		Parties:       NewIDTable(KindParty),
		Sectors:       NewIDTable(KindSector),
	}
	for _, k := range AllKinds {
		assert.Equal(t, k, tables.ForKind(k).Kind)
	}
	assert.Nil(t, tables.ForKind(EntityKind("unknown")))
}
