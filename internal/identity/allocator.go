// Package identity assigns stable typed identifiers (P001, O001, PTY001,
// SEC001) to entities in first-observation order.
package identity

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/roster-graph/internal/model"
)

// Ledger persists identifiers across runs. store.Store satisfies it.
type Ledger interface {
	LoadLedger(ctx context.Context, kind model.EntityKind) ([]model.IDEntry, error)
	AppendLedger(ctx context.Context, kind model.EntityKind, entries []model.IDEntry) error
}

// Names lists entity names per kind in first-observation order.
type Names struct {
	People        []string
	Organizations []string
	Parties       []string
	Sectors       []string
}

func (n Names) forKind(kind model.EntityKind) []string {
	switch kind {
	case model.KindPerson:
		return n.People
	case model.KindOrganization:
		return n.Organizations
	case model.KindParty:
		return n.Parties
	case model.KindSector:
		return n.Sectors
	default:
		return nil
	}
}

// Allocator hands out identifiers. Without a ledger, numbering starts at 1
// on every call.
type Allocator struct {
	ledger Ledger
}

// NewAllocator creates an Allocator. ledger may be nil.
func NewAllocator(ledger Ledger) *Allocator {
	return &Allocator{ledger: ledger}
}

// Allocate returns a table holding one identifier per distinct non-blank
// name, in input order. Names already in the ledger keep their identifier;
// new names continue the ledger's sequence. Ledger errors degrade to
// in-memory allocation.
func (a *Allocator) Allocate(ctx context.Context, kind model.EntityKind, names []string) *model.IDTable {
	known := make(map[string]model.IDEntry)
	next := 1
	if a.ledger != nil {
		entries, err := a.ledger.LoadLedger(ctx, kind)
		if err != nil {
			zap.L().Warn("identity: ledger unavailable, allocating in memory",
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		} else {
			for _, e := range entries {
				known[e.Name] = e
				if e.Seq >= next {
					next = e.Seq + 1
				}
			}
		}
	}

	table := model.NewIDTable(kind)
	var fresh []model.IDEntry
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, dup := table.Lookup(name); dup {
			continue
		}
		if e, ok := known[name]; ok {
			table.Add(e)
			continue
		}
		e := model.IDEntry{Name: name, ID: kind.FormatID(next), Seq: next}
		next++
		table.Add(e)
		fresh = append(fresh, e)
	}

	if a.ledger != nil && len(fresh) > 0 {
		if err := a.ledger.AppendLedger(ctx, kind, fresh); err != nil {
			zap.L().Warn("identity: failed to persist identifiers",
				zap.String("kind", string(kind)),
				zap.Int("entries", len(fresh)),
				zap.Error(err),
			)
		}
	}
	return table
}

// AllocateAll allocates every kind in model.AllKinds order.
func (a *Allocator) AllocateAll(ctx context.Context, names Names) model.IDTables {
	var tables model.IDTables
	for _, kind := range model.AllKinds {
		t := a.Allocate(ctx, kind, names.forKind(kind))
		switch kind {
		case model.KindPerson:
			tables.People = t
		case model.KindOrganization:
			tables.Organizations = t
		case model.KindParty:
			tables.Parties = t
		case model.KindSector:
			tables.Sectors = t
		}
	}
	return tables
}
