package dataprocessing

import (
	"time"

	"github.com/google/uuid"

	"sacdash/pkg/contracts/domain"
)

// Snapshot is the immutable result of one reconciliation pass. All filter
// and aggregate operations derive new values from it; nothing mutates the
// record slices after construction.
type Snapshot struct {
	ID       string
	LoadedAt time.Time

	Engines []domain.LedgerRecord
	Mods    []domain.LedgerRecord

	// Reference table sizes, kept for health reporting.
	StaffRows    int
	CustomerRows int
}

func newSnapshot(engines, mods []domain.LedgerRecord, staffRows, customerRows int) *Snapshot {
	return &Snapshot{
		ID:           uuid.New().String(),
		LoadedAt:     time.Now(),
		Engines:      engines,
		Mods:         mods,
		StaffRows:    staffRows,
		CustomerRows: customerRows,
	}
}

// Combined returns the type-filtered union of the two record sets, engine
// rows first. The result is a fresh slice; callers may reorder it freely.
func (s *Snapshot) Combined(view domain.View) []domain.LedgerRecord {
	switch view {
	case domain.ViewEngines:
		out := make([]domain.LedgerRecord, len(s.Engines))
		copy(out, s.Engines)
		return out
	case domain.ViewMods:
		out := make([]domain.LedgerRecord, len(s.Mods))
		copy(out, s.Mods)
		return out
	default:
		out := make([]domain.LedgerRecord, 0, len(s.Engines)+len(s.Mods))
		out = append(out, s.Engines...)
		out = append(out, s.Mods...)
		return out
	}
}

// TotalRecords returns the full ledger size across both types.
func (s *Snapshot) TotalRecords() int {
	return len(s.Engines) + len(s.Mods)
}
