package dataprocessing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacdash/internal/sheets"
	"sacdash/pkg/contracts/domain"
)

func testSourceSet() *sheets.SourceSet {
	return &sheets.SourceSet{
		Transactions: sheets.Table{
			Headers: []string{"Timestamp", "Item", "Staff Name"},
			Rows: [][]string{
				{"1/15/2025 14:30:00", "V8 Engine", "Alice"},
				{"1/16/2025 09:00:00", "V6 Engine", ""},
				{"garbage", "V8 Engine", "Bob"},
				{"1/17/2025 10:00:00", "Mystery Part", "Alice"},
			},
		},
		Items: sheets.Table{
			Headers: []string{"Item", "Material Cost", "RRP"},
			Rows: [][]string{
				{"V8 Engine", "$200.00", "$500.00"},
				{"V6 Engine", "$100", "$250"},
			},
		},
		Staff: sheets.Table{
			Headers: []string{"Staff Name", "Discord Name"},
			Rows: [][]string{
				{"Alice", "alice#1"},
				{"Bob", "bob#2"},
			},
		},
		Customers: sheets.Table{
			Headers: []string{"Customer"},
			Rows:    [][]string{{"carl"}, {"dana"}},
		},
		Logs: sheets.Table{
			Headers: []string{"Timestamp_Logs", "Player", "Vehicle", "Service", "Price", "Mechanic"},
			Rows: [][]string{
				{"2025-01-15T00:30:00", "carl", "Sultan", "Turbo", "$100.00", "bob#2"},
				{"2025-01-16 02:00:00", "dana", "Banshee", "Respray", "$50", "nobody#9"},
			},
		},
	}
}

func TestBuildSnapshotReconcilesEngines(t *testing.T) {
	p := newTestProcessor(t)

	snap, err := p.BuildSnapshot(context.Background(), testSourceSet())
	require.NoError(t, err)
	require.Len(t, snap.Engines, 4)

	matched := snap.Engines[0]
	assert.Equal(t, time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC), matched.Timestamp)
	assert.Equal(t, "Alice", matched.StaffName)
	assert.Equal(t, "V8 Engine", matched.Item)
	assert.Equal(t, 500.0, matched.Sales)
	assert.Equal(t, 200.0, matched.MaterialCost)
	assert.Equal(t, 300.0, matched.Profit)
	assert.Equal(t, domain.TypeEngines, matched.Type)

	blank := snap.Engines[1]
	assert.Equal(t, domain.BlankStaff, blank.StaffName)
	assert.Equal(t, 250.0, blank.Sales)
	assert.Equal(t, 150.0, blank.Profit)

	// Unparseable timestamp keeps the row; only the timestamp is zeroed.
	badTS := snap.Engines[2]
	assert.False(t, badTS.HasTimestamp())
	assert.Equal(t, 500.0, badTS.Sales)

	// Item missing from the catalog keeps the row with zeroed money fields.
	unmatched := snap.Engines[3]
	assert.Equal(t, "Mystery Part", unmatched.Item)
	assert.Zero(t, unmatched.Sales)
	assert.Zero(t, unmatched.MaterialCost)
	assert.Zero(t, unmatched.Profit)
}

func TestBuildSnapshotReconcilesMods(t *testing.T) {
	p := newTestProcessor(t)

	snap, err := p.BuildSnapshot(context.Background(), testSourceSet())
	require.NoError(t, err)
	require.Len(t, snap.Mods, 2)

	resolved := snap.Mods[0]
	assert.Equal(t, "Bob", resolved.StaffName)
	assert.Equal(t, "Turbo", resolved.Item)
	assert.Equal(t, "carl", resolved.CustomerName)
	assert.Equal(t, 100.0, resolved.Sales)
	assert.InDelta(t, 80.0, resolved.MaterialCost, 1e-9)
	assert.InDelta(t, 10.0, resolved.Profit, 1e-9)
	assert.Equal(t, domain.TypeMods, resolved.Type)
	// UTC 00:30 lands at 10:30 Brisbane wall clock.
	assert.Equal(t, time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC), resolved.Timestamp)

	// Unknown mechanic handle falls back to the blank bucket.
	unknown := snap.Mods[1]
	assert.Equal(t, domain.BlankStaff, unknown.StaffName)
	assert.Equal(t, 50.0, unknown.Sales)
	assert.InDelta(t, 5.0, unknown.Profit, 1e-9)
}

func TestBuildSnapshotMissingRequiredColumns(t *testing.T) {
	p := newTestProcessor(t)

	src := testSourceSet()
	src.Transactions.Headers = []string{"When", "What", "Who"}

	_, err := p.BuildSnapshot(context.Background(), src)
	assert.ErrorContains(t, err, "missing required columns")
}

func TestBuildSnapshotReferenceCounts(t *testing.T) {
	p := newTestProcessor(t)

	snap, err := p.BuildSnapshot(context.Background(), testSourceSet())
	require.NoError(t, err)

	assert.Equal(t, 2, snap.StaffRows)
	assert.Equal(t, 2, snap.CustomerRows)
	assert.Equal(t, 6, snap.TotalRecords())
	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestStaffIndexFirstOccurrenceWins(t *testing.T) {
	idx := newStaffIndex(&sheets.Table{
		Headers: []string{"Staff Name", "Discord Name"},
		Rows: [][]string{
			{"Alice", "alice#1"},
			{"Alice Clone", "alice#1"},
			{"Alice", "alice#other"},
			{"", ""},
		},
	})

	assert.Equal(t, "Alice", idx.byDiscordName["alice#1"].StaffName)
	assert.Equal(t, "alice#1", idx.byStaffName["Alice"].DiscordName)
	assert.NotContains(t, idx.byStaffName, "")
}

func TestItemIndexFirstOccurrenceWins(t *testing.T) {
	idx := newItemIndex(&sheets.Table{
		Headers: []string{"Item", "Material Cost", "RRP"},
		Rows: [][]string{
			{"V8 Engine", "$200", "$500"},
			{"V8 Engine", "$999", "$999"},
			{"", "$1", "$2"},
		},
	})

	require.Len(t, idx, 1)
	assert.Equal(t, "$500", idx["V8 Engine"].RRP)
}

func TestBuildSnapshotIdempotent(t *testing.T) {
	p := newTestProcessor(t)
	src := testSourceSet()

	first, err := p.BuildSnapshot(context.Background(), src)
	require.NoError(t, err)
	second, err := p.BuildSnapshot(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, first.Engines, second.Engines)
	assert.Equal(t, first.Mods, second.Mods)
}

func TestSnapshotCombinedViews(t *testing.T) {
	p := newTestProcessor(t)

	snap, err := p.BuildSnapshot(context.Background(), testSourceSet())
	require.NoError(t, err)

	assert.Len(t, snap.Combined(domain.ViewEngines), 4)
	assert.Len(t, snap.Combined(domain.ViewMods), 2)

	both := snap.Combined(domain.ViewBoth)
	require.Len(t, both, 6)
	assert.Equal(t, domain.TypeEngines, both[0].Type)
	assert.Equal(t, domain.TypeMods, both[5].Type)

	// Combined hands out fresh slices; mutating one must not leak back.
	both[0].StaffName = "mutated"
	assert.Equal(t, "Alice", snap.Engines[0].StaffName)
}
