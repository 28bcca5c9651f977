package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacdash/internal/config"
	"sacdash/internal/dataprocessing"
	"sacdash/internal/infrastructure"
	"sacdash/internal/sheets"
	"sacdash/pkg/contracts/domain"
)

// fakeFetcher serves canned source sets or a fixed error.
type fakeFetcher struct {
	set   *sheets.SourceSet
	err   error
	calls int
}

func (f *fakeFetcher) FetchAll(ctx context.Context, pipeline config.PipelineConfig) (*sheets.SourceSet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.set, nil
}

func fakeSourceSet() *sheets.SourceSet {
	return &sheets.SourceSet{
		Transactions: sheets.Table{
			Headers: []string{"Timestamp", "Item", "Staff Name"},
			Rows: [][]string{
				{"1/15/2025 14:30:00", "V8 Engine", "Alice"},
			},
		},
		Items: sheets.Table{
			Headers: []string{"Item", "Material Cost", "RRP"},
			Rows:    [][]string{{"V8 Engine", "$200.00", "$500.00"}},
		},
		Staff: sheets.Table{
			Headers: []string{"Staff Name", "Discord Name"},
			Rows:    [][]string{{"Alice", "alice#1"}},
		},
		Customers: sheets.Table{
			Headers: []string{"Customer"},
			Rows:    [][]string{{"carl"}},
		},
		Logs: sheets.Table{
			Headers: []string{"Timestamp_Logs", "Player", "Vehicle", "Service", "Price", "Mechanic"},
			Rows: [][]string{
				{"2025-01-15T00:30:00", "carl", "Sultan", "Turbo", "$100.00", "alice#1"},
			},
		},
	}
}

func newTestService(t *testing.T, fetcher SourceFetcher) *DashboardService {
	t.Helper()

	processor, err := dataprocessing.NewProcessor(slog.Default(), config.PipelineConfig{
		Timezone:         "Australia/Brisbane",
		EngineTimeFormat: "1/2/2006 15:04:05",
	})
	require.NoError(t, err)

	return NewDashboardService(slog.Default(), fetcher, processor, infrastructure.NewMetrics(), config.PipelineConfig{})
}

func TestDashboardBeforeLoad(t *testing.T) {
	svc := newTestService(t, &fakeFetcher{set: fakeSourceSet()})

	_, err := svc.Dashboard(context.Background(), domain.FilterOptions{View: domain.ViewBoth})
	assert.ErrorIs(t, err, ErrSnapshotNotLoaded)

	health := svc.Health(context.Background())
	assert.Equal(t, "loading", health.Status)
}

func TestLoadAndDashboard(t *testing.T) {
	svc := newTestService(t, &fakeFetcher{set: fakeSourceSet()})

	require.NoError(t, svc.Load(context.Background()))

	dash, err := svc.Dashboard(context.Background(), domain.FilterOptions{View: domain.ViewBoth})
	require.NoError(t, err)
	assert.Equal(t, 2, dash.Totals.Transactions)
	assert.Equal(t, 600.0, dash.Totals.Sales)
	assert.Equal(t, []string{"Alice"}, dash.StaffOptions)

	health := svc.Health(context.Background())
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Engines)
	assert.Equal(t, 1, health.Mods)
	assert.Equal(t, 1, health.StaffRows)
}

func TestLoadFailureKeepsPreviousSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{set: fakeSourceSet()}
	svc := newTestService(t, fetcher)

	require.NoError(t, svc.Load(context.Background()))

	fetcher.err = errors.New("boom")
	err := svc.Load(context.Background())
	require.ErrorIs(t, err, ErrLoadFailed)

	// Queries keep answering from the previous snapshot.
	dash, err := svc.Dashboard(context.Background(), domain.FilterOptions{View: domain.ViewBoth})
	require.NoError(t, err)
	assert.Equal(t, 2, dash.Totals.Transactions)
	assert.Equal(t, 2, fetcher.calls)
}

func TestLoadReconciliationFailure(t *testing.T) {
	set := fakeSourceSet()
	set.Transactions.Headers = []string{"bad", "headers", "here"}
	svc := newTestService(t, &fakeFetcher{set: set})

	err := svc.Load(context.Background())
	assert.ErrorIs(t, err, ErrLoadFailed)
}

func TestTransactions(t *testing.T) {
	svc := newTestService(t, &fakeFetcher{set: fakeSourceSet()})
	require.NoError(t, svc.Load(context.Background()))

	rows, err := svc.Transactions(context.Background(), domain.FilterOptions{View: domain.ViewMods})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Turbo", rows[0].Item)
	assert.Equal(t, "$100.00", rows[0].Sales)
}

func TestExportWorkbook(t *testing.T) {
	svc := newTestService(t, &fakeFetcher{set: fakeSourceSet()})
	require.NoError(t, svc.Load(context.Background()))

	var buf bytes.Buffer
	err := svc.ExportWorkbook(context.Background(), domain.FilterOptions{View: domain.ViewBoth}, &buf)
	require.NoError(t, err)
	// xlsx files are zip archives.
	assert.Equal(t, []byte{'P', 'K'}, buf.Bytes()[:2])
}

func TestExportWorkbookBeforeLoad(t *testing.T) {
	svc := newTestService(t, &fakeFetcher{set: fakeSourceSet()})

	var buf bytes.Buffer
	err := svc.ExportWorkbook(context.Background(), domain.FilterOptions{View: domain.ViewBoth}, &buf)
	assert.ErrorIs(t, err, ErrSnapshotNotLoaded)
}
