package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"sacdash/internal/config"
	"sacdash/internal/dataprocessing"
	"sacdash/internal/exporter"
	"sacdash/internal/infrastructure"
	"sacdash/internal/sheets"
	"sacdash/pkg/contracts/domain"
)

// Service-level sentinel errors mapped to HTTP status by the handlers.
var (
	ErrSnapshotNotLoaded = errors.New("no snapshot loaded")
	ErrLoadFailed        = errors.New("snapshot load failed")
)

// SourceFetcher fetches the five source tables for one snapshot load.
type SourceFetcher interface {
	FetchAll(ctx context.Context, pipeline config.PipelineConfig) (*sheets.SourceSet, error)
}

// DashboardService owns the current ledger snapshot and executes filter
// and aggregation queries against it. The snapshot is swapped atomically
// on reload; queries always see a complete, immutable snapshot.
type DashboardService struct {
	logger    *slog.Logger
	fetcher   SourceFetcher
	processor *dataprocessing.Processor
	analyzer  *dataprocessing.Analyzer
	metrics   *infrastructure.Metrics
	pipeline  config.PipelineConfig

	snapshot atomic.Pointer[dataprocessing.Snapshot]
}

// NewDashboardService creates the dashboard service.
func NewDashboardService(logger *slog.Logger, fetcher SourceFetcher, processor *dataprocessing.Processor, metrics *infrastructure.Metrics, pipeline config.PipelineConfig) *DashboardService {
	return &DashboardService{
		logger:    logger.With(slog.String("component", "dashboard_service")),
		fetcher:   fetcher,
		processor: processor,
		analyzer:  dataprocessing.NewAnalyzer(),
		metrics:   metrics,
		pipeline:  pipeline,
	}
}

// Load pulls all five sources, reconciles them and swaps the snapshot in.
// On failure the previous snapshot (if any) stays in place.
func (s *DashboardService) Load(ctx context.Context) error {
	start := time.Now()

	src, err := s.fetcher.FetchAll(ctx, s.pipeline)
	if err != nil {
		s.observeLoad(start, "fetch_error")
		s.logger.ErrorContext(ctx, "source fetch failed", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	snap, err := s.processor.BuildSnapshot(ctx, src)
	if err != nil {
		s.observeLoad(start, "reconcile_error")
		s.logger.ErrorContext(ctx, "reconciliation failed", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	s.snapshot.Store(snap)
	s.observeLoad(start, "success")

	if s.metrics != nil {
		s.metrics.LedgerRecords.WithLabelValues(string(domain.TypeEngines)).Set(float64(len(snap.Engines)))
		s.metrics.LedgerRecords.WithLabelValues(string(domain.TypeMods)).Set(float64(len(snap.Mods)))
	}

	s.logger.InfoContext(ctx, "snapshot loaded",
		slog.String("snapshot_id", snap.ID),
		slog.Int("records", snap.TotalRecords()),
		slog.String("duration", time.Since(start).String()),
	)

	return nil
}

func (s *DashboardService) observeLoad(start time.Time, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.SnapshotLoads.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		s.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	}
}

// current returns the loaded snapshot or ErrSnapshotNotLoaded.
func (s *DashboardService) current() (*dataprocessing.Snapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrSnapshotNotLoaded
	}
	return snap, nil
}

// Dashboard computes the full aggregate payload for the given filter.
func (s *DashboardService) Dashboard(ctx context.Context, opts domain.FilterOptions) (domain.Dashboard, error) {
	snap, err := s.current()
	if err != nil {
		return domain.Dashboard{}, err
	}

	s.logger.DebugContext(ctx, "building dashboard",
		slog.String("snapshot_id", snap.ID),
		slog.String("view", string(opts.View)),
	)

	return s.analyzer.BuildDashboard(snap, opts), nil
}

// Transactions returns only the formatted display table for the filter.
func (s *DashboardService) Transactions(ctx context.Context, opts domain.FilterOptions) ([]domain.DisplayRow, error) {
	dash, err := s.Dashboard(ctx, opts)
	if err != nil {
		return nil, err
	}
	return dash.Transactions, nil
}

// ExportWorkbook streams an Excel workbook of all result tables.
func (s *DashboardService) ExportWorkbook(ctx context.Context, opts domain.FilterOptions, w io.Writer) error {
	dash, err := s.Dashboard(ctx, opts)
	if err != nil {
		return err
	}
	return exporter.WriteWorkbook(ctx, w, &dash)
}

// HealthStatus describes the loaded snapshot for the health endpoint.
type HealthStatus struct {
	Status       string    `json:"status"`
	SnapshotID   string    `json:"snapshot_id,omitempty"`
	LoadedAt     time.Time `json:"loaded_at,omitempty"`
	AgeSeconds   float64   `json:"age_seconds,omitempty"`
	Engines      int       `json:"engine_records"`
	Mods         int       `json:"mod_records"`
	StaffRows    int       `json:"staff_rows"`
	CustomerRows int       `json:"customer_rows"`
}

// Health reports whether a snapshot is loaded and how fresh it is.
func (s *DashboardService) Health(ctx context.Context) HealthStatus {
	snap := s.snapshot.Load()
	if snap == nil {
		return HealthStatus{Status: "loading"}
	}
	return HealthStatus{
		Status:       "ok",
		SnapshotID:   snap.ID,
		LoadedAt:     snap.LoadedAt,
		AgeSeconds:   time.Since(snap.LoadedAt).Seconds(),
		Engines:      len(snap.Engines),
		Mods:         len(snap.Mods),
		StaffRows:    snap.StaffRows,
		CustomerRows: snap.CustomerRows,
	}
}
