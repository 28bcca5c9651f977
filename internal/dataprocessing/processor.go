package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sacdash/internal/config"
	"sacdash/internal/sheets"
	"sacdash/pkg/contracts/domain"
)

// Business rates for the two record types. Mods have no cost reference in
// the catalog, so cost and profit are fixed proportions of the logged
// price; the unaccounted 10% is the platform fee.
const (
	ModCostRate   = 0.80
	ModProfitRate = 0.10
	EnginePayRate = 0.30
	ModPayRate    = 0.10
)

// Processor reconciles fetched source tables into ledger snapshots.
type Processor struct {
	logger       *slog.Logger
	engineFormat string
	location     *time.Location
}

// NewProcessor creates a processor for the configured timezone and
// timestamp format.
func NewProcessor(logger *slog.Logger, cfg config.PipelineConfig) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline timezone %q: %w", cfg.Timezone, err)
	}

	format := cfg.EngineTimeFormat
	if format == "" {
		format = "1/2/2006 15:04:05"
	}

	return &Processor{
		logger:       logger.With(slog.String("component", "processor")),
		engineFormat: format,
		location:     loc,
	}, nil
}

// staffIndex resolves both staff join keys with a deterministic
// first-occurrence-wins policy, since the source sheet may carry duplicate
// names on either column.
type staffIndex struct {
	byStaffName   map[string]domain.StaffRow
	byDiscordName map[string]domain.StaffRow
}

func newStaffIndex(table *sheets.Table) *staffIndex {
	idx := &staffIndex{
		byStaffName:   make(map[string]domain.StaffRow),
		byDiscordName: make(map[string]domain.StaffRow),
	}

	staffCol, discordCol := 0, 1
	if c := table.Column("Staff Name"); c >= 0 {
		staffCol = c
	}
	if c := table.Column("Discord Name"); c >= 0 {
		discordCol = c
	}

	for _, row := range table.Rows {
		entry := domain.StaffRow{
			StaffName:   strings.TrimSpace(table.Cell(row, staffCol)),
			DiscordName: strings.TrimSpace(table.Cell(row, discordCol)),
		}
		if entry.StaffName == "" && entry.DiscordName == "" {
			continue
		}
		if entry.StaffName != "" {
			if _, exists := idx.byStaffName[entry.StaffName]; !exists {
				idx.byStaffName[entry.StaffName] = entry
			}
		}
		if entry.DiscordName != "" {
			if _, exists := idx.byDiscordName[entry.DiscordName]; !exists {
				idx.byDiscordName[entry.DiscordName] = entry
			}
		}
	}

	return idx
}

// itemIndex is the catalog lookup; Item is expected unique, duplicates
// resolve first-wins like the staff reference.
func newItemIndex(table *sheets.Table) map[string]domain.ItemRow {
	idx := make(map[string]domain.ItemRow, len(table.Rows))

	itemCol, costCol, rrpCol := 0, 1, 2
	if c := table.Column("Item"); c >= 0 {
		itemCol = c
	}
	if c := table.Column("Material Cost"); c >= 0 {
		costCol = c
	}
	if c := table.Column("RRP"); c >= 0 {
		rrpCol = c
	}

	for _, row := range table.Rows {
		item := strings.TrimSpace(table.Cell(row, itemCol))
		if item == "" {
			continue
		}
		if _, exists := idx[item]; exists {
			continue
		}
		idx[item] = domain.ItemRow{
			Item:         item,
			MaterialCost: table.Cell(row, costCol),
			RRP:          table.Cell(row, rrpCol),
		}
	}

	return idx
}

// BuildSnapshot runs the full reconciliation pass over one fetched source
// set and returns an immutable snapshot. The source tables are never
// mutated; every filter or aggregate downstream derives from the snapshot.
func (p *Processor) BuildSnapshot(ctx context.Context, src *sheets.SourceSet) (*Snapshot, error) {
	staff := newStaffIndex(&src.Staff)
	items := newItemIndex(&src.Items)

	engines, err := p.reconcileEngines(ctx, &src.Transactions, items, staff)
	if err != nil {
		return nil, err
	}

	mods := p.reconcileMods(ctx, &src.Logs, staff)

	snap := newSnapshot(engines, mods, len(src.Staff.Rows), len(src.Customers.Rows))

	p.logger.InfoContext(ctx, "built ledger snapshot",
		slog.String("snapshot_id", snap.ID),
		slog.Int("engine_records", len(engines)),
		slog.Int("mod_records", len(mods)),
	)

	return snap, nil
}

// reconcileEngines joins each engine sale against the item catalog (for
// cost and price) and the staff reference (display-name validation). Every
// fact row survives: an unmatched item yields zero sales/cost/profit
// rather than dropping the transaction.
func (p *Processor) reconcileEngines(ctx context.Context, table *sheets.Table, items map[string]domain.ItemRow, staff *staffIndex) ([]domain.LedgerRecord, error) {
	tsCol := table.Column("Timestamp")
	itemCol := table.Column("Item")
	staffCol := table.Column("Staff Name")
	if tsCol < 0 || itemCol < 0 || staffCol < 0 {
		return nil, fmt.Errorf("transactions table missing required columns, got headers %v", table.Headers)
	}

	records := make([]domain.LedgerRecord, 0, len(table.Rows))
	unknownItems := 0
	unknownStaff := 0

	for _, row := range table.Rows {
		rec := domain.LedgerRecord{
			Timestamp: p.parseEngineTimestamp(table.Cell(row, tsCol)),
			StaffName: NormalizeStaff(table.Cell(row, staffCol)),
			Item:      strings.TrimSpace(table.Cell(row, itemCol)),
			Type:      domain.TypeEngines,
		}

		if ref, ok := items[rec.Item]; ok {
			rec.Sales = p.currencyOrZero(ctx, "rrp", ref.RRP)
			rec.MaterialCost = p.currencyOrZero(ctx, "material_cost", ref.MaterialCost)
			rec.Profit = rec.Sales - rec.MaterialCost
		} else {
			unknownItems++
		}

		// Display-name join back onto the staff reference; keys already
		// match so this only detects names absent from the reference.
		if _, ok := staff.byStaffName[rec.StaffName]; !ok && rec.StaffName != domain.BlankStaff {
			unknownStaff++
		}

		records = append(records, rec)
	}

	if unknownItems > 0 {
		p.logger.WarnContext(ctx, "engine sales reference items missing from catalog",
			slog.Int("count", unknownItems))
	}
	if unknownStaff > 0 {
		p.logger.DebugContext(ctx, "engine sales carry staff names missing from reference",
			slog.Int("count", unknownStaff))
	}

	return records, nil
}

// reconcileMods resolves each mod log's mechanic handle to a canonical
// staff name and renames the log fields into the unified shape.
func (p *Processor) reconcileMods(ctx context.Context, table *sheets.Table, staff *staffIndex) []domain.LedgerRecord {
	tsCol := table.Column("Timestamp_Logs")
	playerCol := table.Column("Player")
	serviceCol := table.Column("Service")
	priceCol := table.Column("Price")
	mechanicCol := table.Column("Mechanic")

	records := make([]domain.LedgerRecord, 0, len(table.Rows))

	for _, row := range table.Rows {
		staffName := domain.BlankStaff
		if ref, ok := staff.byDiscordName[strings.TrimSpace(table.Cell(row, mechanicCol))]; ok {
			staffName = NormalizeStaff(ref.StaffName)
		}

		sales := p.currencyOrZero(ctx, "price", table.Cell(row, priceCol))

		records = append(records, domain.LedgerRecord{
			Timestamp:    p.parseLogTimestamp(table.Cell(row, tsCol)),
			StaffName:    staffName,
			Item:         strings.TrimSpace(table.Cell(row, serviceCol)),
			CustomerName: strings.TrimSpace(table.Cell(row, playerCol)),
			Sales:        sales,
			MaterialCost: sales * ModCostRate,
			Profit:       sales * ModProfitRate,
			Type:         domain.TypeMods,
		})
	}

	return records
}

// currencyOrZero parses a currency cell, logging and defaulting to 0 on
// failure so one bad cell never fails the row.
func (p *Processor) currencyOrZero(ctx context.Context, field, value string) float64 {
	v, err := ParseCurrency(value)
	if err != nil {
		p.logger.WarnContext(ctx, "currency parse failed, defaulting to 0",
			slog.String("field", field),
			slog.String("value", value))
		return 0
	}
	return v
}
