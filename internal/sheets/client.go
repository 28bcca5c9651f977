// Package sheets fetches the five source row-tables from the spreadsheet
// service. The default transport is the CSV export endpoint over plain
// HTTP; when an API key is configured the Google Sheets API is used
// instead. Source-specific parsing quirks (header-skip offsets, column
// subsetting, positional header overrides) are applied here so downstream
// packages always see recognized column sets.
package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"sacdash/internal/config"
)

// Table is one fetched row-table with its header.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Column returns the index of the named header, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed-width cell at (row, col), or "" when the row is
// ragged and the column is absent.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// ReadOptions describes the parsing quirks of one source table.
type ReadOptions struct {
	// SkipRows is the number of leading rows discarded before the header.
	SkipRows int
	// UseColumns keeps only the first N columns when > 0.
	UseColumns int
	// Headers overrides the header row positionally. The source header row
	// is still consumed; its text is ignored. When set, only the first
	// len(Headers) columns are kept.
	Headers []string
}

// SourceSet holds the five fetched tables for one snapshot load.
type SourceSet struct {
	Transactions Table
	Items        Table
	Staff        Table
	Customers    Table
	Logs         Table
}

// Client fetches source tables either via CSV export or the Sheets API.
type Client struct {
	cfg    config.SourcesConfig
	logger *slog.Logger
	http   *http.Client
	svc    *sheetsapi.Service
}

// NewClient creates a sheets client. The Sheets API service is only built
// when an API key is configured; otherwise all fetches go through the CSV
// export endpoint.
func NewClient(ctx context.Context, cfg config.SourcesConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "sheets_client")),
		http:   &http.Client{Timeout: cfg.FetchTimeout},
	}

	if cfg.APIKey != "" {
		svc, err := sheetsapi.NewService(ctx, option.WithAPIKey(cfg.APIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets service: %w", err)
		}
		c.svc = svc
	}

	return c, nil
}

// FetchAll fetches the five source tables concurrently and fans in before
// returning. Any single failure aborts the whole load; there is no partial
// result.
func (c *Client) FetchAll(ctx context.Context, pipeline config.PipelineConfig) (*SourceSet, error) {
	start := time.Now()

	var set SourceSet
	g, ctx := errgroup.WithContext(ctx)

	fetch := func(name string, table config.TableConfig, opts ReadOptions, dst *Table) {
		g.Go(func() error {
			t, err := c.fetchTable(ctx, name, table, opts)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", name, err)
			}
			*dst = t
			return nil
		})
	}

	fetch("transactions", c.cfg.Transactions, ReadOptions{}, &set.Transactions)
	fetch("items", c.cfg.Items, ReadOptions{
		Headers: []string{"Item", "Material Cost", "RRP"},
	}, &set.Items)
	fetch("staff", c.cfg.Staff, ReadOptions{
		SkipRows:   pipeline.StaffSkipRows,
		UseColumns: 2,
	}, &set.Staff)
	fetch("customers", c.cfg.Customers, ReadOptions{}, &set.Customers)
	fetch("logs", c.cfg.Logs, ReadOptions{
		Headers: []string{"Timestamp_Logs", "Player", "Vehicle", "Service", "Price", "Mechanic"},
	}, &set.Logs)

	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "fetched all source tables",
		slog.Int("transactions", len(set.Transactions.Rows)),
		slog.Int("items", len(set.Items.Rows)),
		slog.Int("staff", len(set.Staff.Rows)),
		slog.Int("customers", len(set.Customers.Rows)),
		slog.Int("logs", len(set.Logs.Rows)),
		slog.String("duration", time.Since(start).String()),
	)

	return &set, nil
}

// fetchTable fetches one table and applies its read options.
func (c *Client) fetchTable(ctx context.Context, name string, table config.TableConfig, opts ReadOptions) (Table, error) {
	var rows [][]string
	var err error

	if c.svc != nil && table.Range != "" {
		rows, err = c.fetchAPIRows(ctx, table.Range)
	} else {
		rows, err = c.fetchCSVRows(ctx, c.resolveURL(table))
	}
	if err != nil {
		return Table{}, err
	}

	t, err := applyReadOptions(rows, opts)
	if err != nil {
		return Table{}, fmt.Errorf("malformed table: %w", err)
	}

	c.logger.DebugContext(ctx, "fetched source table",
		slog.String("source", name),
		slog.Int("rows", len(t.Rows)))

	return t, nil
}

// resolveURL builds the CSV export URL unless an override is configured.
func (c *Client) resolveURL(table config.TableConfig) string {
	if table.URL != "" {
		return table.URL
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv&gid=%s",
		c.cfg.SpreadsheetID, table.GID)
}

// fetchCSVRows downloads and parses one CSV export.
func (c *Client) fetchCSVRows(ctx context.Context, url string) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// Remove UTF-8 BOM if present
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	return reader.ReadAll()
}

// fetchAPIRows reads one value range through the Sheets API.
func (c *Client) fetchAPIRows(ctx context.Context, valueRange string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, valueRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, fmt.Sprint(v))
		}
		rows = append(rows, cells)
	}

	return rows, nil
}

// applyReadOptions trims leading rows, consumes the header row and applies
// the column subset / header override quirks.
func applyReadOptions(rows [][]string, opts ReadOptions) (Table, error) {
	if opts.SkipRows > 0 {
		if len(rows) <= opts.SkipRows {
			return Table{}, fmt.Errorf("expected data after %d skipped rows, got %d rows", opts.SkipRows, len(rows))
		}
		rows = rows[opts.SkipRows:]
	}

	if len(rows) == 0 {
		return Table{}, fmt.Errorf("table has no header row")
	}

	headers := rows[0]
	data := rows[1:]

	if len(opts.Headers) > 0 {
		headers = opts.Headers
	}
	if opts.UseColumns > 0 && opts.UseColumns < len(headers) {
		headers = headers[:opts.UseColumns]
	}

	width := len(headers)
	trimmed := make([][]string, 0, len(data))
	for _, row := range data {
		if len(row) > width {
			row = row[:width]
		}
		trimmed = append(trimmed, row)
	}

	return Table{Headers: headers, Rows: trimmed}, nil
}
