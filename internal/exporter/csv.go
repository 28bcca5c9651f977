// Package exporter renders the dashboard result tables as CSV files and
// Excel workbooks for the report CLI and the export endpoint.
package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"sacdash/pkg/contracts/domain"
)

// CSVWriter writes result tables under a base directory.
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer rooted at dir.
func NewCSVWriter(dir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{dir: dir, logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteAll writes every dashboard table as its own CSV file.
func (w *CSVWriter) WriteAll(ctx context.Context, dash *domain.Dashboard) error {
	tables := []struct {
		name    string
		headers []string
		rows    [][]string
	}{
		{"summary.csv", summaryHeaders, summaryRows(dash)},
		{"sales_by_date.csv", []string{"Date", "Sales"}, salesByDateRows(dash)},
		{"staff_pay.csv", []string{"Staff Name", "Sales", "Pay"}, staffPayRows(dash)},
		{"item_profit.csv", []string{"Item", "Profit", "Sales"}, itemProfitRows(dash)},
		{"top_customers.csv", []string{"Customer Name", "Sales"}, customerRows(dash)},
		{"staff_activity.csv", []string{"Staff Name", "Active Days", "Active Hours"}, activityRows(dash)},
		{"transactions.csv", transactionHeaders, transactionRows(dash)},
	}

	for _, table := range tables {
		if err := w.writeFile(ctx, table.name, table.headers, table.rows); err != nil {
			return err
		}
	}

	return nil
}

func (w *CSVWriter) writeFile(ctx context.Context, name string, headers []string, rows [][]string) error {
	path := filepath.Join(w.dir, name)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", name, err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row of %s: %w", name, err)
		}
	}

	w.logger.InfoContext(ctx, "wrote export table",
		slog.String("path", path),
		slog.Int("rows", len(rows)))

	return nil
}

var summaryHeaders = []string{"Metric", "Value"}

func summaryRows(dash *domain.Dashboard) [][]string {
	return [][]string{
		{"View", string(dash.View)},
		{"Start", dash.Start},
		{"End", dash.End},
		{"Total Sales", formatFloat(dash.Totals.Sales)},
		{"Transactions", strconv.Itoa(dash.Totals.Transactions)},
		{"Total Profit", formatFloat(dash.Totals.Profit)},
		{"Top Seller", dash.TopSeller.Name},
		{"Top Seller Sales", formatFloat(dash.TopSeller.Sales)},
		{"Engines %", formatFloat(dash.Composition.EnginesPct)},
		{"Mods %", formatFloat(dash.Composition.ModsPct)},
	}
}

func salesByDateRows(dash *domain.Dashboard) [][]string {
	rows := make([][]string, 0, len(dash.SalesByDate))
	for _, p := range dash.SalesByDate {
		rows = append(rows, []string{p.Date, formatFloat(p.Sales)})
	}
	return rows
}

func staffPayRows(dash *domain.Dashboard) [][]string {
	rows := make([][]string, 0, len(dash.StaffPay))
	for _, s := range dash.StaffPay {
		rows = append(rows, []string{s.StaffName, formatFloat(s.Sales), formatFloat(s.Pay)})
	}
	return rows
}

func itemProfitRows(dash *domain.Dashboard) [][]string {
	rows := make([][]string, 0, len(dash.ItemProfit))
	for _, item := range dash.ItemProfit {
		rows = append(rows, []string{item.Item, formatFloat(item.Profit), formatFloat(item.Sales)})
	}
	return rows
}

func customerRows(dash *domain.Dashboard) [][]string {
	rows := make([][]string, 0, len(dash.TopCustomers))
	for _, c := range dash.TopCustomers {
		rows = append(rows, []string{c.CustomerName, formatFloat(c.Sales)})
	}
	return rows
}

func activityRows(dash *domain.Dashboard) [][]string {
	rows := make([][]string, 0, len(dash.Activity))
	for _, a := range dash.Activity {
		rows = append(rows, []string{a.StaffName, strconv.Itoa(a.ActiveDays), strconv.Itoa(a.ActiveHours)})
	}
	return rows
}

var transactionHeaders = []string{"Timestamp", "Staff Name", "Item", "Customer Name", "Sales", "Type"}

func transactionRows(dash *domain.Dashboard) [][]string {
	rows := make([][]string, 0, len(dash.Transactions))
	for _, t := range dash.Transactions {
		rows = append(rows, []string{t.Timestamp, t.StaffName, t.Item, t.CustomerName, t.Sales, string(t.Type)})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
