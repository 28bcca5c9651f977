package exporter

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"sacdash/pkg/contracts/domain"
)

// WriteWorkbook renders every dashboard table as a sheet of one Excel
// workbook and streams it to w.
func WriteWorkbook(ctx context.Context, w io.Writer, dash *domain.Dashboard) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name    string
		headers []string
		rows    [][]string
	}{
		{"Summary", summaryHeaders, summaryRows(dash)},
		{"Sales by Date", []string{"Date", "Sales"}, salesByDateRows(dash)},
		{"Staff Pay", []string{"Staff Name", "Sales", "Pay"}, staffPayRows(dash)},
		{"Item Profit", []string{"Item", "Profit", "Sales"}, itemProfitRows(dash)},
		{"Top Customers", []string{"Customer Name", "Sales"}, customerRows(dash)},
		{"Staff Activity", []string{"Staff Name", "Active Days", "Active Hours"}, activityRows(dash)},
		{"Transactions", transactionHeaders, transactionRows(dash)},
	}

	for i, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return err
		}

		if i == 0 {
			// Reuse the default sheet for the first table
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return fmt.Errorf("failed to rename default sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet.name); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
			}
		}

		if err := writeSheet(f, sheet.name, sheet.headers, sheet.rows); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, headers []string, rows [][]string) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", name, err)
	}

	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, addr, &cells); err != nil {
			return fmt.Errorf("failed to write row of %s: %w", name, err)
		}
	}

	return nil
}
