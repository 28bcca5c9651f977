package dataprocessing

import (
	"sort"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"sacdash/pkg/contracts/domain"
)

// TopListSize caps the item-profit and customer tables.
const TopListSize = 10

// NoTimestampPlaceholder is shown in the transactions table for rows whose
// source timestamp could not be parsed.
const NoTimestampPlaceholder = "No Timestamp"

const displayDateFormat = "2006-01-02"
const displayTimeFormat = "2006-01-02 15:04:05"

// Analyzer computes the dashboard aggregates over a filtered working set.
// All methods are pure: they read the records and return new values.
type Analyzer struct {
	printer *message.Printer
}

// NewAnalyzer creates an analyzer with en-locale currency formatting.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		printer: message.NewPrinter(language.English),
	}
}

// FormatCurrency renders a value as a grouped currency string ("$1,234.50").
func (a *Analyzer) FormatCurrency(v float64) string {
	return a.printer.Sprintf("$%.2f", v)
}

// DateBounds returns the min and max calendar date across records that
// carry a timestamp. OK is false when none do.
func (a *Analyzer) DateBounds(records []domain.LedgerRecord) domain.DateBounds {
	var bounds domain.DateBounds
	for i := range records {
		if !records[i].HasTimestamp() {
			continue
		}
		d := records[i].Date()
		if !bounds.OK {
			bounds = domain.DateBounds{Min: d, Max: d, OK: true}
			continue
		}
		if d.Before(bounds.Min) {
			bounds.Min = d
		}
		if d.After(bounds.Max) {
			bounds.Max = d
		}
	}
	return bounds
}

// FilterByDate returns the rows whose calendar date falls within the
// inclusive [start, end] range. Rows without a timestamp fail both
// comparisons and are excluded.
func (a *Analyzer) FilterByDate(records []domain.LedgerRecord, start, end time.Time) []domain.LedgerRecord {
	start = truncateToDate(start)
	end = truncateToDate(end)

	out := make([]domain.LedgerRecord, 0, len(records))
	for i := range records {
		if !records[i].HasTimestamp() {
			continue
		}
		d := records[i].Date()
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, records[i])
	}
	return out
}

// StaffOptions returns the distinct staff names present in the working
// set, sorted ascending. This is the dependent-filter contract: the option
// list offered to the user tracks the selected date range, not the full
// unfiltered universe.
func (a *Analyzer) StaffOptions(records []domain.LedgerRecord) []string {
	seen := make(map[string]struct{})
	for i := range records {
		seen[records[i].StaffName] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Totals sums sales and profit and counts rows.
func (a *Analyzer) Totals(records []domain.LedgerRecord) domain.Totals {
	t := domain.Totals{Transactions: len(records)}
	for i := range records {
		t.Sales += records[i].Sales
		t.Profit += records[i].Profit
	}
	return t
}

// TopSeller returns the staff member with the highest summed sales. Ties
// break to the lexicographically smallest name; an empty working set
// yields "N/A" with 0 sales.
func (a *Analyzer) TopSeller(records []domain.LedgerRecord) domain.TopSeller {
	if len(records) == 0 {
		return domain.TopSeller{Name: "N/A"}
	}

	sums := make(map[string]float64)
	for i := range records {
		sums[records[i].StaffName] += records[i].Sales
	}

	top := domain.TopSeller{}
	for name, sales := range sums {
		if top.Name == "" || sales > top.Sales || (sales == top.Sales && name < top.Name) {
			top = domain.TopSeller{Name: name, Sales: sales}
		}
	}
	return top
}

// Composition returns each type's percentage share of total sales, both 0
// when total sales is 0.
func (a *Analyzer) Composition(records []domain.LedgerRecord) domain.Composition {
	var total, engines, mods float64
	for i := range records {
		total += records[i].Sales
		if records[i].Type == domain.TypeEngines {
			engines += records[i].Sales
		} else {
			mods += records[i].Sales
		}
	}

	if total == 0 {
		return domain.Composition{}
	}
	return domain.Composition{
		EnginesPct: engines / total * 100,
		ModsPct:    mods / total * 100,
	}
}

// SalesByDate sums sales per calendar date, ascending.
func (a *Analyzer) SalesByDate(records []domain.LedgerRecord) []domain.TimeSeriesPoint {
	sums := make(map[string]float64)
	for i := range records {
		if !records[i].HasTimestamp() {
			continue
		}
		sums[records[i].Timestamp.Format(displayDateFormat)] += records[i].Sales
	}

	points := make([]domain.TimeSeriesPoint, 0, len(sums))
	for date, sales := range sums {
		points = append(points, domain.TimeSeriesPoint{Date: date, Sales: sales})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})
	return points
}

// StaffSalesPay sums sales and derived pay per staff member. Pay is 30% of
// sales on engine rows and 10% on mod rows. Sorted by sales descending,
// name ascending on ties.
func (a *Analyzer) StaffSalesPay(records []domain.LedgerRecord) []domain.StaffPay {
	sums := make(map[string]*domain.StaffPay)
	for i := range records {
		r := &records[i]
		entry, ok := sums[r.StaffName]
		if !ok {
			entry = &domain.StaffPay{StaffName: r.StaffName}
			sums[r.StaffName] = entry
		}
		entry.Sales += r.Sales
		if r.Type == domain.TypeEngines {
			entry.Pay += r.Sales * EnginePayRate
		} else {
			entry.Pay += r.Sales * ModPayRate
		}
	}

	out := make([]domain.StaffPay, 0, len(sums))
	for _, entry := range sums {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sales != out[j].Sales {
			return out[i].Sales > out[j].Sales
		}
		return out[i].StaffName < out[j].StaffName
	})
	return out
}

// ProfitByItem sums profit and sales per item, collapsing all mod services
// into a single "Mods" bucket, and keeps the top entries by absolute
// profit magnitude with the sign preserved.
func (a *Analyzer) ProfitByItem(records []domain.LedgerRecord, limit int) []domain.ItemProfit {
	sums := make(map[string]*domain.ItemProfit)
	for i := range records {
		r := &records[i]
		key := r.Item
		if r.Type == domain.TypeMods {
			key = string(domain.TypeMods)
		}
		entry, ok := sums[key]
		if !ok {
			entry = &domain.ItemProfit{Item: key}
			sums[key] = entry
		}
		entry.Profit += r.Profit
		entry.Sales += r.Sales
	}

	out := make([]domain.ItemProfit, 0, len(sums))
	for _, entry := range sums {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := abs(out[i].Profit), abs(out[j].Profit)
		if pi != pj {
			return pi > pj
		}
		return out[i].Item < out[j].Item
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopCustomers sums sales per customer, descending, capped at limit.
// Rows without a customer name (engine sales) are excluded.
func (a *Analyzer) TopCustomers(records []domain.LedgerRecord, limit int) []domain.CustomerSales {
	sums := make(map[string]float64)
	for i := range records {
		if records[i].CustomerName == "" {
			continue
		}
		sums[records[i].CustomerName] += records[i].Sales
	}

	out := make([]domain.CustomerSales, 0, len(sums))
	for name, sales := range sums {
		out = append(out, domain.CustomerSales{CustomerName: name, Sales: sales})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sales != out[j].Sales {
			return out[i].Sales > out[j].Sales
		}
		return out[i].CustomerName < out[j].CustomerName
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// StaffActivityCounts counts distinct active calendar dates and distinct
// (date,hour) buckets per staff member. Sorted by active days descending,
// name ascending on ties.
func (a *Analyzer) StaffActivityCounts(records []domain.LedgerRecord) []domain.StaffActivity {
	days := make(map[string]map[string]struct{})
	hours := make(map[string]map[string]struct{})

	for i := range records {
		r := &records[i]
		if days[r.StaffName] == nil {
			days[r.StaffName] = make(map[string]struct{})
			hours[r.StaffName] = make(map[string]struct{})
		}
		if !r.HasTimestamp() {
			continue
		}
		days[r.StaffName][r.Timestamp.Format(displayDateFormat)] = struct{}{}
		hours[r.StaffName][r.Timestamp.Format("2006-01-02 15")] = struct{}{}
	}

	out := make([]domain.StaffActivity, 0, len(days))
	for name, dates := range days {
		out = append(out, domain.StaffActivity{
			StaffName:   name,
			ActiveDays:  len(dates),
			ActiveHours: len(hours[name]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ActiveDays != out[j].ActiveDays {
			return out[i].ActiveDays > out[j].ActiveDays
		}
		return out[i].StaffName < out[j].StaffName
	})
	return out
}

// DisplayTable renders the working set as the pre-formatted transactions
// table, most recent first with rows lacking a timestamp last.
func (a *Analyzer) DisplayTable(records []domain.LedgerRecord) []domain.DisplayRow {
	sorted := make([]domain.LedgerRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].HasTimestamp() != sorted[j].HasTimestamp() {
			return sorted[i].HasTimestamp()
		}
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	rows := make([]domain.DisplayRow, 0, len(sorted))
	for i := range sorted {
		r := &sorted[i]
		ts := NoTimestampPlaceholder
		if r.HasTimestamp() {
			ts = r.Timestamp.Format(displayTimeFormat)
		}
		rows = append(rows, domain.DisplayRow{
			Timestamp:    ts,
			StaffName:    r.StaffName,
			Item:         r.Item,
			CustomerName: r.CustomerName,
			Sales:        a.FormatCurrency(r.Sales),
			Type:         r.Type,
		})
	}
	return rows
}

// BuildDashboard runs the filter engine and every aggregation over one
// snapshot, returning the complete payload for the presentation layer.
//
// Date bounds default to the extent of the type-filtered ledger, and the
// staff option list is derived from the date-ranged working set. The staff
// selection itself is echoed back but does not gate aggregation; only the
// view and date range do.
func (a *Analyzer) BuildDashboard(snap *Snapshot, opts domain.FilterOptions) domain.Dashboard {
	view := opts.View
	if view == "" {
		view = domain.ViewBoth
	}

	combined := snap.Combined(view)
	bounds := a.DateBounds(combined)

	start, end := opts.Start, opts.End
	if start.IsZero() && bounds.OK {
		start = bounds.Min
	}
	if end.IsZero() && bounds.OK {
		end = bounds.Max
	}

	var working []domain.LedgerRecord
	if !start.IsZero() && !end.IsZero() {
		working = a.FilterByDate(combined, start, end)
	}

	dash := domain.Dashboard{
		View:         view,
		Bounds:       bounds,
		StaffOptions: a.StaffOptions(working),
		Selected:     opts.Staff,
		Totals:       a.Totals(working),
		TopSeller:    a.TopSeller(working),
		Composition:  a.Composition(working),
		SalesByDate:  a.SalesByDate(working),
		StaffPay:     a.StaffSalesPay(working),
		ItemProfit:   a.ProfitByItem(working, TopListSize),
		TopCustomers: a.TopCustomers(working, TopListSize),
		Activity:     a.StaffActivityCounts(working),
		Transactions: a.DisplayTable(working),
	}
	if !start.IsZero() {
		dash.Start = truncateToDate(start).Format(displayDateFormat)
	}
	if !end.IsZero() {
		dash.End = truncateToDate(end).Format(displayDateFormat)
	}
	return dash
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
