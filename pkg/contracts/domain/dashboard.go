package domain

import (
	"time"
)

// View selects which record types feed the combined ledger.
type View string

const (
	ViewEngines View = "Engines"
	ViewMods    View = "Mods"
	ViewBoth    View = "Both"
)

// Includes reports whether records of the given type belong to the view.
func (v View) Includes(t RecordType) bool {
	switch v {
	case ViewEngines:
		return t == TypeEngines
	case ViewMods:
		return t == TypeMods
	default:
		return true
	}
}

// FilterOptions carries the user-selected view, inclusive calendar date
// range and staff selection. Zero Start/End mean "use the snapshot's date
// bounds for the selected view".
type FilterOptions struct {
	View  View      `json:"view" validate:"required,oneof=Engines Mods Both"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Staff []string  `json:"staff,omitempty"`
}

// Totals holds the headline scalar metrics for the filtered working set.
type Totals struct {
	Sales        float64 `json:"sales"`
	Transactions int     `json:"transactions"`
	Profit       float64 `json:"profit"`
}

// TopSeller identifies the staff member with the highest grouped sales.
// Name is "N/A" when the working set is empty.
type TopSeller struct {
	Name  string  `json:"name"`
	Sales float64 `json:"sales"`
}

// Composition is the percentage share of total sales per record type.
// Both values are 0 when total sales is 0.
type Composition struct {
	EnginesPct float64 `json:"engines_pct"`
	ModsPct    float64 `json:"mods_pct"`
}

// TimeSeriesPoint is total sales for one calendar date.
type TimeSeriesPoint struct {
	Date  string  `json:"date"`
	Sales float64 `json:"sales"`
}

// StaffPay is per-staff sales and derived pay, summed across both record
// types (pay rate differs by type).
type StaffPay struct {
	StaffName string  `json:"staff_name"`
	Sales     float64 `json:"sales"`
	Pay       float64 `json:"pay"`
}

// ItemProfit is summed profit and sales per item, with all mod services
// collapsed into a single "Mods" bucket.
type ItemProfit struct {
	Item   string  `json:"item"`
	Profit float64 `json:"profit"`
	Sales  float64 `json:"sales"`
}

// CustomerSales is summed sales per customer.
type CustomerSales struct {
	CustomerName string  `json:"customer_name"`
	Sales        float64 `json:"sales"`
}

// StaffActivity counts the distinct calendar dates and distinct
// (date,hour) buckets in which a staff member recorded activity.
type StaffActivity struct {
	StaffName   string `json:"staff_name"`
	ActiveDays  int    `json:"active_days"`
	ActiveHours int    `json:"active_hours"`
}

// DisplayRow is one pre-formatted row of the transactions table, most
// recent first. Timestamp is "No Timestamp" when the source value was
// unparseable; Sales carries a grouped currency string.
type DisplayRow struct {
	Timestamp    string     `json:"timestamp"`
	StaffName    string     `json:"staff_name"`
	Item         string     `json:"item"`
	CustomerName string     `json:"customer_name,omitempty"`
	Sales        string     `json:"sales"`
	Type         RecordType `json:"type"`
}

// DateBounds is the min/max calendar date present in a view-filtered
// ledger. OK is false when no record carries a timestamp.
type DateBounds struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
	OK  bool      `json:"ok"`
}

// Dashboard is the complete aggregate payload consumed by the external
// presentation layer.
type Dashboard struct {
	View         View              `json:"view"`
	Start        string            `json:"start"`
	End          string            `json:"end"`
	Bounds       DateBounds        `json:"bounds"`
	StaffOptions []string          `json:"staff_options"`
	Selected     []string          `json:"selected_staff,omitempty"`
	Totals       Totals            `json:"totals"`
	TopSeller    TopSeller         `json:"top_seller"`
	Composition  Composition       `json:"composition"`
	SalesByDate  []TimeSeriesPoint `json:"sales_by_date"`
	StaffPay     []StaffPay        `json:"staff_pay"`
	ItemProfit   []ItemProfit      `json:"item_profit"`
	TopCustomers []CustomerSales   `json:"top_customers"`
	Activity     []StaffActivity   `json:"staff_activity"`
	Transactions []DisplayRow      `json:"transactions"`
}
