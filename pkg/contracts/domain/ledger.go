package domain

import (
	"time"
)

// RecordType tags a ledger record with its originating transaction class.
type RecordType string

const (
	// TypeEngines marks a catalog-priced vehicle engine sale.
	TypeEngines RecordType = "Engines"
	// TypeMods marks a directly priced mod/service log entry.
	TypeMods RecordType = "Mods"
)

// BlankStaff is the sentinel staff name applied to records with no
// attributed staff member, so unnamed work groups and filters as a
// first-class bucket instead of being dropped.
const BlankStaff = "Blank"

// LedgerRecord is the unified post-reconciliation transaction shape shared
// by engine sales and mod logs. Timestamp is a naive wall-clock value; a
// zero Timestamp means the source value could not be parsed and the row is
// excluded from date-bounded aggregation.
type LedgerRecord struct {
	Timestamp    time.Time  `json:"timestamp"`
	StaffName    string     `json:"staff_name"`
	Item         string     `json:"item"`
	CustomerName string     `json:"customer_name,omitempty"`
	Sales        float64    `json:"sales"`
	MaterialCost float64    `json:"material_cost"`
	Profit       float64    `json:"profit"`
	Type         RecordType `json:"type"`
}

// HasTimestamp reports whether the record carries a parseable timestamp.
func (r *LedgerRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// Date returns the calendar date portion of the timestamp.
func (r *LedgerRecord) Date() time.Time {
	return time.Date(r.Timestamp.Year(), r.Timestamp.Month(), r.Timestamp.Day(), 0, 0, 0, 0, r.Timestamp.Location())
}

// EngineSaleRow is a raw engine sale as fetched from the transactions
// sheet, before reconciliation against the item catalog and staff table.
type EngineSaleRow struct {
	Timestamp string `json:"timestamp"`
	Item      string `json:"item"`
	StaffName string `json:"staff_name"`
}

// ModLogRow is a raw mod/service log entry. Timestamps originate in UTC;
// Price is currency-formatted text; Mechanic is a Discord handle resolved
// to a canonical staff name during reconciliation.
type ModLogRow struct {
	Timestamp string `json:"timestamp"`
	Player    string `json:"player"`
	Vehicle   string `json:"vehicle"`
	Service   string `json:"service"`
	Price     string `json:"price"`
	Mechanic  string `json:"mechanic"`
}

// ItemRow is one catalog entry mapping an item to its currency-formatted
// material cost and recommended retail price.
type ItemRow struct {
	Item         string `json:"item"`
	MaterialCost string `json:"material_cost"`
	RRP          string `json:"rrp"`
}

// StaffRow maps a Discord handle to a canonical staff display name. The
// source sheet does not guarantee uniqueness on either column.
type StaffRow struct {
	StaffName   string `json:"staff_name"`
	DiscordName string `json:"discord_name"`
}
