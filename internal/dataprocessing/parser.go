package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sacdash/pkg/contracts/domain"
)

// currencyReplacer strips the formatting characters the spreadsheet puts
// into money cells ("$1,234.50").
var currencyReplacer = strings.NewReplacer("$", "", ",", "", " ", "")

// ParseCurrency converts a currency-formatted cell to a float.
func ParseCurrency(value string) (float64, error) {
	cleaned := strings.TrimSpace(currencyReplacer.Replace(value))
	if cleaned == "" {
		return 0, fmt.Errorf("empty currency value")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable currency value %q", value)
	}
	return v, nil
}

// NormalizeStaff applies the sentinel for missing staff names so unnamed
// work stays a groupable bucket.
func NormalizeStaff(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.BlankStaff
	}
	return name
}

// logTimeLayouts are the timestamp shapes observed in the mod log sheet.
// Layouts without a zone are interpreted as UTC.
var logTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04:05",
}

// parseEngineTimestamp parses an engine sale timestamp as naive local
// time. Unparseable values yield the zero time; the row is kept and falls
// out of date-bounded aggregation naturally.
func (p *Processor) parseEngineTimestamp(value string) time.Time {
	t, err := time.Parse(p.engineFormat, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseLogTimestamp parses a mod log timestamp as UTC, converts it to the
// configured local timezone and strips the zone annotation, leaving a
// naive wall-clock value directly comparable to engine timestamps.
func (p *Processor) parseLogTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)

	var parsed time.Time
	var ok bool
	for _, layout := range logTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			parsed, ok = t, true
			break
		}
	}
	if !ok {
		return time.Time{}
	}

	local := parsed.In(p.location)
	return time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), time.UTC)
}
