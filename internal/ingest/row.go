package ingest

import (
	"strconv"
	"strings"
	"time"
)

// DefaultVariant is substituted when a row carries no variant column or the
// size normalizer strips the variant down to nothing.
const DefaultVariant = "Default"

// Row is the canonical tuple extracted from one CSV record.
type Row struct {
	OrderID      string
	ProductTitle string
	Quantity     int
	Price        float64
	Total        float64
	OrderDate    time.Time
	Variant      string
}

// dupKey is the intra-file duplicate-detection key. First occurrence wins.
func (r Row) dupKey() string {
	return r.OrderID + "-" + r.ProductTitle + "-" + r.Variant
}

// dateLayouts are tried in order against the date column. Shopify exports
// use "2006-01-02 15:04:05 -0700"; the rest cover older and app-generated
// variants.
var dateLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// normalizeRow maps one raw record onto the canonical tuple, applying the
// documented coercions and defaults. now is the ingestion timestamp used
// when the date column is absent or unparseable.
func normalizeRow(record map[string]string, schema Schema, now time.Time) Row {
	r := Row{
		OrderID:      record[schema[FieldOrderID]],
		ProductTitle: record[schema[FieldProductTitle]],
		Quantity:     parseQuantity(lookup(record, schema, FieldQuantity)),
		Price:        parsePrice(lookup(record, schema, FieldPrice)),
		Variant:      DefaultVariant,
	}
	r.Total = parseTotal(lookup(record, schema, FieldTotal), r.Price, r.Quantity)
	r.OrderDate = parseDate(lookup(record, schema, FieldDate), now)
	if v := lookup(record, schema, FieldVariant); v != "" {
		r.Variant = v
	}
	return r
}

func lookup(record map[string]string, schema Schema, f Field) string {
	header, ok := schema[f]
	if !ok {
		return ""
	}
	return record[header]
}

// parseQuantity coerces to a positive-or-zero integer, defaulting to 1 when
// the column is absent, blank, or unparseable.
func parseQuantity(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return n
}

// parsePrice coerces to a float, defaulting to 0.
func parsePrice(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// parseTotal coerces the order-level total, falling back to price*quantity
// when the column is blank or unparseable.
func parseTotal(s string, price float64, quantity int) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return price * float64(quantity)
	}
	return f
}

func parseDate(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return now
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return now
}

// isBlank reports whether every cell in the record is empty or whitespace.
// Blank rows are dropped silently before normalization.
func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
