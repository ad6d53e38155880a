package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/shoplens/shoplens-cli/internal/model"
)

// Stats counts per-row outcomes of one ingest. Skips are expected within a
// structurally valid file and surfaced in aggregate, never per row.
type Stats struct {
	Rows              int `json:"rows"`
	Processed         int `json:"processed"`
	SkippedDuplicates int `json:"skipped_duplicates"`
	SkippedMissing    int `json:"skipped_missing"`
}

// Skipped is the total number of rows dropped as duplicates or for missing
// required values.
func (s Stats) Skipped() int {
	return s.SkippedDuplicates + s.SkippedMissing
}

// Result is the outcome of a structurally valid ingest.
type Result struct {
	Dataset *model.Dataset
	Schema  Schema
	Stats   Stats
}

// NoRows reports whether validation passed but every row was filtered out.
// Callers present this differently from a validation failure: the empty
// dataset is usable, the user just needs to know nothing came out of the
// file.
func (r *Result) NoRows() bool {
	return r.Stats.Processed == 0
}

// Options tunes an ingest run.
type Options struct {
	// Now is the ingestion timestamp used when rows carry no parseable
	// date. Zero means time.Now().
	Now time.Time
}

// File ingests a CSV file from disk. Non-.csv paths are rejected before any
// bytes are read.
func File(path string, opts Options) (*Result, error) {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return nil, formatRejected("not a CSV file: "+filepath.Base(path), nil)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open file")
	}
	defer f.Close()
	return Ingest(f, opts)
}

// Ingest parses and aggregates one order-export CSV. It is all-or-nothing
// with respect to structural validity: a parser or schema error aggregates
// nothing, while per-row skips within a valid file are counted in Stats.
func Ingest(r io.Reader, opts Options) (*Result, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, formatRejected("CSV parse error", err)
	}

	headers, rows := splitHeader(records)
	if headers == nil {
		return nil, formatRejected("file contains no header row", nil)
	}

	schema, err := Detect(headers)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("schema resolved",
		zap.Int("fields", len(schema)),
		zap.Strings("headers", headers),
	)

	result := &Result{Schema: schema}
	result.Dataset, result.Stats = fold(headers, rows, schema, now)
	return result, nil
}

// splitHeader returns the first non-empty record as the header row, with a
// BOM stripped from the first cell, and the remaining records as data rows.
func splitHeader(records [][]string) ([]string, [][]string) {
	for i, record := range records {
		if isBlank(record) {
			continue
		}
		headers := make([]string, len(record))
		for j, h := range record {
			if j == 0 {
				h = strings.TrimPrefix(h, "\ufeff")
			}
			headers[j] = strings.TrimSpace(h)
		}
		return headers, records[i+1:]
	}
	return nil, nil
}

// fold runs the normalize/aggregate pipeline over the data rows. Orders and
// products are kept in insertion order; the seen-sets for duplicate rows and
// per-product order membership live only for the duration of the fold.
func fold(headers []string, rows [][]string, schema Schema, now time.Time) (*model.Dataset, Stats) {
	var (
		stats       Stats
		orders      []model.OrderRecord
		orderIdx    = map[string]int{}
		products    []model.ProductRecord
		productIdx  = map[string]int{}
		variantSeen = map[string]map[string]bool{}
		ordersSeen  = map[string]map[string]bool{}
		seenEntries = map[string]bool{}
	)

	for _, record := range rows {
		if isBlank(record) {
			continue
		}
		stats.Rows++

		row := normalizeRow(asMap(headers, record), schema, now)

		// Duplicate suppression runs before the missing-field check so a
		// repeated row is reported as a duplicate, not a second miss.
		key := row.dupKey()
		if seenEntries[key] {
			stats.SkippedDuplicates++
			continue
		}
		seenEntries[key] = true

		if row.OrderID == "" || row.ProductTitle == "" {
			logMissing(row, headers)
			stats.SkippedMissing++
			continue
		}
		stats.Processed++

		// Order fold: first row for an id sets total and date; every row
		// appends its line item.
		i, ok := orderIdx[row.OrderID]
		if !ok {
			i = len(orders)
			orderIdx[row.OrderID] = i
			orders = append(orders, model.OrderRecord{
				ID:    row.OrderID,
				Total: row.Total,
				Date:  row.OrderDate,
			})
		}
		orders[i].Items = append(orders[i].Items, model.OrderItem{
			Product:  row.ProductTitle,
			Variant:  row.Variant,
			Quantity: row.Quantity,
			Price:    row.Price,
		})

		// Product fold: grouped across sizes by the normalized key.
		norm := NormalizeSize(row.ProductTitle, row.Variant)
		groupKey := norm.GroupKey()
		j, ok := productIdx[groupKey]
		if !ok {
			j = len(products)
			productIdx[groupKey] = j
			variantSeen[groupKey] = map[string]bool{}
			ordersSeen[groupKey] = map[string]bool{}
			products = append(products, model.ProductRecord{
				Name:        norm.GroupName,
				Variant:     norm.GroupVariant,
				DisplayName: norm.DisplayName,
			})
		}
		p := &products[j]
		p.TotalQuantity += row.Quantity
		p.TotalRevenue += row.Price * float64(row.Quantity)
		if display := norm.DisplayKey(); !variantSeen[groupKey][display] {
			variantSeen[groupKey][display] = true
			p.OriginalVariants = append(p.OriginalVariants, display)
		}
		if !ordersSeen[groupKey][row.OrderID] {
			ordersSeen[groupKey][row.OrderID] = true
			p.Orders = append(p.Orders, row.OrderID)
		}
	}

	d := &model.Dataset{
		Orders:   orders,
		Products: products,
	}
	d.Resummarize()
	return d, stats
}

func asMap(headers, record []string) map[string]string {
	m := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(record) {
			m[h] = strings.TrimSpace(record[i])
		}
	}
	return m
}

func logMissing(row Row, headers []string) {
	var missing []string
	if row.OrderID == "" {
		missing = append(missing, string(FieldOrderID))
	}
	if row.ProductTitle == "" {
		missing = append(missing, string(FieldProductTitle))
	}
	zap.L().Debug("row skipped: missing required values",
		zap.Strings("missing", missing),
		zap.Strings("headers", headers),
	)
}
