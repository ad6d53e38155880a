package dataset

import (
	"fmt"
	"strings"

	"github.com/shoplens/shoplens-cli/internal/ingest"
	"github.com/shoplens/shoplens-cli/internal/model"
)

// CombineMode selects how the products view groups variants.
type CombineMode string

const (
	// CombineNone expands stored groups back into per-variant rows.
	CombineNone CombineMode = "none"
	// CombineBySize keeps the size-grouped rows as aggregated.
	CombineBySize CombineMode = "by-size"
	// CombineByName groups every variant under its product name.
	CombineByName CombineMode = "by-name"
)

// ParseCombineMode validates a combine mode flag value.
func ParseCombineMode(s string) (CombineMode, error) {
	switch CombineMode(s) {
	case CombineNone, CombineBySize, CombineByName:
		return CombineMode(s), nil
	default:
		return "", fmt.Errorf("unknown combine mode: %q (valid: none, by-size, by-name)", s)
	}
}

// Combine reshapes the product table per the requested mode. The dataset is
// not modified.
func Combine(d *model.Dataset, mode CombineMode) []model.ProductRecord {
	switch mode {
	case CombineByName:
		return groupByName(d.Products)
	case CombineNone:
		return expandVariants(d.Products)
	default:
		return append([]model.ProductRecord(nil), d.Products...)
	}
}

// expandVariants splits size-grouped rows back into one row per original
// variant. Individual volumes were not retained, so quantity and revenue are
// split evenly across the variants (remainder to the first) and each row
// gets a proportional share of the order list. This is the accepted
// approximation, mirroring the unified costing split.
func expandVariants(products []model.ProductRecord) []model.ProductRecord {
	var out []model.ProductRecord
	for _, p := range products {
		if len(p.OriginalVariants) <= 1 {
			out = append(out, p)
			continue
		}
		n := len(p.OriginalVariants)
		avgQty := p.TotalQuantity / n
		avgRevenue := p.TotalRevenue / float64(n)
		avgOrders := len(p.Orders) / n

		for i, variantName := range p.OriginalVariants {
			name, variant := splitDisplayKey(variantName, p.Name, i)
			qty := avgQty
			if i == 0 {
				qty += p.TotalQuantity % n
			}
			out = append(out, model.ProductRecord{
				Name:             name,
				Variant:          variant,
				TotalQuantity:    qty,
				TotalRevenue:     avgRevenue,
				Orders:           append([]string(nil), p.Orders[:avgOrders]...),
				OriginalVariants: []string{variantName},
			})
		}
	}
	return out
}

// groupByName folds all variants of a product name into one row.
func groupByName(products []model.ProductRecord) []model.ProductRecord {
	var (
		out []model.ProductRecord
		idx = map[string]int{}
	)
	for _, p := range products {
		i, ok := idx[p.Name]
		if !ok {
			i = len(out)
			idx[p.Name] = i
			out = append(out, model.ProductRecord{
				Name:    p.Name,
				Variant: "All Variants",
			})
		}
		g := &out[i]
		g.TotalQuantity += p.TotalQuantity
		g.TotalRevenue += p.TotalRevenue
		g.Orders = unionStrings(g.Orders, p.Orders)
		if len(p.OriginalVariants) > 0 {
			g.OriginalVariants = unionStrings(g.OriginalVariants, p.OriginalVariants)
		} else {
			g.OriginalVariants = unionStrings(g.OriginalVariants, []string{p.Variant})
		}
	}
	return out
}

// CostingProducts reshapes the product table for the cost-entry view. In
// per-size mode every original variant becomes its own row whose DisplayName
// is the cost key; in unified mode variants regroup under the size-stripped
// base name so one cost covers all sizes.
func CostingProducts(d *model.Dataset, sizeCostingEnabled bool) []model.ProductRecord {
	if sizeCostingEnabled {
		return costingExpand(d.Products)
	}
	return costingUnified(d.Products)
}

func costingExpand(products []model.ProductRecord) []model.ProductRecord {
	var out []model.ProductRecord
	for _, p := range products {
		if len(p.OriginalVariants) <= 1 {
			single := p
			single.DisplayName = p.Name + " - " + p.Variant
			out = append(out, single)
			continue
		}
		n := len(p.OriginalVariants)
		avgQty := p.TotalQuantity / n
		avgRevenue := p.TotalRevenue / float64(n)

		for i, variantName := range p.OriginalVariants {
			name, variant := splitDisplayKey(variantName, p.Name, i)
			qty := avgQty
			if i == 0 {
				qty += p.TotalQuantity % n
			}
			out = append(out, model.ProductRecord{
				Name:             name,
				Variant:          variant,
				DisplayName:      variantName,
				TotalQuantity:    qty,
				TotalRevenue:     avgRevenue,
				Orders:           append([]string(nil), p.Orders...),
				OriginalVariants: []string{variantName},
			})
		}
	}
	return out
}

func costingUnified(products []model.ProductRecord) []model.ProductRecord {
	var (
		out []model.ProductRecord
		idx = map[string]int{}
	)
	for _, p := range products {
		base := ingest.StripSizeTokens(p.Name)
		if base == "" {
			base = p.Name
		}
		i, ok := idx[base]
		if !ok {
			i = len(out)
			idx[base] = i
			out = append(out, model.ProductRecord{
				Name:    base,
				Variant: "All Sizes",
			})
		}
		g := &out[i]
		g.TotalQuantity += p.TotalQuantity
		g.TotalRevenue += p.TotalRevenue
		g.Orders = unionStrings(g.Orders, p.Orders)
		if len(p.OriginalVariants) > 0 {
			g.OriginalVariants = unionStrings(g.OriginalVariants, p.OriginalVariants)
		} else {
			g.OriginalVariants = unionStrings(g.OriginalVariants, []string{p.Name + " - " + p.Variant})
		}
	}
	return out
}

// splitDisplayKey recovers name and variant from a "name - variant" display
// string. The name itself may contain " - ", so the split is on the last
// separator; a key with no separator falls back to the group name and a
// positional variant label.
func splitDisplayKey(displayKey, fallbackName string, index int) (string, string) {
	if i := strings.LastIndex(displayKey, " - "); i > 0 {
		name, variant := displayKey[:i], displayKey[i+len(" - "):]
		if variant != "" {
			return name, variant
		}
	}
	name := fallbackName
	if displayKey != "" {
		name = displayKey
	}
	return name, fmt.Sprintf("Variant %d", index+1)
}
