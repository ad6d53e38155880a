// Package profit computes cost, profit, and margin views over an aggregated
// dataset. Missing cost entries always resolve to a 0 cost; the engine never
// fails on settings gaps.
package profit

import (
	"github.com/shoplens/shoplens-cli/internal/model"
)

// ProductProfit is a product row annotated with its costing outcome.
type ProductProfit struct {
	model.ProductRecord
	Cost         float64 `json:"cost"`
	TotalCost    float64 `json:"totalCost"`
	Profit       float64 `json:"profit"`
	ProfitMargin float64 `json:"profitMargin"`
}

// Report is the dataset-wide profit view.
type Report struct {
	TotalProfit float64         `json:"totalProfit"`
	Products    []ProductProfit `json:"products"`
}

// Compute derives the profit view for a dataset under the given settings.
//
// Two mutually exclusive strategies: with SizeCostingEnabled each product
// row is costed directly from its own entry; otherwise one unified cost per
// product name applies, optionally blended with per-variant overrides by
// splitting the quantity evenly across the original variants.
func Compute(d *model.Dataset, s *model.Settings) *Report {
	report := &Report{}
	if d == nil {
		return report
	}
	if s == nil {
		s = model.DefaultSettings()
	}

	for _, p := range d.Products {
		var pp ProductProfit
		pp.ProductRecord = p

		if s.SizeCostingEnabled {
			pp.Cost = perSizeCost(p, s)
			pp.TotalCost = pp.Cost * float64(p.TotalQuantity)
		} else {
			pp.Cost, pp.TotalCost = unifiedCost(p, s)
		}

		pp.Profit = p.TotalRevenue - pp.TotalCost
		if p.TotalRevenue > 0 {
			pp.ProfitMargin = pp.Profit / p.TotalRevenue * 100
		}

		report.TotalProfit += pp.Profit
		report.Products = append(report.Products, pp)
	}
	return report
}

// perSizeCost resolves the unit cost for one size row: the per-variant key
// first, then the bare product name.
func perSizeCost(p model.ProductRecord, s *model.Settings) float64 {
	if cost, ok := s.CostSettings[p.GroupKey()]; ok {
		return cost
	}
	return s.CostFor(p.Name)
}

// unifiedCost applies one base cost per product name. When the product spans
// several original variants and at least one override exists, the quantity
// is split evenly across the variants — not by each variant's real volume,
// an accepted approximation — and each share is costed at its override or
// the base cost. The unit cost is then the blended average.
func unifiedCost(p model.ProductRecord, s *model.Settings) (cost, totalCost float64) {
	baseCost := s.CostFor(p.Name)
	overrides := s.OverridesFor(p.Name)

	if len(p.OriginalVariants) > 1 && len(overrides) > 0 {
		share := float64(p.TotalQuantity) / float64(len(p.OriginalVariants))
		for _, variant := range p.OriginalVariants {
			variantCost := baseCost
			if c, ok := overrides[variant]; ok {
				variantCost = c
			}
			totalCost += variantCost * share
		}
		if p.TotalQuantity > 0 {
			cost = totalCost / float64(p.TotalQuantity)
		}
		return cost, totalCost
	}

	return baseCost, baseCost * float64(p.TotalQuantity)
}
