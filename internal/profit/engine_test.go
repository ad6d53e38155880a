package profit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplens/shoplens-cli/internal/model"
)

func datasetOneProduct(p model.ProductRecord) *model.Dataset {
	d := &model.Dataset{Products: []model.ProductRecord{p}}
	d.Resummarize()
	return d
}

func TestComputeUnifiedSingleVariant(t *testing.T) {
	d := datasetOneProduct(model.ProductRecord{
		Name: "Tee", Variant: "Default", TotalQuantity: 4, TotalRevenue: 100,
		OriginalVariants: []string{"Tee - Default"},
	})
	s := model.DefaultSettings()
	s.SetCost("Tee", 10)

	report := Compute(d, s)

	require.Len(t, report.Products, 1)
	p := report.Products[0]
	assert.InDelta(t, 10, p.Cost, 0.001)
	assert.InDelta(t, 40, p.TotalCost, 0.001)
	assert.InDelta(t, 60, p.Profit, 0.001)
	assert.InDelta(t, 60, p.ProfitMargin, 0.001)
	assert.InDelta(t, 60, report.TotalProfit, 0.001)
}

func TestComputeMissingCostDefaultsToZero(t *testing.T) {
	d := datasetOneProduct(model.ProductRecord{
		Name: "Tee", Variant: "Default", TotalQuantity: 2, TotalRevenue: 50,
	})

	report := Compute(d, model.DefaultSettings())

	p := report.Products[0]
	assert.InDelta(t, 0, p.Cost, 0.001)
	assert.InDelta(t, 50, p.Profit, 0.001)
	assert.InDelta(t, 100, p.ProfitMargin, 0.001)
}

func TestComputeUnifiedBlendsOverrides(t *testing.T) {
	// 6 units across 2 variants: even split of 3 each. Base cost 10,
	// override 16 for the XL share: total cost 3*10 + 3*16 = 78.
	d := datasetOneProduct(model.ProductRecord{
		Name: "Hoodie", Variant: "Default", TotalQuantity: 6, TotalRevenue: 300,
		OriginalVariants: []string{"Hoodie - M", "Hoodie - XL"},
	})
	s := model.DefaultSettings()
	s.SetCost("Hoodie", 10)
	s.SetSizeOverride("Hoodie", "Hoodie - XL", 16)

	report := Compute(d, s)

	p := report.Products[0]
	assert.InDelta(t, 78, p.TotalCost, 0.001)
	assert.InDelta(t, 13, p.Cost, 0.001)
	assert.InDelta(t, 222, p.Profit, 0.001)
}

func TestComputeUnifiedNoOverridesSkipsBlend(t *testing.T) {
	d := datasetOneProduct(model.ProductRecord{
		Name: "Hoodie", Variant: "Default", TotalQuantity: 6, TotalRevenue: 300,
		OriginalVariants: []string{"Hoodie - M", "Hoodie - XL"},
	})
	s := model.DefaultSettings()
	s.SetCost("Hoodie", 10)

	report := Compute(d, s)
	assert.InDelta(t, 60, report.Products[0].TotalCost, 0.001)
}

func TestComputePerSizeMode(t *testing.T) {
	d := &model.Dataset{Products: []model.ProductRecord{
		{Name: "Shirt", Variant: "Default", TotalQuantity: 2, TotalRevenue: 60},
		{Name: "Scarf", Variant: "Wool", TotalQuantity: 1, TotalRevenue: 40},
	}}
	d.Resummarize()

	s := model.DefaultSettings()
	s.SizeCostingEnabled = true
	// Per-variant key first, bare name as fallback.
	s.SetCost("Scarf - Wool", 15)
	s.SetCost("Shirt", 12)

	report := Compute(d, s)

	assert.InDelta(t, 24, report.Products[0].TotalCost, 0.001)
	assert.InDelta(t, 15, report.Products[1].TotalCost, 0.001)
}

func TestComputePerSizeMissingCostDefaultsToZero(t *testing.T) {
	d := datasetOneProduct(model.ProductRecord{
		Name: "Beanie", Variant: "Default", TotalQuantity: 3, TotalRevenue: 45,
	})
	s := model.DefaultSettings()
	s.SizeCostingEnabled = true

	report := Compute(d, s)

	p := report.Products[0]
	assert.InDelta(t, 0, p.Cost, 0.001)
	assert.InDelta(t, 0, p.TotalCost, 0.001)
	assert.InDelta(t, 45, p.Profit, 0.001)
	assert.InDelta(t, 100, p.ProfitMargin, 0.001)
}

func TestComputeZeroRevenueMarginGuard(t *testing.T) {
	d := datasetOneProduct(model.ProductRecord{
		Name: "Freebie", Variant: "Default", TotalQuantity: 3, TotalRevenue: 0,
	})
	s := model.DefaultSettings()
	s.SetCost("Freebie", 2)

	report := Compute(d, s)

	p := report.Products[0]
	assert.InDelta(t, -6, p.Profit, 0.001)
	assert.InDelta(t, 0, p.ProfitMargin, 0.001)
}

func TestComputeNilInputs(t *testing.T) {
	report := Compute(nil, nil)
	assert.NotNil(t, report)
	assert.Empty(t, report.Products)

	d := datasetOneProduct(model.ProductRecord{Name: "Tee", Variant: "Default", TotalQuantity: 1, TotalRevenue: 10})
	report = Compute(d, nil)
	assert.InDelta(t, 10, report.TotalProfit, 0.001)
}

func TestNegativeCostClampsToZero(t *testing.T) {
	s := model.DefaultSettings()
	s.SetCost("Tee", -5)
	assert.InDelta(t, 0, s.CostFor("Tee"), 0.001)
}
