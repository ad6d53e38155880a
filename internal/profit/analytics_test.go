package profit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplens/shoplens-cli/internal/model"
)

func analyticsDataset() *model.Dataset {
	d := &model.Dataset{
		Orders: []model.OrderRecord{
			{ID: "#1", Total: 100, Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), // Monday
				Items: []model.OrderItem{{Product: "Tee", Variant: "M", Quantity: 2, Price: 50}}},
			{ID: "#2", Total: 60, Date: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), // Monday
				Items: []model.OrderItem{{Product: "Tee", Variant: "L", Quantity: 1, Price: 60}}},
			{ID: "#3", Total: 40, Date: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), // Tuesday
				Items: []model.OrderItem{{Product: "Cap", Variant: "One Size", Quantity: 1, Price: 40}}},
		},
		Products: []model.ProductRecord{
			{Name: "Tee", Variant: "Default", TotalQuantity: 3, TotalRevenue: 160},
			{Name: "Cap", Variant: "Default", TotalQuantity: 1, TotalRevenue: 40},
		},
	}
	d.Resummarize()
	return d
}

func TestAnalyzeMonthlyTrend(t *testing.T) {
	in := Analyze(analyticsDataset(), nil)

	require.Len(t, in.MonthlyTrend, 2)
	assert.Equal(t, "2026-01", in.MonthlyTrend[0].Month)
	assert.InDelta(t, 160, in.MonthlyTrend[0].Revenue, 0.001)
	assert.Equal(t, 2, in.MonthlyTrend[0].Orders)
	assert.Equal(t, "2026-02", in.MonthlyTrend[1].Month)
}

func TestAnalyzeAverages(t *testing.T) {
	in := Analyze(analyticsDataset(), nil)

	// 200 revenue over 3 orders; 4 items over 3 orders.
	assert.InDelta(t, 200.0/3, in.AvgOrderValue, 0.001)
	assert.InDelta(t, 4.0/3, in.AvgItemsPerOrder, 0.001)
}

func TestAnalyzeTopPerformers(t *testing.T) {
	s := model.DefaultSettings()
	s.SetCost("Tee", 20)

	in := Analyze(analyticsDataset(), s)

	require.Len(t, in.TopPerformers, 2)
	assert.Equal(t, "Tee", in.TopPerformers[0].Name)
	assert.InDelta(t, 100, in.TopPerformers[0].Profit, 0.001) // 160 - 3*20
	assert.Equal(t, 2, in.ProfitableProducts)
	assert.InDelta(t, 140, in.TotalProfit, 0.001)
}

func TestAnalyzeSizeDistribution(t *testing.T) {
	in := Analyze(analyticsDataset(), nil)

	require.NotEmpty(t, in.TopSizes)
	// "Tee M" x2 units leads.
	assert.Equal(t, "M", in.TopSizes[0].Size)
	assert.Equal(t, 2, in.TopSizes[0].Units)
}

func TestAnalyzeBestDays(t *testing.T) {
	in := Analyze(analyticsDataset(), nil)

	require.Len(t, in.BestDays, 3)
	assert.Equal(t, "Mon", in.BestDays[0].Day)
	assert.InDelta(t, 160, in.BestDays[0].Revenue, 0.001)
	assert.Equal(t, "Tue", in.BestDays[1].Day)
}

func TestAnalyzeEmptyDataset(t *testing.T) {
	in := Analyze(&model.Dataset{}, nil)

	assert.Empty(t, in.MonthlyTrend)
	assert.InDelta(t, 0, in.AvgOrderValue, 0.001)
	assert.Empty(t, in.TopPerformers)
}

func TestAnalyzeNilDataset(t *testing.T) {
	assert.NotNil(t, Analyze(nil, nil))
}

func TestClassifySize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tee XL", "XL"},
		{"Tee M", "M"},
		{"Shoe Size 42", "Size 42"},
		{"Shoe Size 9", "Size 9"},
		{"Cap One Size", "One Size"},
		{"Mystery Thing", "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifySize(tt.in), "input %q", tt.in)
	}
}
