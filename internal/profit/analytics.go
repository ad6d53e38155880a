package profit

import (
	"regexp"
	"sort"
	"time"

	"github.com/shoplens/shoplens-cli/internal/model"
)

// MonthRevenue is one point of the monthly revenue trend.
type MonthRevenue struct {
	Month   string  `json:"month"` // "2006-01"
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// SizeCount is one bucket of the size distribution.
type SizeCount struct {
	Size  string `json:"size"`
	Units int    `json:"units"`
}

// DayRevenue is revenue attributed to one day of the week.
type DayRevenue struct {
	Day     string  `json:"day"`
	Revenue float64 `json:"revenue"`
}

// Insights is the advanced analytics view over a dataset.
type Insights struct {
	MonthlyTrend       []MonthRevenue  `json:"monthlyTrend"` // last 6 months, ascending
	AvgOrderValue      float64         `json:"avgOrderValue"`
	AvgItemsPerOrder   float64         `json:"avgItemsPerOrder"`
	TopPerformers      []ProductProfit `json:"topPerformers"` // by revenue, top 10
	TopSizes           []SizeCount     `json:"topSizes"`      // top 5
	BestDays           []DayRevenue    `json:"bestDays"`      // top 3
	ProfitableProducts int             `json:"profitableProducts"`
	TotalProfit        float64         `json:"totalProfit"`
	AvgProfitMargin    float64         `json:"avgProfitMargin"`
}

// Size matching for the distribution view is broader than the grouping
// normalizer: it also recognizes combined sizes, small numeric sizes, and
// one-size labels.
var (
	apparelSize = regexp.MustCompile(`(?i)\b(XXS|XS|XS/S|S|S/M|M|M/L|L|L/XL|XL|XXL|XXXL|2XL|3XL|4XL|5XL|\d+XL)\b`)
	numericSize = regexp.MustCompile(`(?i)\b(size\s*)?(\d{1,2})\b`)
	oneSize     = regexp.MustCompile(`(?i)\b(one\s*size|OS|OSFA|free\s*size)\b`)
)

// Analyze computes the advanced analytics view. Costing here uses the plain
// per-name cost entry, matching the overview's simpler model rather than the
// full blending engine.
func Analyze(d *model.Dataset, s *model.Settings) *Insights {
	if d == nil {
		return &Insights{}
	}
	if s == nil {
		s = model.DefaultSettings()
	}

	in := &Insights{
		MonthlyTrend: monthlyTrend(d.Orders),
		TopSizes:     sizeDistribution(d.Orders),
		BestDays:     bestDays(d.Orders),
	}

	if n := len(d.Orders); n > 0 {
		in.AvgOrderValue = d.Summary.TotalRevenue / float64(n)
		var items int
		for _, o := range d.Orders {
			for _, item := range o.Items {
				items += item.Quantity
			}
		}
		in.AvgItemsPerOrder = float64(items) / float64(n)
	}

	performers := make([]ProductProfit, 0, len(d.Products))
	var marginSum float64
	for _, p := range d.Products {
		cost := s.CostFor(p.Name)
		pp := ProductProfit{ProductRecord: p, Cost: cost}
		pp.TotalCost = cost * float64(p.TotalQuantity)
		pp.Profit = p.TotalRevenue - pp.TotalCost
		if p.TotalRevenue > 0 {
			pp.ProfitMargin = pp.Profit / p.TotalRevenue * 100
		}
		if pp.Profit > 0 {
			in.ProfitableProducts++
		}
		in.TotalProfit += pp.Profit
		marginSum += pp.ProfitMargin
		performers = append(performers, pp)
	}
	if len(performers) > 0 {
		in.AvgProfitMargin = marginSum / float64(len(performers))
	}
	sort.SliceStable(performers, func(i, j int) bool {
		return performers[i].TotalRevenue > performers[j].TotalRevenue
	})
	if len(performers) > 10 {
		performers = performers[:10]
	}
	in.TopPerformers = performers

	return in
}

func monthlyTrend(orders []model.OrderRecord) []MonthRevenue {
	byMonth := map[string]*MonthRevenue{}
	for _, o := range orders {
		key := o.Date.Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = &MonthRevenue{Month: key}
			byMonth[key] = m
		}
		m.Revenue += o.Total
		m.Orders++
	}

	trend := make([]MonthRevenue, 0, len(byMonth))
	for _, m := range byMonth {
		trend = append(trend, *m)
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Month < trend[j].Month })
	if len(trend) > 6 {
		trend = trend[len(trend)-6:]
	}
	return trend
}

func sizeDistribution(orders []model.OrderRecord) []SizeCount {
	counts := map[string]int{}
	var seen []string
	add := func(size string, units int) {
		if _, ok := counts[size]; !ok {
			seen = append(seen, size)
		}
		counts[size] += units
	}

	for _, o := range orders {
		for _, item := range o.Items {
			add(classifySize(item.Product+" "+item.Variant), item.Quantity)
		}
	}

	dist := make([]SizeCount, 0, len(seen))
	for _, size := range seen {
		dist = append(dist, SizeCount{Size: size, Units: counts[size]})
	}
	sort.SliceStable(dist, func(i, j int) bool { return dist[i].Units > dist[j].Units })
	if len(dist) > 5 {
		dist = dist[:5]
	}
	return dist
}

func classifySize(text string) string {
	if m := apparelSize.FindString(text); m != "" {
		return m
	}
	if m := numericSize.FindStringSubmatch(text); m != nil {
		return "Size " + m[2]
	}
	if oneSize.MatchString(text) {
		return "One Size"
	}
	return "Unknown"
}

func bestDays(orders []model.OrderRecord) []DayRevenue {
	var revenue [7]float64
	for _, o := range orders {
		revenue[int(o.Date.Weekday())] += o.Total
	}

	days := make([]DayRevenue, 7)
	for i := range days {
		days[i] = DayRevenue{Day: time.Weekday(i).String()[:3], Revenue: revenue[i]}
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Revenue > days[j].Revenue })
	return days[:3]
}
