package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	orders := []OrderRecord{
		{ID: "#1", Total: 50},
		{ID: "#2", Total: 30},
	}
	products := []ProductRecord{
		{Name: "Tee", Variant: "Default", TotalQuantity: 3},
		{Name: "Cap", Variant: "Default", TotalQuantity: 1},
	}

	s := Summarize(orders, products)

	assert.Equal(t, 2, s.TotalOrders)
	assert.Equal(t, 2, s.TotalProducts)
	// Revenue comes from order totals, items from product quantities.
	assert.InDelta(t, 80, s.TotalRevenue, 0.001)
	assert.Equal(t, 4, s.TotalItems)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil)
	assert.Equal(t, Summary{}, s)
}

func TestResummarize(t *testing.T) {
	d := &Dataset{
		Orders:  []OrderRecord{{ID: "#1", Total: 10}},
		Summary: Summary{TotalOrders: 99, TotalRevenue: 9999},
	}
	d.Resummarize()
	assert.Equal(t, 1, d.Summary.TotalOrders)
	assert.InDelta(t, 10, d.Summary.TotalRevenue, 0.001)
}

func TestGroupKey(t *testing.T) {
	p := ProductRecord{Name: "Shirt", Variant: "Default"}
	assert.Equal(t, "Shirt - Default", p.GroupKey())
}
