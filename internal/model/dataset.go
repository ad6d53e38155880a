package model

import "time"

// OrderItem is one line item within an order, with the product and variant
// strings exactly as they appeared in the export.
type OrderItem struct {
	Product  string  `json:"product"`
	Variant  string  `json:"variant"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderRecord is a distinct order keyed by its export identifier. Total and
// Date come verbatim from the first row carrying the order id; later rows for
// the same id only append items.
type OrderRecord struct {
	ID    string      `json:"id"`
	Total float64     `json:"total"`
	Date  time.Time   `json:"date"`
	Items []OrderItem `json:"items"`
}

// ProductRecord aggregates sales for one size-normalized product group.
// Name and Variant are the group identity; DisplayName keeps one concrete
// original title for rendering. OriginalVariants records every
// "display name - display variant" string that contributed, so per-size rows
// can be reconstructed later.
type ProductRecord struct {
	Name             string   `json:"name"`
	Variant          string   `json:"variant"`
	DisplayName      string   `json:"displayName,omitempty"`
	TotalQuantity    int      `json:"totalQuantity"`
	TotalRevenue     float64  `json:"totalRevenue"`
	Orders           []string `json:"orders"`
	OriginalVariants []string `json:"originalVariants,omitempty"`
}

// GroupKey returns the aggregation identity for the product.
func (p ProductRecord) GroupKey() string {
	return p.Name + " - " + p.Variant
}

// Summary is a pure projection over orders and products; it is never mutated
// independently of them.
type Summary struct {
	TotalOrders   int     `json:"totalOrders"`
	TotalProducts int     `json:"totalProducts"`
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalItems    int     `json:"totalItems"`
}

// Dataset is the aggregated view of one or more order exports.
type Dataset struct {
	Orders   []OrderRecord   `json:"orders"`
	Products []ProductRecord `json:"products"`
	Summary  Summary         `json:"summary"`
}

// Summarize computes the summary projection: order count, product count,
// revenue summed over order totals, items summed over product quantities.
func Summarize(orders []OrderRecord, products []ProductRecord) Summary {
	s := Summary{
		TotalOrders:   len(orders),
		TotalProducts: len(products),
	}
	for _, o := range orders {
		s.TotalRevenue += o.Total
	}
	for _, p := range products {
		s.TotalItems += p.TotalQuantity
	}
	return s
}

// Resummarize recomputes the dataset's summary from its orders and products.
func (d *Dataset) Resummarize() {
	d.Summary = Summarize(d.Orders, d.Products)
}
