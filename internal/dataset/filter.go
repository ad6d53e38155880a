package dataset

import (
	"time"

	"github.com/shoplens/shoplens-cli/internal/model"
)

// FilterByDate returns a dataset reduced to orders created inside the
// inclusive [from, to] range, with to extended to the end of its day. The
// product table is rebuilt from the surviving orders' line items, keyed by
// the literal "product - variant" strings, and the summary is recomputed.
func FilterByDate(d *model.Dataset, from, to time.Time) *model.Dataset {
	end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999999999, to.Location())

	var orders []model.OrderRecord
	for _, o := range d.Orders {
		if !o.Date.Before(from) && !o.Date.After(end) {
			orders = append(orders, o)
		}
	}

	var (
		products   []model.ProductRecord
		productIdx = map[string]int{}
		ordersSeen = map[string]map[string]bool{}
	)
	for _, o := range orders {
		for _, item := range o.Items {
			key := item.Product + " - " + item.Variant
			i, ok := productIdx[key]
			if !ok {
				i = len(products)
				productIdx[key] = i
				ordersSeen[key] = map[string]bool{}
				products = append(products, model.ProductRecord{
					Name:    item.Product,
					Variant: item.Variant,
				})
			}
			p := &products[i]
			p.TotalQuantity += item.Quantity
			p.TotalRevenue += item.Price * float64(item.Quantity)
			if !ordersSeen[key][o.ID] {
				ordersSeen[key][o.ID] = true
				p.Orders = append(p.Orders, o.ID)
			}
		}
	}

	filtered := &model.Dataset{Orders: orders, Products: products}
	filtered.Resummarize()
	return filtered
}
