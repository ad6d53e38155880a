// Package dataset combines and reshapes aggregated datasets: incremental
// merge of new uploads, date-filtered recompute, and the product combine
// modes used by the views.
package dataset

import (
	"go.uber.org/zap"

	"github.com/shoplens/shoplens-cli/internal/model"
)

// MergeStats reports how an incoming dataset contributed to a merge. It is
// derived for the caller's reporting and never stored.
type MergeStats struct {
	NewOrders       int `json:"new_orders"`
	DuplicateOrders int `json:"duplicate_orders"`
}

// Merge combines an existing dataset with a freshly aggregated one.
//
// Orders dedupe by exact id: first-seen-wins across uploads, so an order
// already present keeps its stored record and the incoming one is dropped
// whole — its line items are not merged in. Products combine additively by
// group key, with the order-id list becoming the order-preserving union of
// both sides. The summary is recomputed from the merged data, never carried
// over additively.
func Merge(existing, incoming *model.Dataset) (*model.Dataset, MergeStats) {
	var stats MergeStats

	merged := &model.Dataset{
		Orders:   append([]model.OrderRecord(nil), existing.Orders...),
		Products: append([]model.ProductRecord(nil), existing.Products...),
	}

	seenOrders := make(map[string]bool, len(existing.Orders))
	for _, o := range existing.Orders {
		seenOrders[o.ID] = true
	}
	for _, o := range incoming.Orders {
		if seenOrders[o.ID] {
			stats.DuplicateOrders++
			continue
		}
		seenOrders[o.ID] = true
		merged.Orders = append(merged.Orders, o)
		stats.NewOrders++
	}

	productIdx := make(map[string]int, len(merged.Products))
	for i, p := range merged.Products {
		productIdx[p.GroupKey()] = i
	}
	for _, np := range incoming.Products {
		i, ok := productIdx[np.GroupKey()]
		if !ok {
			productIdx[np.GroupKey()] = len(merged.Products)
			merged.Products = append(merged.Products, np)
			continue
		}
		p := &merged.Products[i]
		p.TotalQuantity += np.TotalQuantity
		p.TotalRevenue += np.TotalRevenue
		p.Orders = unionStrings(p.Orders, np.Orders)
		p.OriginalVariants = unionStrings(p.OriginalVariants, np.OriginalVariants)
	}

	merged.Resummarize()

	zap.L().Debug("datasets merged",
		zap.Int("new_orders", stats.NewOrders),
		zap.Int("duplicate_orders", stats.DuplicateOrders),
		zap.Int("total_orders", len(merged.Orders)),
	)
	return merged, stats
}

// unionStrings appends entries of b not already in a, preserving order.
func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	out := append([]string(nil), a...)
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
