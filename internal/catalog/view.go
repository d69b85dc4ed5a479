package catalog

import (
	"math"
	"sort"

	"github.com/MikeMC777/kiosko-snacks/internal/kiosk"
	"github.com/MikeMC777/kiosko-snacks/internal/product"
	"github.com/MikeMC777/kiosko-snacks/internal/stock"
)

type OverrideSource interface {
	Override(productID string) *kiosk.LiveOverride
}

type Item struct {
	stock.Entry
	Category      string `json:"category,omitempty"`
	Price         string `json:"price"`
	PurchaseLimit *int   `json:"purchase_limit,omitempty"`
}

func apply(r product.FeedRecord, src OverrideSource) (stock.Snapshot, *stock.Overrides) {
	var o *kiosk.LiveOverride
	if src != nil {
		o = src.Override(r.ID)
	}
	return kiosk.Apply(r.Snapshot(), o)
}

// Derive resolves a record's status with any live override applied.
func Derive(r product.FeedRecord, src OverrideSource) stock.Result {
	return stock.Derive(apply(r, src))
}

// KnownStock is the stock of r with any live override applied. ok is false
// when the quantity is unknown or not a usable number.
func KnownStock(r product.FeedRecord, src OverrideSource) (qty float64, ok bool) {
	snap, _ := apply(r, src)
	if snap.CurrentStock == nil {
		return 0, false
	}
	v := *snap.CurrentStock
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// BuildView lists the active records with their status, alphabetically or,
// when byUrgency is set, out of stock first and low stock next.
func BuildView(records []product.FeedRecord, src OverrideSource, byUrgency bool) []Item {
	items := make([]Item, 0, len(records))
	for _, r := range records {
		if !r.Active {
			continue
		}
		items = append(items, Item{
			Entry:         stock.Entry{ProductID: r.ID, Name: r.Name, Result: Derive(r, src)},
			Category:      r.Category,
			Price:         r.Price,
			PurchaseLimit: r.PurchaseLimit,
		})
	}
	if byUrgency {
		sort.SliceStable(items, func(i, j int) bool { return stock.Less(items[i].Entry, items[j].Entry) })
	} else {
		sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	}
	return items
}
