package product

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/kiosko-snacks/internal/cart"
	"github.com/MikeMC777/kiosko-snacks/internal/stock"
)

// FeedRecord is the single shape the catalog feed speaks. Kiosks convert it
// into engine inputs with Snapshot and Ref and nothing else.
type FeedRecord struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Category          string   `json:"category,omitempty"`
	Price             string   `json:"price"`
	StockQuantity     *float64 `json:"stock_quantity"`
	LowStockThreshold *float64 `json:"low_stock_threshold"`
	PurchaseLimit     *int     `json:"purchase_limit"`
	DiscrepancyTotal  float64  `json:"discrepancy_total,omitempty"`
	NegativeStock     bool     `json:"negative_stock,omitempty"`
	Active            bool     `json:"active"`
}

func (r FeedRecord) Snapshot() stock.Snapshot {
	return stock.Snapshot{
		ProductID:            r.ID,
		Name:                 r.Name,
		CurrentStock:         r.StockQuantity,
		LowStockThreshold:    r.LowStockThreshold,
		DiscrepancyMagnitude: r.DiscrepancyTotal,
		NegativeStock:        r.NegativeStock,
	}
}

func (r FeedRecord) Ref() (cart.ProductRef, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return cart.ProductRef{}, fmt.Errorf("product %s: invalid price %q: %w", r.ID, r.Price, err)
	}
	return cart.ProductRef{
		ProductID:     r.ID,
		Name:          r.Name,
		UnitPrice:     price,
		PurchaseLimit: copyInt(r.PurchaseLimit),
	}, nil
}
