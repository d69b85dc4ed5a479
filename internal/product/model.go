package product

import (
	"time"

	"github.com/MikeMC777/kiosko-snacks/internal/stock"
)

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	// We store price as a string to avoid rounding errors (NUMERIC in Postgres)
	Price string `json:"price"`
	// nil stock means the product is not tracked
	Stock             *int      `json:"stock"`
	LowStockThreshold *int      `json:"low_stock_threshold"`
	PurchaseLimit     *int      `json:"purchase_limit"`
	DiscrepancyTotal  int       `json:"discrepancy_total"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Record converts a stored product into the catalog feed shape.
func (p Product) Record() FeedRecord {
	return FeedRecord{
		ID:                p.ID,
		Name:              p.Name,
		Category:          p.Category,
		Price:             p.Price,
		StockQuantity:     toFloat(p.Stock),
		LowStockThreshold: toFloat(p.LowStockThreshold),
		PurchaseLimit:     copyInt(p.PurchaseLimit),
		DiscrepancyTotal:  float64(p.DiscrepancyTotal),
		NegativeStock:     p.Stock != nil && *p.Stock < 0,
		Active:            p.Active,
	}
}

// WithStatus is a product decorated with its derived stock status.
// swagger:model
type WithStatus struct {
	Product
	StockStatus stock.Result `json:"stock_status"`
}

func Decorate(items []Product) []WithStatus {
	out := make([]WithStatus, 0, len(items))
	for _, p := range items {
		out = append(out, WithStatus{Product: p, StockStatus: stock.Derive(p.Record().Snapshot(), nil)})
	}
	return out
}

// CategoryCount is one row of the category listing.
// swagger:model
type CategoryCount struct {
	Category string `json:"category"`
	Products int    `json:"products"`
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	// search query applied
	Q string `json:"q,omitempty"`
	// limit applied
	Limit int `json:"limit"`
	// offset applied
	Offset int `json:"offset"`
	// items found
	Items []WithStatus `json:"items"`
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Name              string `json:"name"                example:"Doritos Nacho"`
	Description       string `json:"description"         example:"150g bag"`
	Category          string `json:"category"            example:"chips"`
	Price             string `json:"price"               example:"2.50"`
	Stock             *int   `json:"stock"               example:"24"`
	LowStockThreshold *int   `json:"low_stock_threshold" example:"5"`
	PurchaseLimit     *int   `json:"purchase_limit"      example:"3"`
}

// UpdateProductRequest payload of partial update. Omitted fields keep their
// current value.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	Category          *string `json:"category"`
	Price             *string `json:"price"`
	Stock             *int    `json:"stock"`
	LowStockThreshold *int    `json:"low_stock_threshold"`
	PurchaseLimit     *int    `json:"purchase_limit"`
	DiscrepancyTotal  *int    `json:"discrepancy_total"`
	Active            *bool   `json:"active"`
	// clear the threshold or the limit (null is indistinguishable from omitted)
	ClearThreshold bool `json:"clear_low_stock_threshold"`
	ClearLimit     bool `json:"clear_purchase_limit"`
}

// SetStockRequest sets an absolute counted stock.
// swagger:model SetStockRequest
type SetStockRequest struct {
	Stock *int `json:"stock" example:"12"`
}

// AdjustStockRequest applies a signed delta to the stock.
// swagger:model AdjustStockRequest
type AdjustStockRequest struct {
	Delta  int    `json:"delta"  example:"-2"`
	Reason string `json:"reason" example:"sale"`
}

func toFloat(p *int) *float64 {
	if p == nil {
		return nil
	}
	v := float64(*p)
	return &v
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
