package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/MikeMC777/kiosko-snacks/internal/cart"
)

const (
	StatusPlaced    = "placed"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

type Order struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Status     string    `json:"status"`
	Total      string    `json:"total"` // NUMERIC -> string
	TotalItems int       `json:"total_items"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Item struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Subtotal  string `json:"subtotal"`
}

// FromCart builds a placed order from the lines of c.
func FromCart(sessionID string, c cart.Cart) (*Order, []Item) {
	now := time.Now().UTC()
	o := &Order{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Status:     StatusPlaced,
		Total:      c.TotalPrice().StringFixed(2),
		TotalItems: c.TotalItemCount(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	lines := c.Items()
	items := make([]Item, 0, len(lines))
	for _, li := range lines {
		items = append(items, Item{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			ProductID: li.ProductID,
			Name:      li.Name,
			Quantity:  li.Quantity,
			Price:     li.UnitPrice.StringFixed(2),
			Subtotal:  li.Subtotal().StringFixed(2),
		})
	}
	return o, items
}

// CanTransition reports whether an order may move from one status to another.
// Only placed orders change status.
func CanTransition(from, to string) bool {
	if from != StatusPlaced {
		return false
	}
	return to == StatusCompleted || to == StatusCanceled
}
