// Package cart owns the kiosk shopping cart: an ordered set of line items
// whose quantities never exceed a product's purchase limit.
//
// Every operation takes a Cart and returns a new one; the input is never
// modified. Limit violations are reported as advisory strings, never as
// errors.
package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductRef is the product information observed by the caller at the moment
// of a mutation. A nil PurchaseLimit means unlimited.
type ProductRef struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	PurchaseLimit *int            `json:"purchase_limit,omitempty"`
}

type LineItem struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	PurchaseLimit *int            `json:"purchase_limit,omitempty"`
}

// Subtotal is UnitPrice × Quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart keeps line items in first-insertion order.
type Cart struct {
	items []LineItem
}

// LimitAdvisory is the message shown when a quantity is capped at limit.
func LimitAdvisory(limit int) string {
	return fmt.Sprintf("Maximum %d of this item per purchase", limit)
}

// New builds a cart from items, dropping non-positive quantities and
// duplicate product ids and clamping quantities to their limits.
func New(items ...LineItem) Cart {
	out := make([]LineItem, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if seen[it.ProductID] {
			continue
		}
		if it.PurchaseLimit != nil && it.Quantity > *it.PurchaseLimit {
			it.Quantity = *it.PurchaseLimit
		}
		if it.Quantity <= 0 {
			continue
		}
		it.PurchaseLimit = copyLimit(it.PurchaseLimit)
		seen[it.ProductID] = true
		out = append(out, it)
	}
	return Cart{items: out}
}

// Items returns a copy of the line items.
func (c Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c Cart) Len() int { return len(c.items) }

func (c Cart) IsEmpty() bool { return len(c.items) == 0 }

func (c Cart) Get(productID string) (LineItem, bool) {
	if i := c.index(productID); i >= 0 {
		return c.items[i], true
	}
	return LineItem{}, false
}

func (c Cart) TotalItemCount() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Items []LineItem `json:"items"`
	}{Items: c.Items()})
}

func (c *Cart) UnmarshalJSON(b []byte) error {
	var raw struct {
		Items []LineItem `json:"items"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = New(raw.Items...)
	return nil
}

func (c Cart) index(productID string) int {
	for i, it := range c.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) clone() []LineItem {
	out := make([]LineItem, len(c.items), len(c.items)+1)
	copy(out, c.items)
	return out
}

func copyLimit(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
