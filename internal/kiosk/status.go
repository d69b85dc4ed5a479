// Package kiosk tracks whether a kiosk is taking orders and the live
// per-product inventory overrides pushed by the status service.
package kiosk

import (
	"sync"
	"time"

	"github.com/MikeMC777/kiosko-snacks/internal/stock"
)

type Status string

const (
	Open        Status = "open"
	Closed      Status = "closed"
	Maintenance Status = "maintenance"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case Open, Closed, Maintenance:
		return st, true
	}
	return "", false
}

// LiveOverride is a partial set of inventory fields that, when present for
// a product, wins over what the catalog feed says.
type LiveOverride struct {
	StockQuantity     *float64 `json:"stock_quantity,omitempty" yaml:"stock_quantity"`
	LowStockThreshold *float64 `json:"low_stock_threshold,omitempty" yaml:"low_stock_threshold"`
	IsOutOfStock      *bool    `json:"is_out_of_stock,omitempty" yaml:"is_out_of_stock"`
	IsLowStock        *bool    `json:"is_low_stock,omitempty" yaml:"is_low_stock"`
	Available         *bool    `json:"available,omitempty" yaml:"available"`
}

// Apply merges o into s. Quantity and threshold replace the snapshot's
// values; the flags become engine overrides, and Available=false forces the
// product out of stock.
func Apply(s stock.Snapshot, o *LiveOverride) (stock.Snapshot, *stock.Overrides) {
	if o == nil {
		return s, nil
	}
	if o.StockQuantity != nil {
		s.CurrentStock = o.StockQuantity
	}
	if o.LowStockThreshold != nil {
		s.LowStockThreshold = o.LowStockThreshold
	}
	ov := &stock.Overrides{IsLowStock: o.IsLowStock, IsOutOfStock: o.IsOutOfStock}
	if o.Available != nil && !*o.Available {
		ov.IsOutOfStock = stock.Bool(true)
	}
	return s, ov
}

type State struct {
	Status    Status                  `json:"status"`
	Overrides map[string]LiveOverride `json:"overrides,omitempty"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// Tracker is the kiosk-side view of the status service. Until the first
// push arrives the kiosk is considered open.
type Tracker struct {
	mu          sync.RWMutex
	serving     bool
	maintenance bool
	overrides   map[string]LiveOverride
	updatedAt   time.Time
}

func NewTracker() *Tracker {
	return &Tracker{serving: true, overrides: map[string]LiveOverride{}}
}

func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	switch {
	case t.maintenance:
		return Maintenance
	case t.serving:
		return Open
	default:
		return Closed
	}
}

func (t *Tracker) SetServing(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.serving = v
	t.updatedAt = time.Now()
}

func (t *Tracker) SetMaintenance(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maintenance = v
	t.updatedAt = time.Now()
}

// SetOverrides replaces the whole override set.
func (t *Tracker) SetOverrides(o map[string]LiveOverride) {
	cp := make(map[string]LiveOverride, len(o))
	for k, v := range o {
		cp[k] = v
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overrides = cp
	t.updatedAt = time.Now()
}

func (t *Tracker) Override(productID string) *LiveOverride {
	t.mu.RLock()
	defer t.mu.RUnlock()
	o, ok := t.overrides[productID]
	if !ok {
		return nil
	}
	return &o
}

func (t *Tracker) State() State {
	st := t.Status()
	t.mu.RLock()
	defer t.mu.RUnlock()
	cp := make(map[string]LiveOverride, len(t.overrides))
	for k, v := range t.overrides {
		cp[k] = v
	}
	return State{Status: st, Overrides: cp, UpdatedAt: t.updatedAt}
}
