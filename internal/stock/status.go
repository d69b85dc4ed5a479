// Package stock derives the display status of a product from its inventory
// counters and orders product lists by restock urgency.
package stock

import "math"

type Status string

const (
	InStock     Status = "in_stock"
	LowStock    Status = "low_stock"
	Discrepancy Status = "discrepancy"
)

// Snapshot is the inventory-relevant state of one product at fetch time.
// A nil CurrentStock means the product is not tracked; a nil
// LowStockThreshold means no threshold is configured.
type Snapshot struct {
	ProductID            string
	Name                 string
	CurrentStock         *float64
	LowStockThreshold    *float64
	DiscrepancyMagnitude float64
	NegativeStock        bool
}

// Overrides carries flags computed by a more authoritative source, such as
// the live kiosk status feed. A nil field was not supplied.
type Overrides struct {
	HasDiscrepancy *bool
	IsLowStock     *bool
	IsOutOfStock   *bool
}

type Result struct {
	Status       Status `json:"status"`
	IsLowStock   bool   `json:"is_low_stock"`
	IsOutOfStock bool   `json:"is_out_of_stock"`
}

// Derive resolves the status of s. Rules are evaluated top to bottom and
// the first match wins:
//
//  1. an explicit HasDiscrepancy override decides Discrepancy on its own
//  2. a negative stock flag or a positive discrepancy magnitude
//  3. an IsLowStock override set to true
//  4. without an IsLowStock override, stock at or below the threshold
//  5. InStock
//
// Unknown or non-finite numbers disable the rules that need them.
func Derive(s Snapshot, ov *Overrides) Result {
	if ov == nil {
		ov = &Overrides{}
	}

	cur, curOK := known(s.CurrentStock)
	thr, thrOK := known(s.LowStockThreshold)
	atThreshold := curOK && thrOK && cur <= thr

	var st Status
	switch {
	case ov.HasDiscrepancy != nil && *ov.HasDiscrepancy:
		st = Discrepancy
	case ov.HasDiscrepancy == nil && hasDiscrepancy(s):
		st = Discrepancy
	case ov.IsLowStock != nil && *ov.IsLowStock:
		st = LowStock
	case ov.IsLowStock == nil && atThreshold:
		st = LowStock
	default:
		st = InStock
	}

	res := Result{Status: st}

	// Low stock is projected independently so a discrepancy never hides it
	// from sorting.
	if ov.IsLowStock != nil {
		res.IsLowStock = *ov.IsLowStock
	} else {
		res.IsLowStock = st == LowStock || (atThreshold && cur != 0)
	}

	if ov.IsOutOfStock != nil {
		res.IsOutOfStock = *ov.IsOutOfStock
	} else {
		res.IsOutOfStock = curOK && cur <= 0
	}
	return res
}

func hasDiscrepancy(s Snapshot) bool {
	if s.NegativeStock {
		return true
	}
	m := s.DiscrepancyMagnitude
	return !math.IsNaN(m) && !math.IsInf(m, 0) && m > 0
}

func known(p *float64) (float64, bool) {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, false
	}
	return *p, true
}

// Float is a convenience for building snapshots from literals.
func Float(v float64) *float64 { return &v }

// Bool is a convenience for building overrides from literals.
func Bool(v bool) *bool { return &v }
