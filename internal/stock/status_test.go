package stock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive_LowStockScenario(t *testing.T) {
	got := Derive(Snapshot{CurrentStock: Float(3), LowStockThreshold: Float(5)}, nil)

	assert.Equal(t, Result{Status: LowStock, IsLowStock: true, IsOutOfStock: false}, got)
}

func TestDerive_NegativeStockScenario(t *testing.T) {
	got := Derive(Snapshot{
		CurrentStock:         Float(-3),
		LowStockThreshold:    Float(0),
		DiscrepancyMagnitude: 3,
		NegativeStock:        true,
	}, nil)

	assert.Equal(t, Result{Status: Discrepancy, IsLowStock: true, IsOutOfStock: true}, got)
}

func TestDerive_DiscrepancyWinsOverThreshold(t *testing.T) {
	cases := []Snapshot{
		{CurrentStock: Float(100), LowStockThreshold: Float(5), DiscrepancyMagnitude: 1},
		{CurrentStock: Float(2), LowStockThreshold: Float(5), NegativeStock: true},
		{DiscrepancyMagnitude: 0.5},
		{CurrentStock: Float(0), NegativeStock: true},
	}
	for _, s := range cases {
		assert.Equal(t, Discrepancy, Derive(s, nil).Status, "%+v", s)
	}
}

func TestDerive_LowStockBoundary(t *testing.T) {
	for cur := -2.0; cur <= 8; cur++ {
		got := Derive(Snapshot{CurrentStock: Float(cur), LowStockThreshold: Float(5)}, nil)
		if cur <= 5 {
			assert.Equal(t, LowStock, got.Status, "stock=%v", cur)
		} else {
			assert.Equal(t, InStock, got.Status, "stock=%v", cur)
		}
	}
}

func TestDerive_UnknownFailsOpen(t *testing.T) {
	assert.Equal(t, Result{Status: InStock}, Derive(Snapshot{}, nil))
	assert.Equal(t, Result{Status: InStock}, Derive(Snapshot{ProductID: "x"}, &Overrides{}))
}

func TestDerive_NonFiniteTreatedAsUnknown(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)

	got := Derive(Snapshot{CurrentStock: &nan, LowStockThreshold: Float(5)}, nil)
	assert.Equal(t, Result{Status: InStock}, got)

	got = Derive(Snapshot{CurrentStock: Float(1), LowStockThreshold: &inf}, nil)
	assert.Equal(t, InStock, got.Status)
	assert.False(t, got.IsLowStock)

	got = Derive(Snapshot{DiscrepancyMagnitude: math.Inf(1)}, nil)
	assert.Equal(t, InStock, got.Status)
}

func TestDerive_ThresholdWithoutStock(t *testing.T) {
	got := Derive(Snapshot{LowStockThreshold: Float(5)}, nil)
	assert.Equal(t, Result{Status: InStock}, got)
}

func TestDerive_DiscrepancyOverride(t *testing.T) {
	// explicit false beats a raw discrepancy signal
	got := Derive(Snapshot{NegativeStock: true, DiscrepancyMagnitude: 4}, &Overrides{HasDiscrepancy: Bool(false)})
	assert.Equal(t, InStock, got.Status)

	// explicit false still lets the low-stock rules run
	got = Derive(Snapshot{CurrentStock: Float(1), LowStockThreshold: Float(3), NegativeStock: true},
		&Overrides{HasDiscrepancy: Bool(false)})
	assert.Equal(t, LowStock, got.Status)

	got = Derive(Snapshot{CurrentStock: Float(50)}, &Overrides{HasDiscrepancy: Bool(true)})
	assert.Equal(t, Discrepancy, got.Status)
}

func TestDerive_LowStockOverride(t *testing.T) {
	got := Derive(Snapshot{CurrentStock: Float(50), LowStockThreshold: Float(5)}, &Overrides{IsLowStock: Bool(true)})
	assert.Equal(t, Result{Status: LowStock, IsLowStock: true}, got)

	got = Derive(Snapshot{CurrentStock: Float(2), LowStockThreshold: Float(5)}, &Overrides{IsLowStock: Bool(false)})
	assert.Equal(t, Result{Status: InStock}, got)
}

func TestDerive_OutOfStockIndependentOfStatus(t *testing.T) {
	got := Derive(Snapshot{CurrentStock: Float(0), LowStockThreshold: Float(2)}, nil)
	assert.Equal(t, LowStock, got.Status)
	assert.True(t, got.IsOutOfStock)
	assert.True(t, got.IsLowStock)

	got = Derive(Snapshot{CurrentStock: Float(0)}, nil)
	assert.Equal(t, Result{Status: InStock, IsOutOfStock: true}, got)

	got = Derive(Snapshot{CurrentStock: Float(10)}, &Overrides{IsOutOfStock: Bool(true)})
	assert.True(t, got.IsOutOfStock)
}

func TestDerive_LowStockProjectionSurvivesDiscrepancy(t *testing.T) {
	got := Derive(Snapshot{CurrentStock: Float(2), LowStockThreshold: Float(5), DiscrepancyMagnitude: 1}, nil)
	assert.Equal(t, Discrepancy, got.Status)
	assert.True(t, got.IsLowStock)

	got = Derive(Snapshot{CurrentStock: Float(0), LowStockThreshold: Float(5), DiscrepancyMagnitude: 1}, nil)
	assert.False(t, got.IsLowStock)
	assert.True(t, got.IsOutOfStock)
}

func TestSortByUrgency(t *testing.T) {
	entries := []Entry{
		{ProductID: "1", Name: "Water", Result: Result{Status: InStock}},
		{ProductID: "2", Name: "Chips", Result: Result{Status: LowStock, IsLowStock: true}},
		{ProductID: "3", Name: "Candy", Result: Result{Status: InStock}},
		{ProductID: "4", Name: "Soda", Result: Result{Status: Discrepancy, IsOutOfStock: true}},
		{ProductID: "5", Name: "Apple", Result: Result{Status: LowStock, IsLowStock: true}},
		{ProductID: "6", Name: "Bar", Result: Result{Status: InStock, IsOutOfStock: true, IsLowStock: true}},
	}

	SortByUrgency(entries)

	var ids []string
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	assert.Equal(t, []string{"6", "4", "5", "2", "3", "1"}, ids)
}

func TestSortByUrgency_StableOnTies(t *testing.T) {
	entries := []Entry{
		{ProductID: "a", Name: "Gum"},
		{ProductID: "b", Name: "Gum"},
		{ProductID: "c", Name: "Gum"},
	}
	SortByUrgency(entries)
	assert.Equal(t, "a", entries[0].ProductID)
	assert.Equal(t, "b", entries[1].ProductID)
	assert.Equal(t, "c", entries[2].ProductID)
}
