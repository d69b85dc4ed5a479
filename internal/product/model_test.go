package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/kiosko-snacks/internal/stock"
)

func intp(v int) *int { return &v }

func TestRecord_NegativeStockIsDiscrepancy(t *testing.T) {
	p := Product{ID: "p1", Name: "Gum", Price: "0.75", Stock: intp(-2), LowStockThreshold: intp(3)}

	rec := p.Record()
	assert.True(t, rec.NegativeStock)

	got := stock.Derive(rec.Snapshot(), nil)
	assert.Equal(t, stock.Discrepancy, got.Status)
	assert.True(t, got.IsOutOfStock)
}

func TestRecord_UntrackedStock(t *testing.T) {
	rec := Product{ID: "p1", Name: "Gum", Price: "0.75"}.Record()
	assert.Nil(t, rec.StockQuantity)
	assert.False(t, rec.NegativeStock)
	assert.Equal(t, stock.Result{Status: stock.InStock}, stock.Derive(rec.Snapshot(), nil))
}

func TestRef(t *testing.T) {
	rec := Product{ID: "p1", Name: "Gum", Price: "0.75", PurchaseLimit: intp(2)}.Record()

	ref, err := rec.Ref()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.75").Equal(ref.UnitPrice))
	assert.Equal(t, 2, *ref.PurchaseLimit)

	rec.Price = "abc"
	_, err = rec.Ref()
	assert.Error(t, err)
}

func TestDecorate(t *testing.T) {
	out := Decorate([]Product{
		{ID: "a", Name: "A", Price: "1", Stock: intp(2), LowStockThreshold: intp(5)},
		{ID: "b", Name: "B", Price: "1", Stock: intp(20), LowStockThreshold: intp(5), DiscrepancyTotal: 1},
	})
	require.Len(t, out, 2)
	assert.Equal(t, stock.LowStock, out[0].StockStatus.Status)
	assert.Equal(t, stock.Discrepancy, out[1].StockStatus.Status)
}
