package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MikeMC777/kiosko-snacks/internal/audit"
	"github.com/MikeMC777/kiosko-snacks/internal/cart"
	"github.com/MikeMC777/kiosko-snacks/internal/product"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInsufficientStock = errors.New("not enough stock")
)

// StockAdjuster applies signed stock deltas on the inventory side.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, id string, delta int, reason string) (*product.Product, error)
}

// StockError wraps a failed stock adjustment with the product it hit.
type StockError struct {
	ProductID string
	Err       error
}

func (e *StockError) Error() string {
	return fmt.Sprintf("adjust stock of %s: %v", e.ProductID, e.Err)
}

func (e *StockError) Unwrap() error { return e.Err }

type Service struct {
	repo   Repository
	stock  StockAdjuster
	audit  audit.Sink
	logger *zap.Logger
}

func NewService(repo Repository, stock StockAdjuster, sink audit.Sink, logger *zap.Logger) *Service {
	return &Service{repo: repo, stock: stock, audit: sink, logger: logger}
}

// Checkout takes stock for every line, persists the order and records
// order.created. A line that would leave its product below zero fails with
// ErrInsufficientStock unless its product is in confirmed. Stock already
// taken is given back if a later step fails.
func (s *Service) Checkout(ctx context.Context, sessionID string, c cart.Cart, confirmed map[string]bool) (*Order, []Item, error) {
	if c.IsEmpty() {
		return nil, nil, ErrEmptyCart
	}
	o, items := FromCart(sessionID, c)

	taken := make([]Item, 0, len(items))
	for _, it := range items {
		p, err := s.stock.AdjustStock(ctx, it.ProductID, -it.Quantity, "order "+o.ID)
		if err != nil {
			s.restock(ctx, o.ID, taken)
			return nil, nil, &StockError{ProductID: it.ProductID, Err: err}
		}
		taken = append(taken, it)
		if p != nil && p.Stock != nil && *p.Stock < 0 && !confirmed[it.ProductID] {
			s.restock(ctx, o.ID, taken)
			return nil, nil, &StockError{ProductID: it.ProductID, Err: ErrInsufficientStock}
		}
	}

	if err := s.repo.Create(ctx, o, items); err != nil {
		s.restock(ctx, o.ID, taken)
		return nil, nil, fmt.Errorf("persist order: %w", err)
	}

	audit.Record(ctx, s.audit, s.logger, audit.NewEvent(audit.OrderCreated, o.ID, sessionID, map[string]any{
		"total":       o.Total,
		"total_items": o.TotalItems,
		"lines":       len(items),
	}))
	s.logger.Info("order placed", zap.String("order_id", o.ID), zap.String("session", sessionID), zap.String("total", o.Total))
	return o, items, nil
}

// UpdateStatus moves a placed order forward. Canceling returns its stock.
// The move only lands if nobody changed the status in the meantime, so the
// stock of an order is given back once.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Order, error) {
	o, items, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
	}
	if err := s.repo.UpdateStatus(ctx, id, o.Status, status); err != nil {
		return nil, err
	}
	if status == StatusCanceled {
		s.restock(ctx, id, items)
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return o, nil
}

func (s *Service) restock(ctx context.Context, orderID string, items []Item) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	for _, it := range items {
		if _, err := s.stock.AdjustStock(ctx, it.ProductID, it.Quantity, "restock order "+orderID); err != nil {
			s.logger.Error("restock failed",
				zap.String("order_id", orderID), zap.String("product_id", it.ProductID),
				zap.Int("quantity", it.Quantity), zap.Error(err))
		}
	}
}
