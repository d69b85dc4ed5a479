// Package audit appends structured admin and checkout events to the audit
// trail.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
	StockSet       = "stock.set"
	StockAdjusted  = "stock.adjusted"
	OrderCreated   = "order.created"

	KioskStatusChanged = "kiosk.status_changed"
	OverrideSet        = "override.set"
	OverrideDeleted    = "override.deleted"
)

type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	EntityID   string         `json:"entity_id"`
	Actor      string         `json:"actor,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func NewEvent(typ, entityID, actor string, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		EntityID:   entityID,
		Actor:      actor,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

// Sink accepts append-only events.
type Sink interface {
	Append(ctx context.Context, e Event) error
}

// Record appends e and logs a failure instead of returning it; the audit
// trail never fails the operation it describes.
func Record(ctx context.Context, sink Sink, logger *zap.Logger, e Event) {
	if err := sink.Append(ctx, e); err != nil {
		logger.Error("audit append failed",
			zap.String("type", e.Type), zap.String("entity_id", e.EntityID), zap.Error(err))
	}
}

// MemorySink keeps events in process. It backs tests and runs when the
// broker is unreachable.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
	logger *zap.Logger
}

func NewMemorySink(logger *zap.Logger) *MemorySink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemorySink{logger: logger}
}

func (s *MemorySink) Append(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	s.logger.Info("audit event (in-memory)", zap.String("type", e.Type), zap.String("entity_id", e.EntityID))
	return nil
}

func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}
