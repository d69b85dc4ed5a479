package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const syncTimeout = 5 * time.Second

var ErrCheckoutInProgress = errors.New("checkout already in progress")

// Session is what a kiosk screen renders for one cart.
type Session struct {
	ID         string          `json:"session_id"`
	Items      []LineItem      `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Advisory   string          `json:"advisory,omitempty"`
	SyncError  string          `json:"sync_error,omitempty"`
	Cart       Cart            `json:"-"`
}

type session struct {
	cart     Cart
	advisory string
	syncErr  string
	// products the shopper agreed to buy beyond known stock
	confirmed map[string]bool
	checkout  bool
	version   uint64 // bumped on every queued save
	synced    uint64 // version of the last finished save
	seen      time.Time
}

func newSession() *session {
	return &session{confirmed: map[string]bool{}}
}

func (s *session) view(id string) Session {
	return Session{
		ID:         id,
		Items:      s.cart.Items(),
		TotalItems: s.cart.TotalItemCount(),
		TotalPrice: s.cart.TotalPrice(),
		Advisory:   s.advisory,
		SyncError:  s.syncErr,
		Cart:       s.cart,
	}
}

// prune forgets confirmations for products no longer in the cart.
func (s *session) prune() {
	for id := range s.confirmed {
		if _, ok := s.cart.Get(id); !ok {
			delete(s.confirmed, id)
		}
	}
}

// flushed reports whether the store holds the latest state of s.
func (s *session) flushed() bool {
	return s.synced == s.version && !s.checkout
}

// disposable sessions carry nothing that the store does not already reflect.
func (s *session) disposable() bool {
	return s.cart.IsEmpty() && s.advisory == "" && s.syncErr == "" && s.flushed()
}

type pendingSave struct {
	cart    Cart
	version uint64
}

// Manager holds the authoritative carts of every kiosk session in memory.
// Mutations are applied synchronously under a lock, in call order. The
// resulting state is then handed to a single background worker that saves
// it to the Store; a failed save is recorded on the session and never rolls
// the cart back. Empty sessions are dropped once their save has landed and
// idle ones are dropped by Evict.
type Manager struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time

	mu         sync.Mutex
	sessions   map[string]*session
	dropped    uint64 // bumped whenever a session leaves memory
	catalog    []ProductRef
	hasCatalog bool

	qmu     sync.Mutex
	cond    *sync.Cond
	pending map[string]pendingSave
	order   []string
	closed  bool

	wg sync.WaitGroup
}

func NewManager(store Store, logger *zap.Logger) *Manager {
	if store == nil {
		store = nopStore{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		store:    store,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*session),
		pending:  make(map[string]pendingSave),
	}
	m.cond = sync.NewCond(&m.qmu)
	m.wg.Add(1)
	go m.run()
	return m
}

func (m *Manager) Get(ctx context.Context, sessionID string) Session {
	s := m.lock(ctx, sessionID)
	defer m.unlock(sessionID, s)
	return s.view(sessionID)
}

func (m *Manager) SetQuantity(ctx context.Context, sessionID string, p ProductRef, q int) Session {
	return m.mutate(ctx, sessionID, func(c Cart) (Cart, string) { return SetQuantity(c, p, q) })
}

func (m *Manager) Increment(ctx context.Context, sessionID, productID string) Session {
	return m.mutate(ctx, sessionID, func(c Cart) (Cart, string) { return Increment(c, productID) })
}

func (m *Manager) Decrement(ctx context.Context, sessionID, productID string) Session {
	return m.mutate(ctx, sessionID, func(c Cart) (Cart, string) { return Decrement(c, productID), "" })
}

func (m *Manager) Remove(ctx context.Context, sessionID, productID string) Session {
	return m.mutate(ctx, sessionID, func(c Cart) (Cart, string) { return Remove(c, productID), "" })
}

func (m *Manager) Clear(ctx context.Context, sessionID string) Session {
	return m.mutate(ctx, sessionID, func(c Cart) (Cart, string) { return Clear(c), "" })
}

// Confirm records that the shopper accepted buying productID beyond its
// known stock. It only marks a product already in the cart, and the mark
// lasts while the product stays there.
func (m *Manager) Confirm(ctx context.Context, sessionID, productID string) {
	s := m.lock(ctx, sessionID)
	defer m.unlock(sessionID, s)
	if _, ok := s.cart.Get(productID); ok {
		s.confirmed[productID] = true
	}
}

// Checkout hands place a snapshot of the cart, reconciled against the latest
// catalog, together with the confirmed products. Only one checkout runs per
// session; a second one gets ErrCheckoutInProgress. Mutations are still
// accepted while place runs. On success the ordered quantities are taken
// out of the cart, so whatever was added meanwhile stays.
func (m *Manager) Checkout(ctx context.Context, sessionID string, place func(c Cart, confirmed map[string]bool) error) (Session, error) {
	s := m.lock(ctx, sessionID)
	if s.checkout {
		m.unlock(sessionID, s)
		return Session{}, ErrCheckoutInProgress
	}
	if m.hasCatalog {
		if next := Reconcile(s.cart, m.catalog); !sameItems(s.cart, next) {
			s.cart = next
			s.prune()
			m.enqueue(sessionID, s)
		}
	}
	s.checkout = true
	snapshot := s.cart
	confirmed := make(map[string]bool, len(s.confirmed))
	for id := range s.confirmed {
		confirmed[id] = true
	}
	m.mu.Unlock()

	err := place(snapshot, confirmed)

	m.mu.Lock()
	s.checkout = false
	if err == nil {
		s.cart = Subtract(s.cart, snapshot)
		s.advisory = ""
		s.prune()
		m.enqueue(sessionID, s)
	}
	v := s.view(sessionID)
	m.unlock(sessionID, s)
	return v, err
}

// ReconcileAll refreshes every open cart against a new catalog and keeps
// the catalog for carts restored later. Only carts that actually changed
// are re-synced.
func (m *Manager) ReconcileAll(catalog []ProductRef) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.catalog = append([]ProductRef(nil), catalog...)
	m.hasCatalog = true

	changed := 0
	for id, s := range m.sessions {
		next := Reconcile(s.cart, catalog)
		if sameItems(s.cart, next) {
			continue
		}
		s.cart = next
		s.prune()
		m.enqueue(id, s)
		changed++
	}
	if changed > 0 {
		m.logger.Info("carts reconciled against catalog", zap.Int("changed", changed))
	}
}

// Evict drops sessions untouched for longer than idle whose state is
// already in the store. It returns how many were dropped.
func (m *Manager) Evict(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for id, s := range m.sessions {
		if s.flushed() && now.Sub(s.seen) >= idle {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		m.dropped++
		m.logger.Debug("idle carts evicted", zap.Int("count", n))
	}
	return n
}

// RunEviction calls Evict periodically until ctx is done.
func (m *Manager) RunEviction(ctx context.Context, idle time.Duration) error {
	if idle <= 0 {
		return nil
	}
	every := idle / 4
	if every < time.Second {
		every = time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Evict(idle)
		}
	}
}

// Close stops accepting sync work, flushes what is pending and waits for
// the worker to exit.
func (m *Manager) Close() {
	m.qmu.Lock()
	m.closed = true
	m.cond.Broadcast()
	m.qmu.Unlock()
	m.wg.Wait()
}

func (m *Manager) mutate(ctx context.Context, sessionID string, fn func(Cart) (Cart, string)) Session {
	s := m.lock(ctx, sessionID)
	defer m.unlock(sessionID, s)

	s.cart, s.advisory = fn(s.cart)
	s.prune()
	// enqueue under mu so saves leave in the order mutations were applied
	m.enqueue(sessionID, s)
	return s.view(sessionID)
}

// lock returns the session for id with mu held, restoring it from the store
// the first time it is seen. The store is read without holding mu.
func (m *Manager) lock(ctx context.Context, id string) *session {
	for {
		m.mu.Lock()
		if s, ok := m.sessions[id]; ok {
			s.seen = m.now()
			return s
		}
		gen := m.dropped
		m.mu.Unlock()

		restored := newSession()
		c, found, err := m.store.Load(ctx, id)
		switch {
		case err != nil:
			m.logger.Warn("cart restore failed, starting empty", zap.String("session_id", id), zap.Error(err))
			restored.syncErr = err.Error()
		case found:
			restored.cart = c
		}

		m.mu.Lock()
		if s, ok := m.sessions[id]; ok {
			s.seen = m.now()
			return s
		}
		if m.dropped != gen {
			// a session left memory while we read; what we loaded may be stale
			m.mu.Unlock()
			continue
		}
		if m.hasCatalog {
			if next := Reconcile(restored.cart, m.catalog); !sameItems(restored.cart, next) {
				restored.cart = next
				m.enqueue(id, restored)
			}
		}
		restored.seen = m.now()
		m.sessions[id] = restored
		return restored
	}
}

func (m *Manager) unlock(id string, s *session) {
	if s.disposable() && m.sessions[id] == s {
		delete(m.sessions, id)
		m.dropped++
	}
	m.mu.Unlock()
}

// enqueue queues the current cart of s for saving. Callers hold mu.
func (m *Manager) enqueue(id string, s *session) {
	m.qmu.Lock()
	defer m.qmu.Unlock()
	if m.closed {
		m.logger.Warn("cart sync dropped after close", zap.String("session_id", id))
		return
	}
	s.version++
	if _, ok := m.pending[id]; !ok {
		m.order = append(m.order, id)
	}
	m.pending[id] = pendingSave{cart: s.cart, version: s.version}
	m.cond.Signal()
}

func (m *Manager) next() (string, pendingSave, bool) {
	m.qmu.Lock()
	defer m.qmu.Unlock()
	for len(m.order) == 0 {
		if m.closed {
			return "", pendingSave{}, false
		}
		m.cond.Wait()
	}
	id := m.order[0]
	m.order = m.order[1:]
	p := m.pending[id]
	delete(m.pending, id)
	return id, p, true
}

func (m *Manager) run() {
	defer m.wg.Done()
	for {
		id, p, ok := m.next()
		if !ok {
			return
		}
		m.sync(id, p)
	}
}

func (m *Manager) sync(id string, p pendingSave) {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	err := m.store.Save(ctx, id, p.cart)
	if err != nil {
		m.logger.Error("cart sync failed", zap.String("session_id", id), zap.Error(err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return
	}
	s.synced = p.version
	if err != nil {
		s.syncErr = err.Error()
	} else {
		s.syncErr = ""
	}
	if s.disposable() {
		delete(m.sessions, id)
		m.dropped++
	}
}

// size is the number of sessions held in memory.
func (m *Manager) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func sameItems(a, b Cart) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.items {
		x, y := a.items[i], b.items[i]
		if x.ProductID != y.ProductID || x.Name != y.Name || x.Quantity != y.Quantity ||
			!x.UnitPrice.Equal(y.UnitPrice) || !sameLimit(x.PurchaseLimit, y.PurchaseLimit) {
			return false
		}
	}
	return true
}

func sameLimit(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
