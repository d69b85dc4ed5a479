package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MikeMC777/kiosko-snacks/internal/cache"
)

// Store persists carts outside the process. Save is only called from the
// Manager's sync worker, after the in-memory state has changed. Load runs on
// the request path when a session is first seen, without any Manager lock
// held.
type Store interface {
	Load(ctx context.Context, sessionID string) (Cart, bool, error)
	Save(ctx context.Context, sessionID string, c Cart) error
}

type CacheStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewCacheStore(c cache.Cache, ttl time.Duration) *CacheStore {
	return &CacheStore{cache: c, ttl: ttl}
}

func cartKey(sessionID string) string { return "kiosk:cart:" + sessionID }

func (s *CacheStore) Load(ctx context.Context, sessionID string) (Cart, bool, error) {
	b, err := s.cache.Get(ctx, cartKey(sessionID))
	if errors.Is(err, cache.ErrMiss) {
		return Cart{}, false, nil
	}
	if err != nil {
		return Cart{}, false, err
	}
	var c Cart
	if err := json.Unmarshal(b, &c); err != nil {
		return Cart{}, false, err
	}
	return c, true, nil
}

// Save writes c, or deletes the key when c is empty.
func (s *CacheStore) Save(ctx context.Context, sessionID string, c Cart) error {
	if c.IsEmpty() {
		return s.cache.Delete(ctx, cartKey(sessionID))
	}
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, cartKey(sessionID), b, s.ttl)
}

type nopStore struct{}

func (nopStore) Load(context.Context, string) (Cart, bool, error) { return Cart{}, false, nil }
func (nopStore) Save(context.Context, string, Cart) error          { return nil }
