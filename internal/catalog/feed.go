// Package catalog keeps the kiosk's copy of the product feed fresh and
// turns it into what the ordering screen shows.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MikeMC777/kiosko-snacks/internal/cache"
	"github.com/MikeMC777/kiosko-snacks/internal/cart"
	"github.com/MikeMC777/kiosko-snacks/internal/product"
)

const lastGoodKey = "kiosk:catalog:last"

type Source interface {
	FetchFeed(ctx context.Context) ([]product.FeedRecord, error)
}

// State is one fetched catalog. Cached is true when the source was
// unreachable and the last good copy is being served instead.
type State struct {
	Records   []product.FeedRecord `json:"records"`
	Cached    bool                 `json:"cached"`
	FetchedAt time.Time            `json:"fetched_at"`
}

func (s State) Find(productID string) (product.FeedRecord, bool) {
	for _, r := range s.Records {
		if r.ID == productID {
			return r, true
		}
	}
	return product.FeedRecord{}, false
}

// Refs converts the active records into cart inputs. Records with an
// unparsable price are skipped and logged.
func (s State) Refs(logger *zap.Logger) []cart.ProductRef {
	out := make([]cart.ProductRef, 0, len(s.Records))
	for _, r := range s.Records {
		if !r.Active {
			continue
		}
		ref, err := r.Ref()
		if err != nil {
			logger.Warn("skipping catalog record", zap.Error(err))
			continue
		}
		out = append(out, ref)
	}
	return out
}

type Feed struct {
	source Source
	cache  cache.Cache
	logger *zap.Logger
}

func NewFeed(source Source, c cache.Cache, logger *zap.Logger) *Feed {
	return &Feed{source: source, cache: c, logger: logger}
}

// Fetch pulls the feed and stores it as the last good copy. When the source
// fails, the last good copy is returned with Cached set; the error is only
// returned when no copy exists.
func (f *Feed) Fetch(ctx context.Context) (State, error) {
	recs, err := f.source.FetchFeed(ctx)
	if err == nil {
		st := State{Records: recs, FetchedAt: time.Now().UTC()}
		if b, merr := json.Marshal(st); merr == nil {
			if cerr := f.cache.Set(ctx, lastGoodKey, b, 0); cerr != nil {
				f.logger.Warn("could not store catalog copy", zap.Error(cerr))
			}
		}
		return st, nil
	}

	b, cerr := f.cache.Get(ctx, lastGoodKey)
	if cerr != nil {
		return State{}, fmt.Errorf("fetch catalog: %w", err)
	}
	var st State
	if uerr := json.Unmarshal(b, &st); uerr != nil {
		return State{}, fmt.Errorf("fetch catalog: %w (cached copy unreadable: %v)", err, uerr)
	}
	st.Cached = true
	f.logger.Warn("catalog source unreachable, serving cached copy",
		zap.Time("fetched_at", st.FetchedAt), zap.Error(err))
	return st, nil
}

// Refresher re-fetches the feed on an interval and hands every new state to
// its hooks. A failed refresh keeps the previous state.
type Refresher struct {
	feed   *Feed
	every  time.Duration
	logger *zap.Logger
	hooks  []func(State)

	mu      sync.RWMutex
	current State
	loaded  bool
}

func NewRefresher(feed *Feed, every time.Duration, logger *zap.Logger, hooks ...func(State)) *Refresher {
	return &Refresher{feed: feed, every: every, logger: logger, hooks: hooks}
}

func (r *Refresher) Current() (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.loaded
}

func (r *Refresher) Refresh(ctx context.Context) error {
	st, err := r.feed.Fetch(ctx)
	if err != nil {
		r.logger.Error("catalog refresh failed", zap.Error(err))
		return err
	}
	r.mu.Lock()
	r.current, r.loaded = st, true
	r.mu.Unlock()

	for _, h := range r.hooks {
		h(st)
	}
	return nil
}

func (r *Refresher) Run(ctx context.Context) error {
	every := r.every
	if every <= 0 {
		every = 30 * time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		_ = r.Refresh(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
