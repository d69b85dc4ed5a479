package kiosk

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Health service names used to publish the kiosk status. "kiosk" is
// SERVING while the kiosk is open; "kiosk.maintenance" is SERVING while it
// is under maintenance.
const (
	ServiceKiosk       = "kiosk"
	ServiceMaintenance = "kiosk.maintenance"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// Watcher follows the status service's health streams and feeds a Tracker.
// A broken stream is re-opened with exponential backoff.
type Watcher struct {
	client  healthpb.HealthClient
	tracker *Tracker
	logger  *zap.Logger
}

func NewWatcher(conn grpc.ClientConnInterface, tracker *Tracker, logger *zap.Logger) *Watcher {
	return &Watcher{client: healthpb.NewHealthClient(conn), tracker: tracker, logger: logger}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w.follow(ctx, ServiceKiosk, w.tracker.SetServing)
		return nil
	})
	g.Go(func() error {
		w.follow(ctx, ServiceMaintenance, w.tracker.SetMaintenance)
		return nil
	})
	return g.Wait()
}

func (w *Watcher) follow(ctx context.Context, service string, set func(bool)) {
	delay := minBackoff
	for {
		err := w.watch(ctx, service, func(serving bool) {
			delay = minBackoff
			set(serving)
		})
		if ctx.Err() != nil {
			return
		}
		w.logger.Warn("status stream broken, retrying",
			zap.String("service", service), zap.Duration("backoff", delay), zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}
}

func (w *Watcher) watch(ctx context.Context, service string, set func(bool)) error {
	stream, err := w.client.Watch(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return err
	}
	for {
		resp, err := stream.Recv()
		if err != nil {
			return err
		}
		serving := resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
		w.logger.Debug("status push", zap.String("service", service), zap.Bool("serving", serving))
		set(serving)
	}
}
