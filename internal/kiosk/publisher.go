package kiosk

import (
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Publisher is the status service side: it owns the authoritative kiosk
// status and override set and pushes status changes to every watcher.
type Publisher struct {
	health *health.Server

	mu        sync.RWMutex
	status    Status
	overrides map[string]LiveOverride
}

func NewPublisher(initial Status, overrides map[string]LiveOverride) *Publisher {
	p := &Publisher{health: health.NewServer(), overrides: map[string]LiveOverride{}}
	for k, v := range overrides {
		p.overrides[k] = v
	}
	p.SetStatus(initial)
	return p
}

func (p *Publisher) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, p.health)
}

func (p *Publisher) SetStatus(st Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = st
	p.health.SetServingStatus(ServiceKiosk, servingStatus(st == Open))
	p.health.SetServingStatus(ServiceMaintenance, servingStatus(st == Maintenance))
}

func (p *Publisher) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Publisher) Overrides() map[string]LiveOverride {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cp := make(map[string]LiveOverride, len(p.overrides))
	for k, v := range p.overrides {
		cp[k] = v
	}
	return cp
}

func (p *Publisher) SetOverride(productID string, o LiveOverride) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.overrides[productID] = o
}

func (p *Publisher) DeleteOverride(productID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.overrides[productID]
	delete(p.overrides, productID)
	return ok
}

// Shutdown marks every service NOT_SERVING so watchers see the kiosk close.
func (p *Publisher) Shutdown() { p.health.Shutdown() }

func servingStatus(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
