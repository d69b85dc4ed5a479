package kiosk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Seed is the optional YAML file the status service starts from:
//
//	status: open
//	overrides:
//	  coke:
//	    available: false
type Seed struct {
	Status    Status                  `yaml:"status"`
	Overrides map[string]LiveOverride `yaml:"overrides"`
}

func LoadSeed(path string) (Seed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Seed{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.Status == "" {
		s.Status = Open
	}
	if _, ok := ParseStatus(string(s.Status)); !ok {
		return Seed{}, fmt.Errorf("parse %s: unknown status %q", path, s.Status)
	}
	return s, nil
}

// OverridePoller pulls the override set from the status service over HTTP.
type OverridePoller struct {
	HTTP    *http.Client
	BaseURL string
	tracker *Tracker
	logger  *zap.Logger
}

func NewOverridePoller(baseURL string, tracker *Tracker, logger *zap.Logger) *OverridePoller {
	return &OverridePoller{
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		BaseURL: baseURL,
		tracker: tracker,
		logger:  logger,
	}
}

// Poll fetches the overrides once. On failure the previous set is kept.
func (p *OverridePoller) Poll(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/overrides", nil)
	if err != nil {
		return err
	}
	res, err := p.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("get overrides: %s", res.Status)
	}
	var out map[string]LiveOverride
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode overrides: %w", err)
	}
	p.tracker.SetOverrides(out)
	return nil
}

func (p *OverridePoller) Run(ctx context.Context, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		if err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("override poll failed, keeping previous set", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
