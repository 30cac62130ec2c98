// Package health reports liveness and whether the session store and the
// events broker can be reached.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

const defaultPingTimeout = 2 * time.Second

// Pinger is anything with a connectivity check.
type Pinger interface {
	Ping() error
}

// Dependency is the outcome of pinging one backend.
type Dependency struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

type Liveness struct {
	Status       Status `json:"status"`
	Version      string `json:"version,omitempty"`
	Uptime       string `json:"uptime"`
	SessionStore string `json:"session_store,omitempty"`
}

// Readiness is ready only when every dependency is up. Dependencies are
// sorted by name.
type Readiness struct {
	Ready        bool         `json:"ready"`
	Dependencies []Dependency `json:"dependencies"`
}

type Config struct {
	Version string
	// StoreBackend names the session store in liveness output ("memory" or "redis").
	StoreBackend string
	SessionStore Pinger
	Events       Pinger
	// PingTimeout bounds each dependency ping; zero means 2s.
	PingTimeout time.Duration
}

type Service struct {
	cfg     Config
	started time.Time
	deps    map[string]Pinger
	log     *zap.Logger
}

func NewService(cfg Config, log *zap.Logger) *Service {
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = defaultPingTimeout
	}
	deps := make(map[string]Pinger, 2)
	if cfg.SessionStore != nil {
		deps["session_store"] = cfg.SessionStore
	}
	if cfg.Events != nil {
		deps["events"] = cfg.Events
	}
	return &Service{cfg: cfg, started: time.Now(), deps: deps, log: log}
}

// Live never touches a dependency.
func (s *Service) Live() Liveness {
	return Liveness{
		Status:       StatusUp,
		Version:      s.cfg.Version,
		Uptime:       time.Since(s.started).Round(time.Second).String(),
		SessionStore: s.cfg.StoreBackend,
	}
}

// Ready pings every dependency concurrently.
func (s *Service) Ready(ctx context.Context) Readiness {
	results := make([]Dependency, 0, len(s.deps))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, p := range s.deps {
		wg.Add(1)
		go func(name string, p Pinger) {
			defer wg.Done()
			dep := s.ping(ctx, name, p)
			mu.Lock()
			results = append(results, dep)
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	ready := true
	for _, dep := range results {
		if dep.Status != StatusUp {
			ready = false
		}
	}
	return Readiness{Ready: ready, Dependencies: results}
}

func (s *Service) ping(ctx context.Context, name string, p Pinger) Dependency {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PingTimeout)
	defer cancel()

	start := time.Now()
	errCh := make(chan error, 1)
	go func() { errCh <- p.Ping() }()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ctx.Err()
	}

	dep := Dependency{Name: name, Status: StatusUp, Latency: time.Since(start).String()}
	if err != nil {
		dep.Status = StatusDown
		dep.Error = err.Error()
		s.log.Warn("Dependency not ready", zap.String("dependency", name), zap.Error(err))
	}
	return dep
}
