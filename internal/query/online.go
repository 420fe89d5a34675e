package query

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// OnlineManager tracks connectivity. Queries pause while offline and resume
// when it flips back.
type OnlineManager struct {
	mu        sync.Mutex
	online    bool
	wake      chan struct{}
	listeners []func(bool)
}

// NewOnlineManager creates a manager in the given state.
func NewOnlineManager(online bool) *OnlineManager {
	return &OnlineManager{online: online, wake: make(chan struct{})}
}

// IsOnline reports the current state.
func (m *OnlineManager) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a connectivity change and notifies listeners when the
// state actually changed.
func (m *OnlineManager) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	if online {
		close(m.wake)
		m.wake = make(chan struct{})
	}
	listeners := make([]func(bool), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(online)
	}
}

// OnChange registers fn for state changes.
func (m *OnlineManager) OnChange(fn func(bool)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// WaitOnline blocks until the manager is online or ctx ends.
func (m *OnlineManager) WaitOnline(ctx context.Context) error {
	for {
		m.mu.Lock()
		if m.online {
			m.mu.Unlock()
			return nil
		}
		wake := m.wake
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
	}
}

// Prober drives an OnlineManager by periodically reaching the API host. Any
// HTTP response counts as online; only transport failures mean offline.
type Prober struct {
	manager  *OnlineManager
	url      string
	client   *http.Client
	interval time.Duration
	logger   *zap.Logger
}

// NewProber builds a prober for url.
func NewProber(manager *OnlineManager, url string, interval, timeout time.Duration, logger *zap.Logger) *Prober {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{
		manager:  manager,
		url:      url,
		client:   &http.Client{Timeout: timeout},
		interval: interval,
		logger:   logger,
	}
}

// Probe checks reachability once and updates the manager.
func (p *Prober) Probe(ctx context.Context) bool {
	reachable := false
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err == nil {
		resp, doErr := p.client.Do(req)
		if doErr == nil {
			resp.Body.Close() //nolint:errcheck
			reachable = true
		} else {
			err = doErr
		}
	}
	if ctx.Err() != nil {
		return p.manager.IsOnline()
	}

	if reachable != p.manager.IsOnline() {
		if reachable {
			p.logger.Info("api reachable again", zap.String("url", p.url))
		} else {
			p.logger.Warn("api unreachable, pausing queries", zap.String("url", p.url), zap.Error(err))
		}
	}
	p.manager.SetOnline(reachable)
	return reachable
}

// Run probes immediately and then every interval until ctx ends.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}
