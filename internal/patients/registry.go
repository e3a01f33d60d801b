package patients

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry defaults.
const (
	DefaultViewTTL    = 10 * time.Minute
	DefaultMaxMounted = 1000
)

// RegistryConfig bounds how long and how many views stay mounted.
type RegistryConfig struct {
	// TTL is how long a view may go without activity before it is unmounted.
	TTL time.Duration

	// MaxMounted caps the number of mounted views. When a new view would
	// exceed it, the least recently seen view is unmounted first.
	MaxMounted int
}

// DefaultRegistryConfig returns sensible defaults.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		TTL:        DefaultViewTTL,
		MaxMounted: DefaultMaxMounted,
	}
}

// Registry holds the views mounted by browser pages. A page mounts a view
// when it is served and unmounts it when it goes away; views whose page
// vanished without saying so are swept after the idle TTL.
type Registry struct {
	base    context.Context
	stop    context.CancelFunc
	fetcher Fetcher
	config  RegistryConfig
	opts    []Option
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time

	mu    sync.Mutex
	views map[string]*View
}

// NewRegistry creates a registry whose retrievals run under ctx. Cancelling
// ctx (or calling Close) cancels every in-flight retrieval.
func NewRegistry(ctx context.Context, fetcher Fetcher, cfg RegistryConfig, opts ...Option) *Registry {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultViewTTL
	}
	if cfg.MaxMounted <= 0 {
		cfg.MaxMounted = DefaultMaxMounted
	}
	o := buildOptions(opts)
	base, stop := context.WithCancel(ctx)
	return &Registry{
		base:    base,
		stop:    stop,
		fetcher: fetcher,
		config:  cfg,
		opts:    opts,
		logger:  o.logger.With("component", "registry"),
		metrics: o.metrics,
		now:     o.now,
		views:   make(map[string]*View),
	}
}

// Mount creates, registers and mounts a new view.
func (r *Registry) Mount() *View {
	v := NewView("view_"+uuid.NewString(), r.fetcher, r.opts...)

	r.mu.Lock()
	var evicted *View
	if len(r.views) >= r.config.MaxMounted {
		evicted = r.oldestLocked()
		if evicted != nil {
			delete(r.views, evicted.ID())
		}
	}
	r.views[v.ID()] = v
	n := len(r.views)
	r.mu.Unlock()

	if evicted != nil {
		evicted.Unmount()
		r.logger.Info("view evicted", "view", evicted.ID(), "max_mounted", r.config.MaxMounted)
	}
	r.metrics.setMounted(n)

	v.Mount(r.base)
	return v
}

func (r *Registry) oldestLocked() *View {
	var oldest *View
	var oldestSeen time.Time
	for _, v := range r.views {
		seen := v.LastSeen()
		if oldest == nil || seen.Before(oldestSeen) {
			oldest, oldestSeen = v, seen
		}
	}
	return oldest
}

// Get returns the view with the given ID and records activity on it.
func (r *Registry) Get(id string) (*View, bool) {
	r.mu.Lock()
	v, ok := r.views[id]
	r.mu.Unlock()

	if ok {
		v.Touch()
	}
	return v, ok
}

// Unmount unregisters and unmounts the view. It reports whether the view
// was registered.
func (r *Registry) Unmount(id string) bool {
	r.mu.Lock()
	v, ok := r.views[id]
	if ok {
		delete(r.views, id)
	}
	n := len(r.views)
	r.mu.Unlock()

	if !ok {
		return false
	}
	v.Unmount()
	r.metrics.setMounted(n)
	return true
}

// Len returns the number of mounted views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Sweep unmounts every view idle for longer than the TTL and returns how
// many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.config.TTL)

	r.mu.Lock()
	var expired []*View
	for id, v := range r.views {
		if v.LastSeen().Before(cutoff) {
			expired = append(expired, v)
			delete(r.views, id)
		}
	}
	n := len(r.views)
	r.mu.Unlock()

	for _, v := range expired {
		v.Unmount()
	}
	if len(expired) > 0 {
		r.logger.Debug("idle views swept", "count", len(expired), "remaining", n)
		r.metrics.setMounted(n)
	}
	return len(expired)
}

// Run sweeps idle views every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close unmounts every view and cancels the registry's base context.
func (r *Registry) Close() {
	r.stop()

	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*View)
	r.mu.Unlock()

	for _, v := range views {
		v.Unmount()
	}
	r.metrics.setMounted(0)
}
