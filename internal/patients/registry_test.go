package patients

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestRegistry_MountGetUnmount(t *testing.T) {
	reg := NewRegistry(context.Background(), &staticFetcher{records: scenarioRecords()}, DefaultRegistryConfig())
	defer reg.Close()

	v := reg.Mount()
	require.True(t, strings.HasPrefix(v.ID(), "view_"), "id = %q", v.ID())
	require.NoError(t, v.Wait(waitCtx(t)))
	assert.Equal(t, 1, reg.Len())

	got, ok := reg.Get(v.ID())
	require.True(t, ok)
	assert.Same(t, v, got)
	assert.Equal(t, 2, got.Snapshot().Total)

	assert.True(t, reg.Unmount(v.ID()))
	assert.False(t, v.Mounted())
	assert.Equal(t, 0, reg.Len())

	_, ok = reg.Get(v.ID())
	assert.False(t, ok)
	assert.False(t, reg.Unmount(v.ID()))
}

func TestRegistry_EachMountFetchesOnce(t *testing.T) {
	f := &staticFetcher{records: scenarioRecords()}
	reg := NewRegistry(context.Background(), f, DefaultRegistryConfig())
	defer reg.Close()

	a := reg.Mount()
	b := reg.Mount()
	require.NoError(t, a.Wait(waitCtx(t)))
	require.NoError(t, b.Wait(waitCtx(t)))

	assert.NotEqual(t, a.ID(), b.ID())
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestRegistry_SweepIdleViews(t *testing.T) {
	clock := newFakeClock()
	reg := NewRegistry(context.Background(), &staticFetcher{}, RegistryConfig{TTL: time.Minute, MaxMounted: 10},
		WithClock(clock.Now))
	defer reg.Close()

	idle := reg.Mount()
	active := reg.Mount()
	require.NoError(t, idle.Wait(waitCtx(t)))
	require.NoError(t, active.Wait(waitCtx(t)))

	clock.Advance(45 * time.Second)
	_, ok := reg.Get(active.ID())
	require.True(t, ok)
	clock.Advance(30 * time.Second)

	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
	assert.False(t, idle.Mounted())
	assert.True(t, active.Mounted())

	_, ok = reg.Get(idle.ID())
	assert.False(t, ok)
}

func TestRegistry_EvictsLeastRecentlySeen(t *testing.T) {
	clock := newFakeClock()
	reg := NewRegistry(context.Background(), &staticFetcher{}, RegistryConfig{TTL: time.Hour, MaxMounted: 2},
		WithClock(clock.Now))
	defer reg.Close()

	first := reg.Mount()
	clock.Advance(time.Second)
	second := reg.Mount()
	clock.Advance(time.Second)
	reg.Get(first.ID())
	clock.Advance(time.Second)
	third := reg.Mount()

	for _, v := range []*View{first, second, third} {
		require.NoError(t, v.Wait(waitCtx(t)))
	}

	assert.Equal(t, 2, reg.Len())
	_, ok := reg.Get(second.ID())
	assert.False(t, ok, "least recently seen view should be evicted")
	assert.False(t, second.Mounted())
	assert.True(t, first.Mounted())
	assert.True(t, third.Mounted())
}

func TestRegistry_CloseCancelsInFlight(t *testing.T) {
	f := newGatedFetcher(scenarioRecords())
	reg := NewRegistry(context.Background(), f, DefaultRegistryConfig())

	v := reg.Mount()
	<-f.started
	reg.Close()
	require.NoError(t, v.Wait(waitCtx(t)))

	snap := v.Snapshot()
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
	assert.Equal(t, 0, snap.Total)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_RunStopsWithContext(t *testing.T) {
	reg := NewRegistry(context.Background(), &staticFetcher{}, DefaultRegistryConfig())
	defer reg.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reg.Run(ctx, 5*time.Millisecond) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRegistry_MountedGauge(t *testing.T) {
	promReg := prometheus.NewRegistry()
	m := NewMetrics(promReg)
	reg := NewRegistry(context.Background(), &staticFetcher{}, DefaultRegistryConfig(), WithMetrics(m))
	defer reg.Close()

	a := reg.Mount()
	b := reg.Mount()
	require.NoError(t, a.Wait(waitCtx(t)))
	require.NoError(t, b.Wait(waitCtx(t)))
	assert.Equal(t, 2.0, mountedGauge(t, promReg))

	reg.Unmount(a.ID())
	assert.Equal(t, 1.0, mountedGauge(t, promReg))
}

func mountedGauge(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "asilo_mounted_views" {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("asilo_mounted_views not exported")
	return 0
}
