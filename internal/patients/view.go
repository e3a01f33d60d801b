package patients

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/me/asilo/pkg/directory"
	"github.com/me/asilo/pkg/model"
)

// GenericLoadError is the only failure text ever shown to users.
const GenericLoadError = "No se pudo cargar pacientes."

// Fetcher retrieves the patient collection. Implementations must honor ctx
// cancellation promptly.
type Fetcher interface {
	ListPatients(ctx context.Context) ([]model.Patient, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]model.Patient, error)

// ListPatients calls f(ctx).
func (f FetcherFunc) ListPatients(ctx context.Context) ([]model.Patient, error) {
	return f(ctx)
}

// Presentation is the single thing a view shows at any moment.
type Presentation int

const (
	PresentTable Presentation = iota
	PresentLoading
	PresentError
)

func (p Presentation) String() string {
	switch p {
	case PresentLoading:
		return "loading"
	case PresentError:
		return "error"
	default:
		return "table"
	}
}

// Snapshot is a consistent copy of a view's state with the filtered
// collection already derived. Records is shared with the view and must not
// be modified.
type Snapshot struct {
	ID       string
	Query    string
	Records  []model.Patient
	Total    int
	Loading  bool
	Error    string
	LoadedAt time.Time
}

// Presentation picks loading over error over table.
func (s Snapshot) Presentation() Presentation {
	switch {
	case s.Loading:
		return PresentLoading
	case s.Error != "":
		return PresentError
	default:
		return PresentTable
	}
}

// NoResults reports whether a non-empty query filtered everything out.
func (s Snapshot) NoResults() bool {
	return len(s.Records) == 0 && NormalizeQuery(s.Query) != ""
}

// Empty reports whether there is nothing to show without any query applied.
func (s Snapshot) Empty() bool {
	return len(s.Records) == 0 && NormalizeQuery(s.Query) == ""
}

// View is one mounted patient list. It owns its raw collection, query and
// load status. Each retrieval carries a generation number; a retrieval whose
// generation is no longer current never touches the view.
type View struct {
	id      string
	fetcher Fetcher
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time

	mu       sync.Mutex
	records  []model.Patient
	version  uint64 // bumped whenever records is replaced
	query    string
	loading  bool
	errMsg   string
	loadedAt time.Time
	mounted  bool
	lastSeen time.Time

	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}

	memo filterMemo
}

// filterMemo caches the filtered collection keyed by (records version, term).
type filterMemo struct {
	valid   bool
	version uint64
	term    string
	result  []model.Patient
}

// NewView creates an unmounted view. Nothing is fetched until Mount.
func NewView(id string, fetcher Fetcher, opts ...Option) *View {
	o := buildOptions(opts)
	return &View{
		id:       id,
		fetcher:  fetcher,
		logger:   o.logger.With("component", "patients", "view", id),
		metrics:  o.metrics,
		now:      o.now,
		records:  []model.Patient{},
		lastSeen: o.now(),
	}
}

// ID returns the view identifier.
func (v *View) ID() string {
	return v.id
}

// Mount starts a retrieval under ctx. Calling Mount while a retrieval is in
// flight cancels that retrieval first; its result is discarded.
func (v *View) Mount(ctx context.Context) {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	gen := v.gen
	loadCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	v.cancel = cancel
	v.done = done
	v.mounted = true
	v.loading = true
	v.errMsg = ""
	v.lastSeen = v.now()
	v.mu.Unlock()

	v.logger.Debug("view mounted", "generation", gen)
	go v.load(loadCtx, gen, done)
}

func (v *View) load(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	start := time.Now()
	records, err := v.fetcher.ListPatients(ctx)
	elapsed := time.Since(start)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		v.metrics.observeLoad(OutcomeCancelled, elapsed)
		v.logger.Debug("stale retrieval discarded", "generation", gen)
		return
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.loading = false

	switch {
	case err == nil:
		if records == nil {
			records = []model.Patient{}
		}
		v.records = records
		v.version++
		v.loadedAt = v.now()
		v.metrics.observeLoad(OutcomeSuccess, elapsed)
		v.logger.Info("patients loaded", "count", len(records), "duration", elapsed.String())
	case errors.Is(err, context.Canceled):
		v.metrics.observeLoad(OutcomeCancelled, elapsed)
		v.logger.Debug("retrieval cancelled", "generation", gen)
	default:
		v.errMsg = GenericLoadError
		v.metrics.observeLoad(OutcomeError, elapsed)
		attrs := []any{"error", err, "duration", elapsed.String()}
		if status, ok := directory.StatusCode(err); ok {
			attrs = append(attrs, "upstream_status", status)
		}
		v.logger.Warn("patient load failed", attrs...)
	}
}

// Unmount cancels any in-flight retrieval. Nothing the retrieval produces
// afterwards reaches the view.
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.gen++
	v.loading = false
	v.mounted = false
	v.logger.Debug("view unmounted")
}

// Mounted reports whether the view is between Mount and Unmount.
func (v *View) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

// SetQuery replaces the filter text. It never triggers a retrieval.
func (v *View) SetQuery(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = query
	v.lastSeen = v.now()
}

// Touch records activity on the view without changing its state.
func (v *View) Touch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastSeen = v.now()
}

// LastSeen returns the time of the last Mount, SetQuery or Touch.
func (v *View) LastSeen() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

// Wait blocks until the current retrieval has been applied to the view or
// ctx is done. It returns immediately if the view was never mounted.
func (v *View) Wait(ctx context.Context) error {
	v.mu.Lock()
	done := v.done
	v.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current state with the filtered collection.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	return Snapshot{
		ID:       v.id,
		Query:    v.query,
		Records:  v.filteredLocked(),
		Total:    len(v.records),
		Loading:  v.loading,
		Error:    v.errMsg,
		LoadedAt: v.loadedAt,
	}
}

func (v *View) filteredLocked() []model.Patient {
	term := NormalizeQuery(v.query)
	if v.memo.valid && v.memo.version == v.version && v.memo.term == term {
		return v.memo.result
	}
	result := Filter(v.records, term)
	v.memo = filterMemo{valid: true, version: v.version, term: term, result: result}
	return result
}
