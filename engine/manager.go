package engine

import (
	"context"
	"sync"

	"matchengine/domain"
	"matchengine/id"
	"matchengine/matcher"
)

// Manager owns one Worker per instrument registered at construction time
// and routes commands to it; no instrument is ever added afterward (§4.6
// Manager, C8). An id outside the registered set is always
// ErrInstrumentNotRegistered, never a silently fabricated Worker.
type Manager struct {
	mu      sync.RWMutex
	workers map[id.InstrumentID]*Worker
	cancels map[id.InstrumentID]context.CancelFunc

	scale      int32
	quoteScale int32
	queueDepth int

	// OnWorkerCreated, if set, is invoked synchronously for every Worker
	// constructed by NewManager before its goroutine starts handling
	// commands, giving callers a chance to attach Event Bus subscribers
	// (journal, metrics) before any event can be missed.
	OnWorkerCreated func(*Worker)
}

// Config lists the fixed instrument set the Manager creates Workers for.
type Config struct {
	Instruments     []id.InstrumentID
	Scale           int32
	QuoteScale      int32
	QueueDepth      int
	OnWorkerCreated func(*Worker)
}

// NewManager constructs one Worker per instrument in cfg.Instruments,
// each running under ctx, and no others.
func NewManager(ctx context.Context, cfg Config) *Manager {
	m := &Manager{
		workers:         make(map[id.InstrumentID]*Worker),
		cancels:         make(map[id.InstrumentID]context.CancelFunc),
		scale:           cfg.Scale,
		quoteScale:      cfg.QuoteScale,
		queueDepth:      cfg.QueueDepth,
		OnWorkerCreated: cfg.OnWorkerCreated,
	}
	for _, instrumentID := range cfg.Instruments {
		m.register(ctx, instrumentID)
	}
	return m
}

// register constructs and starts the Worker for one instrument. Called
// only from NewManager: the registered set is fixed for the Manager's
// lifetime, so this is never exposed as a way to add instruments later.
func (m *Manager) register(ctx context.Context, instrumentID id.InstrumentID) {
	w := NewWorker(instrumentID, m.scale, m.quoteScale, m.queueDepth)
	if m.OnWorkerCreated != nil {
		m.OnWorkerCreated(w)
	}
	workerCtx, cancel := context.WithCancel(ctx)
	m.workers[instrumentID] = w
	m.cancels[instrumentID] = cancel
	go w.Run(workerCtx)
}

// Lookup returns the Worker for instrumentID, or false if it was not in
// the instrument set the Manager was constructed with.
func (m *Manager) Lookup(instrumentID id.InstrumentID) (*Worker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workers[instrumentID]
	return w, ok
}

// Submit routes cmd to the owning instrument's worker and blocks until it
// is processed or ctx is done. Returns ErrInstrumentNotRegistered if the
// instrument was not in the Manager's construction-time set.
func (m *Manager) Submit(ctx context.Context, instrumentID id.InstrumentID, cmd domain.Command) (*matcher.Outcome, error) {
	w, ok := m.Lookup(instrumentID)
	if !ok {
		return nil, domain.ErrInstrumentNotRegistered
	}
	return w.Submit(ctx, cmd)
}

// Halt pauses Place admission for one instrument; Cancel commands still
// apply. Returns ErrInstrumentNotRegistered if the instrument was not in
// the Manager's construction-time set.
func (m *Manager) Halt(instrumentID id.InstrumentID) error {
	w, ok := m.Lookup(instrumentID)
	if !ok {
		return domain.ErrInstrumentNotRegistered
	}
	w.Halt()
	return nil
}

// Resume returns a halted instrument to Running.
func (m *Manager) Resume(instrumentID id.InstrumentID) error {
	w, ok := m.Lookup(instrumentID)
	if !ok {
		return domain.ErrInstrumentNotRegistered
	}
	w.Resume()
	return nil
}

// Status reports one instrument's current worker state.
func (m *Manager) Status(instrumentID id.InstrumentID) (State, error) {
	w, ok := m.Lookup(instrumentID)
	if !ok {
		return 0, domain.ErrInstrumentNotRegistered
	}
	return w.State(), nil
}

// Snapshot returns one instrument's current depth view.
func (m *Manager) Snapshot(instrumentID id.InstrumentID) (*domain.DepthPayload, error) {
	w, ok := m.Lookup(instrumentID)
	if !ok {
		return nil, domain.ErrInstrumentNotRegistered
	}
	return w.Snapshot(), nil
}

// Instruments lists every instrument with a running worker.
func (m *Manager) Instruments() []id.InstrumentID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]id.InstrumentID, 0, len(m.workers))
	for instrumentID := range m.workers {
		out = append(out, instrumentID)
	}
	return out
}

// Stop cancels every worker's context and waits for its goroutine to
// return, used for graceful shutdown.
func (m *Manager) Stop() {
	m.mu.Lock()
	workers := make([]*Worker, 0, len(m.workers))
	for instrumentID, cancel := range m.cancels {
		cancel()
		workers = append(workers, m.workers[instrumentID])
	}
	m.mu.Unlock()

	for _, w := range workers {
		<-w.Done()
	}
}
