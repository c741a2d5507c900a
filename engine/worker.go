// Package engine provides the concurrency shell around the matcher: one
// Worker goroutine per instrument (§5 single-threaded-per-instrument
// model) reading from a bounded command channel, and a Manager (C8) that
// routes commands to the right Worker by instrument id.
package engine

import (
	"context"
	"log"
	"time"

	"matchengine/domain"
	"matchengine/domain/book"
	"matchengine/eventbus"
	"matchengine/id"
	"matchengine/infra/metrics"
	"matchengine/infra/sequence"
	"matchengine/matcher"
)

// State is a Worker's admission-control state machine (§5, §7).
type State uint8

const (
	StateRunning State = iota
	StateHalted
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// DefaultQueueDepth bounds a Worker's command channel absent an explicit
// override.
const DefaultQueueDepth = 1024

// DefaultDepthLevels is how many price levels a DepthUpdated event carries.
const DefaultDepthLevels = 25

type request struct {
	cmd   domain.Command
	reply chan response
}

type response struct {
	outcome *matcher.Outcome
	err     error
}

// Worker owns exactly one instrument's book, matcher, sequencer, and
// event bus, and is the only goroutine that ever mutates them (§5). All
// other goroutines interact with it exclusively through Submit/TrySubmit.
type Worker struct {
	InstrumentID id.InstrumentID

	matcher *matcher.Matcher
	bus     *eventbus.EventBus
	seq     *sequence.Sequencer

	cmds  chan request
	state State
	fault error

	depthLevels int
	metrics     *metrics.Metrics

	done chan struct{}
}

// NewWorker constructs a Worker for one instrument with an empty book.
func NewWorker(instrumentID id.InstrumentID, scale, quoteScale int32, queueDepth int) *Worker {
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}
	b := book.NewOrderBook(instrumentID, scale)
	return &Worker{
		InstrumentID: instrumentID,
		matcher:      matcher.New(b, quoteScale),
		bus:          eventbus.New(),
		seq:          sequence.New(0),
		cmds:         make(chan request, queueDepth),
		state:        StateRunning,
		depthLevels:  DefaultDepthLevels,
		done:         make(chan struct{}),
	}
}

// Matcher exposes the underlying matcher for read-only inspection
// (snapshots, tests); production callers mutate only via Submit.
func (w *Worker) Matcher() *matcher.Matcher { return w.matcher }

// Bus returns the instrument's event bus for subscription.
func (w *Worker) Bus() *eventbus.EventBus { return w.bus }

// SetReferencePriceOracle installs a custom reference-price source,
// forwarded to the underlying matcher (§6.4).
func (w *Worker) SetReferencePriceOracle(o matcher.ReferencePriceOracle) {
	w.matcher.SetReferencePriceOracle(o)
}

// SetSelfTradePolicy installs an optional self-trade veto hook (§10.6).
func (w *Worker) SetSelfTradePolicy(p matcher.SelfTradePolicy) {
	w.matcher.SelfTrade = p
}

// SetMetrics installs a Metrics bundle the worker updates as it
// processes commands. Optional — a nil bundle (the default) disables
// reporting entirely.
func (w *Worker) SetMetrics(m *metrics.Metrics) {
	w.metrics = m
	if m != nil {
		instrument := w.InstrumentID.String()
		w.bus.OnDrop = func() { m.EventBusDrops.WithLabelValues(instrument).Inc() }
	}
}

// Run drives the Worker's command loop until ctx is cancelled, then
// processes the commands still queued and returns. It must be called
// exactly once, from the single goroutine that owns this Worker.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case req := <-w.cmds:
					req.reply <- w.handle(req.cmd)
				default:
					return
				}
			}
		case req := <-w.cmds:
			req.reply <- w.handle(req.cmd)
		}
	}
}

// Done is closed once Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

// TrySubmit enqueues cmd without blocking, returning ErrQueueFull if the
// worker's channel has no free capacity.
func (w *Worker) TrySubmit(cmd domain.Command) (*matcher.Outcome, error) {
	reply := make(chan response, 1)
	select {
	case w.cmds <- request{cmd: cmd, reply: reply}:
	default:
		return nil, domain.ErrQueueFull
	}
	res := <-reply
	return res.outcome, res.err
}

// Submit enqueues cmd, blocking until it is processed or ctx is done.
func (w *Worker) Submit(ctx context.Context, cmd domain.Command) (*matcher.Outcome, error) {
	reply := make(chan response, 1)
	select {
	case w.cmds <- request{cmd: cmd, reply: reply}:
	case <-ctx.Done():
		return nil, domain.ErrTimeout
	}
	select {
	case res := <-reply:
		return res.outcome, res.err
	case <-ctx.Done():
		return nil, domain.ErrTimeout
	}
}

// State reports the worker's current admission-control state.
func (w *Worker) State() State { return w.state }

// Halt stops the worker from accepting new Place commands while leaving
// it running (Cancel commands still apply) — used for maintenance pauses
// (§5, §7).
func (w *Worker) Halt() {
	w.state = StateHalted
	w.publishBookEvent(domain.EventBookHalted)
}

// Resume returns a halted worker to Running. It is a no-op on a faulted
// worker: a fault requires operator intervention outside this type.
func (w *Worker) Resume() {
	if w.state == StateHalted {
		w.state = StateRunning
		w.publishBookEvent(domain.EventBookResumed)
	}
}

func (w *Worker) publishBookEvent(kind domain.EventKind) {
	w.bus.Publish(&domain.Event{
		InstrumentID: w.InstrumentID,
		Sequence:     w.seq.Next(),
		Kind:         kind,
		Timestamp:    time.Now().UTC(),
	})
}

// Snapshot returns the current top-of-book depth view (§4.4).
func (w *Worker) Snapshot() *domain.DepthPayload {
	return book.Depth(w.matcher.Book, w.depthLevels)
}

func (w *Worker) handle(cmd domain.Command) response {
	if w.state == StateFaulted {
		return response{err: domain.ErrEngineFaulted}
	}
	if w.state == StateHalted && cmd.IsPlace() {
		return response{err: domain.ErrOrderbookHalted}
	}

	start := time.Now()
	now := start.UTC()
	outcome, err := w.matcher.Process(cmd)
	if w.metrics != nil {
		w.metrics.MatchLatency.Observe(time.Since(start).Seconds())
		w.metrics.QueueDepth.WithLabelValues(w.InstrumentID.String()).Set(float64(len(w.cmds)))
	}
	if err != nil {
		if domain.IsClass(err, domain.ClassFatal) {
			w.state = StateFaulted
			w.fault = err
			log.Printf("engine: instrument %s faulted: %v", w.InstrumentID, err)
		}
		if cmd.IsCancel() && domain.IsClass(err, domain.ClassNotFound) {
			w.bus.Publish(&domain.Event{
				InstrumentID:   w.InstrumentID,
				Sequence:       w.seq.Next(),
				Kind:           domain.EventOrderCancelRejected,
				Timestamp:      now,
				CancelOrderID:  cmd.Cancel.OrderID,
				RejectedReason: err.Error(),
			})
		}
		if w.metrics != nil {
			w.metrics.CommandsProcessed.WithLabelValues(w.InstrumentID.String(), "error").Inc()
		}
		return response{err: err}
	}

	if w.metrics != nil {
		w.metrics.CommandsProcessed.WithLabelValues(w.InstrumentID.String(), "ok").Inc()
		if outcome.Taker != nil && outcome.Taker.Status == domain.Rejected {
			w.metrics.OrdersRejected.WithLabelValues(w.InstrumentID.String(), outcome.RejectReason).Inc()
		}
		w.metrics.TradesExecuted.Add(float64(len(outcome.Trades)))
	}

	w.publish(outcome, now)
	return response{outcome: outcome}
}

// publish translates one Outcome into the Event Bus events it implies,
// including every cascaded trigger's nested outcome. Orders are not
// returned to the allocation pool here: the Outcome, and every order it
// points to, is handed back to the caller of Submit.
func (w *Worker) publish(out *matcher.Outcome, now time.Time) {
	if out.Taker == nil {
		return
	}

	if out.Taker.Status == domain.Rejected {
		w.bus.Publish(&domain.Event{
			InstrumentID:   w.InstrumentID,
			Sequence:       w.seq.Next(),
			Kind:           domain.EventOrderRejected,
			Timestamp:      now,
			Order:          out.Taker.Snapshot(),
			RejectedReason: out.RejectReason,
		})
		return
	}

	if out.CancelledOrder != nil {
		w.bus.Publish(&domain.Event{
			InstrumentID: w.InstrumentID,
			Sequence:     w.seq.Next(),
			Kind:         domain.EventOrderCancelled,
			Timestamp:    now,
			Order:        out.CancelledOrder.Snapshot(),
		})
		return
	}

	w.bus.Publish(&domain.Event{
		InstrumentID: w.InstrumentID,
		Sequence:     w.seq.Next(),
		Kind:         domain.EventOrderAccepted,
		Timestamp:    now,
		Order:        out.Taker.Snapshot(),
	})

	// out.Trades also holds the trades of triggered orders; those are
	// published by the nested publish calls below, with their own taker.
	own := len(out.Trades)
	for _, fired := range out.Triggered {
		own -= len(fired.Nested.Trades)
	}
	for i, trade := range out.Trades[:own] {
		maker := out.TouchedMakers[i]
		w.bus.Publish(&domain.Event{
			InstrumentID: w.InstrumentID,
			Sequence:     w.seq.Next(),
			Kind:         domain.EventTradeExecuted,
			Timestamp:    now,
			Trade:        trade,
		})
		w.bus.Publish(&domain.Event{
			InstrumentID: w.InstrumentID,
			Sequence:     w.seq.Next(),
			Kind:         domain.EventOrderMatched,
			Timestamp:    now,
			Order:        out.Taker.Snapshot(),
		})
		w.bus.Publish(&domain.Event{
			InstrumentID: w.InstrumentID,
			Sequence:     w.seq.Next(),
			Kind:         domain.EventOrderMatched,
			Timestamp:    now,
			Order:        maker.Snapshot(),
		})
		w.bus.Publish(&domain.Event{
			InstrumentID: w.InstrumentID,
			Sequence:     w.seq.Next(),
			Kind:         domain.EventOrderStatusChanged,
			Timestamp:    now,
			Order:        maker.Snapshot(),
		})
	}

	if out.RestedOrder != nil {
		w.bus.Publish(&domain.Event{
			InstrumentID: w.InstrumentID,
			Sequence:     w.seq.Next(),
			Kind:         domain.EventOrderAdded,
			Timestamp:    now,
			Order:        out.RestedOrder.Snapshot(),
		})
	} else {
		w.bus.Publish(&domain.Event{
			InstrumentID: w.InstrumentID,
			Sequence:     w.seq.Next(),
			Kind:         domain.EventOrderStatusChanged,
			Timestamp:    now,
			Order:        out.Taker.Snapshot(),
		})
	}

	if len(out.Trades) > 0 {
		w.bus.Publish(&domain.Event{
			InstrumentID: w.InstrumentID,
			Sequence:     w.seq.Next(),
			Kind:         domain.EventDepthUpdated,
			Timestamp:    now,
			Depth:        w.Snapshot(),
		})
	}

	for _, fired := range out.Triggered {
		ref, _ := w.matcher.ReferencePrice()
		w.bus.Publish(&domain.Event{
			InstrumentID: w.InstrumentID,
			Sequence:     w.seq.Next(),
			Kind:         domain.EventTriggerFired,
			Timestamp:    now,
			Trigger: &domain.TriggerPayload{
				OrderID:        fired.Order.ID,
				TriggerPrice:   fired.Order.TriggerPrice,
				ReferencePrice: ref,
			},
		})
		w.publish(fired.Nested, now)
	}
}
