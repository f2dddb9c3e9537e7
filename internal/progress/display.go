package progress

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is the refresh cadence used when none is given.
const DefaultInterval = 100 * time.Millisecond

// BarState is a snapshot of one job's progress.
type BarState struct {
	ID      int
	Name    string
	Total   int64
	Written int64
	Done    bool
	Err     error
}

// Percent returns the completion ratio in [0, 1].
//
// A job that finished successfully is complete regardless of how its
// bytes compare to the expected size, which may have been an estimate.
func (s BarState) Percent() float64 {
	if s.Done && s.Err == nil {
		return 1
	}
	if s.Total <= 0 {
		return 0
	}
	p := float64(s.Written) / float64(s.Total)
	if p > 1 {
		p = 1
	}
	return p
}

// Renderer draws bar snapshots. Render and Close are only ever called from
// the display's consumer goroutine.
type Renderer interface {
	Render(states []BarState)
	Close()
}

type eventKind int

const (
	eventAttach eventKind = iota
	eventFinish
)

type lifecycleEvent struct {
	kind   eventKind
	handle *Handle
}

// Display aggregates the progress of many concurrent jobs.
//
// Each job attaches a Handle and advances it as bytes arrive. Attach and
// Finish are sent over a channel to a single consumer goroutine, which
// owns the refresh ticker and the renderer. Advance only touches an atomic
// counter, so producers never wait on the terminal.
//
// Example:
//
//	display := progress.New(progress.NewTextRenderer(os.Stderr), 0)
//
//	h := display.Attach("jei-1.12.2.jar", 2_500_000)
//	h.Advance(4096)
//	h.Finish(nil)
//
//	display.Join()
type Display struct {
	renderer Renderer
	interval time.Duration

	events chan lifecycleEvent
	done   chan struct{}
	nextID atomic.Int64

	// sendMu lets Join close events while concurrent senders hold RLock.
	sendMu sync.RWMutex
	closed bool

	barsMu sync.Mutex
	bars   []*Handle
}

// New starts a display drawing to renderer every interval. A non-positive
// interval uses DefaultInterval. A nil renderer draws nothing.
func New(renderer Renderer, interval time.Duration) *Display {
	if renderer == nil {
		renderer = Nop{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	d := &Display{
		renderer: renderer,
		interval: interval,
		events:   make(chan lifecycleEvent, 64),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Attach registers a new job with the expected number of bytes.
//
// A handle attached after Join still counts bytes but is never drawn.
func (d *Display) Attach(name string, expected int64) *Handle {
	h := &Handle{
		id:      int(d.nextID.Add(1)),
		name:    name,
		display: d,
	}
	h.total.Store(expected)
	d.send(lifecycleEvent{kind: eventAttach, handle: h})
	return h
}

// Join waits until every event has been consumed, draws the final state
// and closes the renderer. It is safe to call more than once.
func (d *Display) Join() {
	d.sendMu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.sendMu.Unlock()

	<-d.done
}

// States returns a snapshot of every attached job, in attach order.
func (d *Display) States() []BarState {
	d.barsMu.Lock()
	defer d.barsMu.Unlock()

	states := make([]BarState, len(d.bars))
	for i, h := range d.bars {
		states[i] = h.State()
	}
	return states
}

func (d *Display) send(ev lifecycleEvent) {
	d.sendMu.RLock()
	defer d.sendMu.RUnlock()

	if d.closed {
		return
	}
	d.events <- ev
}

func (d *Display) run() {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-d.events:
			if !ok {
				d.renderer.Render(d.States())
				d.renderer.Close()
				return
			}
			switch ev.kind {
			case eventAttach:
				d.barsMu.Lock()
				d.bars = append(d.bars, ev.handle)
				d.barsMu.Unlock()
			case eventFinish:
				d.renderer.Render(d.States())
			}

		case <-ticker.C:
			d.renderer.Render(d.States())
		}
	}
}

// Handle tracks a single job.
type Handle struct {
	id      int
	name    string
	display *Display

	total   atomic.Int64
	written atomic.Int64

	mu         sync.Mutex
	done       bool
	err        error
	finishOnce sync.Once
}

// Advance adds n written bytes.
func (h *Handle) Advance(n int64) {
	h.written.Add(n)
}

// SetTotal replaces the expected size, e.g. once the real content length
// is known.
func (h *Handle) SetTotal(n int64) {
	h.total.Store(n)
}

// Finish marks the job as done; err is nil on success. Only the first call
// has an effect.
func (h *Handle) Finish(err error) {
	h.finishOnce.Do(func() {
		h.mu.Lock()
		h.done = true
		h.err = err
		h.mu.Unlock()

		h.display.send(lifecycleEvent{kind: eventFinish, handle: h})
	})
}

// Written returns the bytes written so far.
func (h *Handle) Written() int64 {
	return h.written.Load()
}

// State returns a snapshot of the handle.
func (h *Handle) State() BarState {
	h.mu.Lock()
	done, err := h.done, h.err
	h.mu.Unlock()

	return BarState{
		ID:      h.id,
		Name:    h.name,
		Total:   h.total.Load(),
		Written: h.written.Load(),
		Done:    done,
		Err:     err,
	}
}
