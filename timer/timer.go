// Package timer implements the wall-clock timer wheel: a dedicated
// goroutine that scans an unsorted list of pending timers at a fixed
// resolution and posts events back into the Dispatcher. It deliberately
// does not use a heap — the expected timer count is small (tens), the
// resolution already bounds jitter, and a linear scan keeps the lock hold
// time simple and short.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/olabjorsne/nrc-sub000/core"
	"github.com/olabjorsne/nrc-sub000/log"
	"github.com/olabjorsne/nrc-sub000/node"
)

// DefaultResolution is the wheel's default scan period; sub-resolution
// delays are rounded up to it.
const DefaultResolution = 32 * time.Millisecond

type entry struct {
	deadline  time.Time
	node      core.NodeID
	mask      core.EventMask
	prio      core.Priority
	cancelled bool
}

// Handle identifies a scheduled timer for Cancel.
type Handle struct {
	e *entry
}

// Wheel schedules one-shot timeouts and delivers them as events through a
// node.Sender (normally the Dispatcher). The zero value is not valid; use
// New.
type Wheel struct {
	sender     node.Sender
	resolution time.Duration
	logger     log.Logger

	mu   sync.Mutex
	list []*entry
}

// Option configures a Wheel.
type Option func(*Wheel)

// WithResolution overrides DefaultResolution, mainly for tests that want a
// tighter scan period.
func WithResolution(d time.Duration) Option {
	return func(w *Wheel) {
		if d > 0 {
			w.resolution = d
		}
	}
}

// WithLogger installs a logger; defaults to log.Global().
func WithLogger(l log.Logger) Option {
	return func(w *Wheel) { w.logger = l }
}

// New returns a Wheel that posts fired events through sender.
func New(sender node.Sender, opts ...Option) *Wheel {
	w := &Wheel{
		sender:     sender,
		resolution: DefaultResolution,
		logger:     log.Global(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// After schedules a one-shot event to node at prio, delivering mask after
// at least delay (rounded up to the wheel's resolution).
func (w *Wheel) After(delay time.Duration, target core.NodeID, mask core.EventMask, prio core.Priority) *Handle {
	if delay < w.resolution {
		delay = w.resolution
	}
	e := &entry{
		deadline: time.Now().Add(delay),
		node:     target,
		mask:     mask,
		prio:     prio,
	}
	w.mu.Lock()
	w.list = append(w.list, e)
	w.mu.Unlock()
	return &Handle{e: e}
}

// Cancel marks h cancelled; the next scan drops it without posting an
// event (until then it still counts in Pending). Idempotent-safe against a
// timer that has already fired: the already-delivered event is not
// revoked, and cancelling twice is harmless.
func (w *Wheel) Cancel(h *Handle) {
	if h == nil || h.e == nil {
		return
	}
	w.mu.Lock()
	h.e.cancelled = true
	w.mu.Unlock()
}

// Run scans the list every resolution until ctx is cancelled.
func (w *Wheel) Run(ctx context.Context) {
	ticker := time.NewTicker(w.resolution)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.tick(now)
		}
	}
}

// tick takes the mutex, scans the list, moves all expired and all
// cancelled entries out, releases the mutex, then posts one send_evt per
// fired entry — never calling node code directly.
func (w *Wheel) tick(now time.Time) {
	w.mu.Lock()
	var fired []*entry
	kept := w.list[:0]
	for _, e := range w.list {
		switch {
		case e.cancelled:
			// dropped, no event
		case !e.deadline.After(now):
			fired = append(fired, e)
		default:
			kept = append(kept, e)
		}
	}
	w.list = kept
	w.mu.Unlock()

	for _, e := range fired {
		if err := w.sender.SendEvt(e.node, e.mask, e.prio); err != nil {
			if w.logger.IsEnabled(log.Debug) {
				w.logger.Log(log.Entry{Level: log.Debug, Tag: "timer", Message: "fired timer dropped: target gone", Err: err})
			}
		}
	}
}

// Pending returns the number of timers still scheduled, for tests.
func (w *Wheel) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.list)
}
