package dispatcher

import (
	"container/heap"
	"context"

	"github.com/olabjorsne/nrc-sub000/core"
	"github.com/olabjorsne/nrc-sub000/log"
	"github.com/olabjorsne/nrc-sub000/msg"
	"github.com/olabjorsne/nrc-sub000/node"
)

// Run starts the worker and blocks until ctx is cancelled or Shutdown
// completes. It must be called exactly once.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.workerGID.Load() != 0 && d.isWorkerThread() {
		return ErrReentrantRun
	}
	if !d.state.TryTransition(stateAwake, stateRunning) {
		if d.state.Load() == stateTerminated {
			return ErrTerminated
		}
		return ErrAlreadyRunning
	}
	d.workerGID.Store(getGoroutineID())
	defer func() {
		d.state.Store(stateTerminated)
		close(d.done)
	}()

	for {
		entry, ok := d.popWait(ctx)
		if !ok {
			// popWait only returns false once it observed an empty inbox,
			// so there is nothing left to drain.
			d.state.TryTransition(stateRunning, stateTerminating)
			return ctx.Err()
		}
		d.deliver(entry)
	}
}

func (d *Dispatcher) isWorkerThread() bool {
	return d.workerGID.Load() == getGoroutineID()
}

// popWait blocks until an entry is available, ctx is cancelled, or
// shutdown is requested. Returns ok=false on the latter two with an empty
// inbox.
func (d *Dispatcher) popWait(ctx context.Context) (*inboxEntry, bool) {
	for {
		d.mu.Lock()
		if len(d.inbox) > 0 {
			e := heap.Pop(&d.inbox).(*inboxEntry)
			pending := len(d.inbox)
			d.mu.Unlock()
			if d.opts.onOverload != nil && pending > d.opts.inboxCapacity {
				d.opts.onOverload(pending)
			}
			return e, true
		}
		d.mu.Unlock()

		select {
		case <-d.notify:
			continue
		case <-ctx.Done():
			return nil, false
		case <-d.shutdownCh:
			return nil, false
		}
	}
}

// deliver invokes the target node's capability method for entry, freeing
// the message if no live receiver is registered. A receiver owns its
// message on entry; the Dispatcher never frees it after a successful
// RecvMsg call — only when there is nowhere for it to go.
func (d *Dispatcher) deliver(entry *inboxEntry) {
	switch entry.kind {
	case entryMsg:
		d.deliverMsg(entry)
	case entryEvt:
		d.deliverEvt(entry)
	}
}

func (d *Dispatcher) deliverMsg(entry *inboxEntry) {
	d.mu.Lock()
	e, ok := d.nodes[entry.target]
	d.mu.Unlock()
	if !ok || !e.state.IsLive() {
		msg.Free(entry.m)
		return
	}
	recv, ok := e.inst.(node.MsgReceiver)
	if !ok {
		msg.Free(entry.m)
		return
	}
	ctx := &node.Context{Self: entry.target, RT: d}
	if err := recv.RecvMsg(ctx, entry.m); err != nil {
		d.logf(log.Warn, "dispatcher", "recv_msg on %q: %v", entry.target, err)
	}
}

func (d *Dispatcher) deliverEvt(entry *inboxEntry) {
	d.mu.Lock()
	e, ok := d.nodes[entry.target]
	var mask core.EventMask
	if ok {
		mask = entry.evt.mask
		entry.evt.mask = 0
		entry.evt.queued = false
		entry.evt.entry = nil
	}
	d.mu.Unlock()
	if !ok || !e.state.IsLive() {
		return
	}
	recv, ok := e.inst.(node.EvtReceiver)
	if !ok {
		return
	}
	ctx := &node.Context{Self: entry.target, RT: d}
	if err := recv.RecvEvt(ctx, mask); err != nil {
		d.logf(log.Warn, "dispatcher", "recv_evt on %q: %v", entry.target, err)
	}
}

// Shutdown requests the worker stop once its current inbox drains, then
// blocks until it has, or ctx expires.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.shutOnce.Do(func() {
		if d.state.TryTransition(stateAwake, stateTerminated) {
			close(d.done)
			return
		}
		d.state.TryTransition(stateRunning, stateTerminating)
		close(d.shutdownCh)
	})
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
