// Package dispatcher implements the OS core: the priority-ordered
// message/event dispatcher that owns the node table and drives every node
// cooperatively from a single worker goroutine, guaranteeing that no two
// recv_* invocations ever overlap.
package dispatcher

import (
	"container/heap"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/olabjorsne/nrc-sub000/core"
	"github.com/olabjorsne/nrc-sub000/log"
	"github.com/olabjorsne/nrc-sub000/msg"
	"github.com/olabjorsne/nrc-sub000/node"
	"github.com/olabjorsne/nrc-sub000/status"
)

// nodeEntry is the Dispatcher's record for one live node: its declared
// identity, its instance, and its lifecycle state.
type nodeEntry struct {
	hdr   node.Header
	inst  node.Node
	state *node.FastState
	evt   *event
}

// Dispatcher is the cooperative, single-worker scheduler. The zero value
// is not valid; use New.
type Dispatcher struct {
	opts *options

	mu    reentrantMutex
	nodes map[core.NodeID]*nodeEntry
	inbox priorityHeap
	seq   uint64

	notify     chan struct{}
	shutdownCh chan struct{}
	done       chan struct{}
	shutOnce   sync.Once

	state     *fastState
	workerGID atomic.Uint64
}

// New returns an idle Dispatcher. Call Run to start its worker.
func New(opts ...Option) *Dispatcher {
	o := resolveOptions(opts)
	d := &Dispatcher{
		opts:       o,
		nodes:      make(map[core.NodeID]*nodeEntry),
		inbox:      make(priorityHeap, 0, o.inboxCapacity),
		notify:     make(chan struct{}, 1),
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
		state:      newFastState(),
	}
	heap.Init(&d.inbox)
	return d
}

func (d *Dispatcher) logf(level log.Level, tag, msg string, args ...any) {
	if !d.opts.logger.IsEnabled(level) {
		return
	}
	d.opts.logger.Log(log.Entry{Level: level, Tag: tag, Message: fmt.Sprintf(msg, args...)})
}

// --- node.Sender ---

func (d *Dispatcher) nextSeq() uint64 {
	d.seq++
	return d.seq
}

// NodeGet resolves a configuration id to a node's header, or false if no
// live node is registered under it.
func (d *Dispatcher) NodeGet(id core.NodeID) (node.Header, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.nodes[id]
	if !ok {
		return node.Header{}, false
	}
	return e.hdr, true
}

// SendMsgTo enqueues m for delivery to to at prio. Transfers ownership of
// m: on an unknown target it is freed immediately and NotFound is
// returned.
func (d *Dispatcher) SendMsgTo(to core.NodeID, m *msg.Message, prio core.Priority) error {
	d.mu.Lock()
	_, ok := d.nodes[to]
	if !ok {
		d.mu.Unlock()
		msg.Free(m)
		return status.Wrap(status.NOT_FOUND, fmt.Sprintf("send_msg_to: unknown target %q", to), nil)
	}
	e := &inboxEntry{kind: entryMsg, target: to, prio: prio, seq: d.nextSeq(), m: m}
	heap.Push(&d.inbox, e)
	d.mu.Unlock()
	d.wake()
	return nil
}

// SendMsgFrom sends a clone of m to every wire declared by from, at prio,
// then frees m. Zero wires frees m immediately with no inbox entries.
func (d *Dispatcher) SendMsgFrom(from core.NodeID, m *msg.Message, prio core.Priority) error {
	d.mu.Lock()
	e, ok := d.nodes[from]
	if !ok {
		d.mu.Unlock()
		msg.Free(m)
		return status.Wrap(status.NOT_FOUND, fmt.Sprintf("send_msg_from: unknown source %q", from), nil)
	}
	wires := append([]core.NodeID(nil), e.hdr.Wires...)
	d.mu.Unlock()

	for _, w := range wires {
		clone := m.Clone()
		if err := d.SendMsgTo(w, clone, prio); err != nil {
			d.logf(log.Warn, "dispatcher", "send_msg_from: wire %q unreachable from %q: %v", w, from, err)
		}
	}
	msg.Free(m)
	return nil
}

// SendEvt merges mask into to's pending event record at priority
// max(prio, existing). A zero mask is a no-op: no inbox entry is created.
func (d *Dispatcher) SendEvt(to core.NodeID, mask core.EventMask, prio core.Priority) error {
	if mask == 0 {
		return nil
	}
	d.mu.Lock()
	e, ok := d.nodes[to]
	if !ok {
		d.mu.Unlock()
		return status.Wrap(status.NOT_FOUND, fmt.Sprintf("send_evt: unknown target %q", to), nil)
	}
	if e.evt == nil {
		e.evt = &event{}
	}
	ev := e.evt
	ev.mask |= mask
	if !ev.queued {
		ev.queued = true
		ev.prio = prio
		entry := &inboxEntry{kind: entryEvt, target: to, prio: prio, seq: d.nextSeq(), evt: ev}
		ev.entry = entry
		heap.Push(&d.inbox, entry)
	} else if prio > ev.prio {
		ev.prio = prio
		ev.entry.prio = prio
		heap.Fix(&d.inbox, ev.entry.index)
	}
	d.mu.Unlock()
	d.wake()
	return nil
}

// Lock takes the Dispatcher's reentrant lock, for foreign-thread callers
// (timer, I/O adapters) that need to make several coordinated sends while
// observing a consistent view of the node table.
func (d *Dispatcher) Lock() { d.mu.Lock() }

// Unlock releases a lock taken with Lock.
func (d *Dispatcher) Unlock() { d.mu.Unlock() }

func (d *Dispatcher) wake() {
	select {
	case d.notify <- struct{}{}:
	default:
	}
}
