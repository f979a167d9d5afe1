package dispatcher

import (
	"fmt"

	"github.com/olabjorsne/nrc-sub000/core"
	"github.com/olabjorsne/nrc-sub000/log"
	"github.com/olabjorsne/nrc-sub000/node"
	"github.com/olabjorsne/nrc-sub000/status"
)

// FlowNode pairs a node's declared identity with its already-constructed
// instance, as produced by a factory.Registry.
type FlowNode struct {
	Header   node.Header
	Instance node.Node
}

// LoadFlow installs a new flow. On re-entry it first cleanly stops every
// currently running node (stop -> deinit -> drop), then for the new flow
// registers every node and calls init then start on each, in the order
// given. A single node's init/start failure moves only that node to
// node.Error; the rest of the flow continues to start.
func (d *Dispatcher) LoadFlow(flow []FlowNode) error {
	d.mu.Lock()
	existing := make([]*nodeEntry, 0, len(d.nodes))
	for _, e := range d.nodes {
		existing = append(existing, e)
	}
	d.mu.Unlock()

	for _, e := range existing {
		d.stopAndDeinit(e)
	}

	d.mu.Lock()
	d.nodes = make(map[core.NodeID]*nodeEntry, len(flow))
	d.inbox = d.inbox[:0]
	d.mu.Unlock()

	for _, fn := range flow {
		if fn.Header.CfgID == "" {
			return status.New(status.INVALID_IN_PARAM, "node with empty configuration id")
		}
		d.mu.Lock()
		if _, dup := d.nodes[fn.Header.CfgID]; dup {
			d.mu.Unlock()
			return status.New(status.INVALID_IN_PARAM, fmt.Sprintf("duplicate configuration id %q", fn.Header.CfgID))
		}
		d.nodes[fn.Header.CfgID] = &nodeEntry{hdr: fn.Header, inst: fn.Instance, state: node.NewFastState()}
		d.mu.Unlock()
	}

	for _, fn := range flow {
		d.initAndStart(fn.Header.CfgID)
	}
	return nil
}

// AddNodes registers every node in flow alongside whatever is already
// running, then inits and starts each in order. Unlike LoadFlow it never
// touches existing nodes: this is what lets a node already mid-Init (the
// Host node building the rest of the configuration) extend the live node
// table without tearing itself down.
func (d *Dispatcher) AddNodes(flow []FlowNode) error {
	for _, fn := range flow {
		if fn.Header.CfgID == "" {
			return status.New(status.INVALID_IN_PARAM, "node with empty configuration id")
		}
		d.mu.Lock()
		if _, dup := d.nodes[fn.Header.CfgID]; dup {
			d.mu.Unlock()
			return status.New(status.INVALID_IN_PARAM, fmt.Sprintf("duplicate configuration id %q", fn.Header.CfgID))
		}
		d.nodes[fn.Header.CfgID] = &nodeEntry{hdr: fn.Header, inst: fn.Instance, state: node.NewFastState()}
		d.mu.Unlock()
	}
	for _, fn := range flow {
		d.initAndStart(fn.Header.CfgID)
	}
	return nil
}

func (d *Dispatcher) lookup(id core.NodeID) *nodeEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nodes[id]
}

func (d *Dispatcher) initAndStart(id core.NodeID) {
	e := d.lookup(id)
	if e == nil {
		return
	}
	ctx := &node.Context{Self: id, RT: d}

	if initer, ok := e.inst.(node.Initializer); ok {
		if err := initer.Init(ctx); err != nil {
			e.state.Store(node.Error)
			d.logf(log.Error, "dispatcher", "init %q: %v", id, err)
			return
		}
	}
	e.state.Store(node.Initialised)

	if starter, ok := e.inst.(node.Starter); ok {
		if err := starter.Start(ctx); err != nil {
			e.state.Store(node.Error)
			d.logf(log.Error, "dispatcher", "start %q: %v", id, err)
			return
		}
	}
	e.state.Store(node.Started)
}

func (d *Dispatcher) stopAndDeinit(e *nodeEntry) {
	ctx := &node.Context{Self: e.hdr.CfgID, RT: d}

	if stopper, ok := e.inst.(node.Stopper); ok {
		if err := stopper.Stop(ctx); err != nil {
			d.logf(log.Warn, "dispatcher", "stop %q: %v", e.hdr.CfgID, err)
		}
	}
	e.state.Store(node.Initialised)

	if deiniter, ok := e.inst.(node.Deinitializer); ok {
		if err := deiniter.Deinit(ctx); err != nil {
			d.logf(log.Warn, "dispatcher", "deinit %q: %v", e.hdr.CfgID, err)
		}
	}
	e.state.Store(node.Deinitialised)
}

// NodeState reports id's current lifecycle state, for tests and status
// reporting.
func (d *Dispatcher) NodeState(id core.NodeID) (node.State, bool) {
	e := d.lookup(id)
	if e == nil {
		return 0, false
	}
	return e.state.Load(), true
}
