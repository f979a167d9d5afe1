// Package host implements the bootstrap/controller node: on Init it reads
// the rest of the configuration document, asks the Factory to construct
// every other node, and registers them with the Dispatcher. It is an
// ordinary node.Node, not a privileged type — it simply runs first.
package host

import (
	"fmt"

	"github.com/olabjorsne/nrc-sub000/cfg"
	"github.com/olabjorsne/nrc-sub000/core"
	"github.com/olabjorsne/nrc-sub000/dispatcher"
	"github.com/olabjorsne/nrc-sub000/factory"
	"github.com/olabjorsne/nrc-sub000/node"
	"github.com/olabjorsne/nrc-sub000/status"
)

// disp is the subset of *dispatcher.Dispatcher the Host needs beyond the
// node.Sender contract already passed via node.Context.
type disp interface {
	AddNodes(flow []dispatcher.FlowNode) error
}

// Host is the bootstrap node. cfgID is the id reserved for the Host's own
// configuration entry so it can be excluded when constructing the rest.
type Host struct {
	node.Base

	cfgID   core.NodeID
	cfg     *cfg.Config
	factory *factory.Registry
	disp    disp
}

// New returns a Host bound to cfg and factory, registering new nodes
// through disp. cfgID is the Host's own configuration id, skipped when
// walking the document for the rest of the flow.
func New(cfgID core.NodeID, config *cfg.Config, reg *factory.Registry, d disp) *Host {
	return &Host{cfgID: cfgID, cfg: config, factory: reg, disp: d}
}

// Init constructs every other configured node and registers them with the
// Dispatcher, resolving each node's wires field into target configuration
// ids. Host deliberately has no Start: nothing further is needed once the
// child nodes are live.
func (h *Host) Init(ctx *node.Context) error {
	var flow []dispatcher.FlowNode
	for i := 0; i < h.cfg.NodeCount(); i++ {
		typ, id, name, ok := h.cfg.GetNode(i)
		if !ok {
			continue
		}
		if core.NodeID(id) == h.cfgID {
			continue
		}

		hdr := node.Header{
			CfgID:   core.NodeID(id),
			CfgType: typ,
			CfgName: name,
			Wires:   h.resolveWires(id),
		}
		inst, err := h.factory.Create(hdr, h.cfg)
		if err != nil {
			return status.Wrap(status.ERROR, fmt.Sprintf("host: constructing node %q (%q)", id, typ), err)
		}
		flow = append(flow, dispatcher.FlowNode{Header: hdr, Instance: inst})
	}

	return h.disp.AddNodes(flow)
}

// resolveWires reads the node's "wires" array field in full, stopping at
// the first missing index.
func (h *Host) resolveWires(id string) []core.NodeID {
	var wires []core.NodeID
	for i := 0; ; i++ {
		w, ok := h.cfg.StrAt(id, "wires", i)
		if !ok {
			break
		}
		wires = append(wires, core.NodeID(w))
	}
	return wires
}
