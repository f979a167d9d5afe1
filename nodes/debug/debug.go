// Package debug implements the terminal sink node: logs every received
// message and reports COMPLETED status, grounded on
// original_source/nodes/source/nrc_node_debug.c.
package debug

import (
	"fmt"

	"github.com/olabjorsne/nrc-sub000/core"
	"github.com/olabjorsne/nrc-sub000/factory"
	"github.com/olabjorsne/nrc-sub000/log"
	"github.com/olabjorsne/nrc-sub000/msg"
	"github.com/olabjorsne/nrc-sub000/node"
	"github.com/olabjorsne/nrc-sub000/status"
)

// defaultPrio matches inject's fan-out priority: debug is typically the
// sink at the low-priority end of a scenario, but it can run at any
// priority its wire assigns.
const defaultPrio core.Priority = 16

// Node logs whatever it receives via the package-level logger and
// broadcasts COMPLETED on the Status Bus once started.
type Node struct {
	node.Base

	hdr  node.Header
	bus  *status.Bus
	logr log.Logger
}

// Register adds "debug" to reg. bus may be nil, in which case no status
// is reported.
func Register(reg *factory.Registry, bus *status.Bus) error {
	return reg.Register("debug", func(hdr node.Header, cfg factory.Config) (node.Node, error) {
		return &Node{hdr: hdr, bus: bus, logr: log.Global()}, nil
	})
}

// Init performs no setup of its own.
func (n *Node) Init(ctx *node.Context) error { return nil }

// Start reports COMPLETED, the original's chosen kind for a sink that has
// finished standing up and is ready to receive.
func (n *Node) Start(ctx *node.Context) error {
	if n.bus != nil {
		return n.bus.Set("", ctx.Self, status.COMPLETED, n.hdr.CfgType, n.hdr.CfgName, defaultPrio)
	}
	return nil
}

// Stop does nothing further.
func (n *Node) Stop(ctx *node.Context) error { return nil }

// RecvMsg logs the message's topic and, for kinds that carry a
// human-readable value, that value too; it always frees m.
func (n *Node) RecvMsg(ctx *node.Context, m *msg.Message) error {
	switch m.Kind {
	case msg.String:
		n.logr.Log(log.Entry{Level: log.Info, Tag: n.hdr.CfgName, Message: fmt.Sprintf("topic: %s, string: %s", m.Topic, m.StrVal)})
	case msg.Int:
		n.logr.Log(log.Entry{Level: log.Info, Tag: n.hdr.CfgName, Message: fmt.Sprintf("topic: %s, integer: %d", m.Topic, m.IntVal)})
	case msg.DataAvailable:
		n.logr.Log(log.Entry{Level: log.Info, Tag: n.hdr.CfgName, Message: fmt.Sprintf("topic: %s, data available from %s", m.Topic, m.DataAvail.Node)})
	default:
		n.logr.Log(log.Entry{Level: log.Info, Tag: n.hdr.CfgName, Message: fmt.Sprintf("topic: %s", m.Topic)})
	}
	msg.Free(m)
	return nil
}

// RecvEvt is unexpected for a pure sink.
func (n *Node) RecvEvt(ctx *node.Context, mask core.EventMask) error {
	return status.New(status.ERROR, "debug: unexpected event")
}
