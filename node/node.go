// Package node defines the node capability contract: the six-entry
// callback table of the source collapses here into one marker interface
// plus six optional sub-interfaces, each implemented only by the node
// types that support that entry point. The Dispatcher skips a missing
// entry as a no-op: a node without Init or Start still advances to
// Initialised/Started, and a message for a node without RecvMsg is freed.
// No NOT_SUPPORTED code is produced for a missing entry.
package node

import (
	"github.com/olabjorsne/nrc-sub000/core"
	"github.com/olabjorsne/nrc-sub000/msg"
)

// Header carries a node's stable identity and its declared wires. It is
// owned by the Dispatcher's node table, never by the node itself.
type Header struct {
	CfgID   core.NodeID
	CfgType string
	CfgName string
	Wires   []core.NodeID
}

// Sender is the subset of the Dispatcher a node's callbacks are given so
// they can emit messages and events without holding an owning reference to
// the Dispatcher itself.
type Sender interface {
	SendMsgTo(to core.NodeID, m *msg.Message, prio core.Priority) error
	SendMsgFrom(from core.NodeID, m *msg.Message, prio core.Priority) error
	SendEvt(to core.NodeID, mask core.EventMask, prio core.Priority) error
	NodeGet(id core.NodeID) (Header, bool)
}

// Context is passed to every capability callback. Self is the id of the
// node being called, letting a single node implementation serve multiple
// configured instances if it wants to.
type Context struct {
	Self core.NodeID
	RT   Sender
}

// Node is the marker every node type implements. A Node that implements
// none of the optional interfaces below is valid but inert.
type Node interface {
	nrcNode()
}

// Base embeds into a concrete node type to satisfy the Node marker without
// boilerplate, the same way the source's constructors always produced a
// node sharing one static capability table.
type Base struct{}

func (Base) nrcNode() {}

// Initializer is implemented by nodes needing one-time setup after
// construction. Called in configuration order by the Dispatcher's start
// sequence.
type Initializer interface {
	Node
	Init(ctx *Context) error
}

// Deinitializer is implemented by nodes needing teardown before they are
// dropped.
type Deinitializer interface {
	Node
	Deinit(ctx *Context) error
}

// Starter is implemented by nodes that need to begin activity (e.g.
// schedule a timer, open a stream) once the flow is live.
type Starter interface {
	Node
	Start(ctx *Context) error
}

// Stopper is implemented by nodes that need to suspend activity without
// fully deinitialising (the Started -> Initialised reverse transition).
type Stopper interface {
	Node
	Stop(ctx *Context) error
}

// MsgReceiver is implemented by nodes that accept inbound messages. The
// callee owns m on entry; the Dispatcher does not free it on return. A
// node that only forwards (via SendMsgFrom) must not free m itself —
// SendMsgFrom takes ownership and frees after fan-out.
type MsgReceiver interface {
	Node
	RecvMsg(ctx *Context, m *msg.Message) error
}

// EvtReceiver is implemented by nodes that accept event masks (typically
// timer or I/O adapter driven).
type EvtReceiver interface {
	Node
	RecvEvt(ctx *Context, mask core.EventMask) error
}
