// Package inject implements the periodic source node: fires an Empty
// message with a configured topic every repeat seconds. With repeat zero
// no timer is scheduled and no message is sent. Grounded on
// original_source/nodes/source/nrc_node_inject.c.
package inject

import (
	"time"

	"github.com/olabjorsne/nrc-sub000/core"
	"github.com/olabjorsne/nrc-sub000/factory"
	"github.com/olabjorsne/nrc-sub000/log"
	"github.com/olabjorsne/nrc-sub000/msg"
	"github.com/olabjorsne/nrc-sub000/node"
	"github.com/olabjorsne/nrc-sub000/status"
	"github.com/olabjorsne/nrc-sub000/timer"
)

// defaultPrio matches the source's hard-coded inject priority.
const defaultPrio core.Priority = 16

// Node is a periodic source: on each timer firing it sends an Empty
// message carrying the configured topic along its declared wires.
type Node struct {
	node.Base

	hdr    node.Header
	topic  string
	period time.Duration

	wheel  *timer.Wheel
	handle *timer.Handle
}

// Register adds "inject" to reg.
func Register(reg *factory.Registry, wheel *timer.Wheel) error {
	return reg.Register("inject", func(hdr node.Header, cfg factory.Config) (node.Node, error) {
		topic, ok := cfg.Str(string(hdr.CfgID), "topic")
		if !ok {
			return nil, status.New(status.INVALID_IN_PARAM, "inject: missing topic")
		}
		repeatS, _ := cfg.Int(string(hdr.CfgID), "repeat")

		return &Node{
			hdr:    hdr,
			topic:  topic,
			period: time.Duration(repeatS) * time.Second,
			wheel:  wheel,
		}, nil
	})
}

// Init validates nothing further: all configuration was already resolved
// by the factory constructor.
func (n *Node) Init(ctx *node.Context) error {
	return nil
}

// Start schedules the first timer firing, if period is non-zero.
func (n *Node) Start(ctx *node.Context) error {
	if n.period > 0 {
		n.handle = n.wheel.After(n.period, ctx.Self, timerEvt, defaultPrio)
	}
	return nil
}

// Stop cancels any pending timer.
func (n *Node) Stop(ctx *node.Context) error {
	if n.handle != nil {
		n.wheel.Cancel(n.handle)
		n.handle = nil
	}
	return nil
}

const timerEvt core.EventMask = 1

// RecvEvt re-arms the repeating timer (so the period holds even if the
// send below fails) then emits the payload message.
func (n *Node) RecvEvt(ctx *node.Context, mask core.EventMask) error {
	if mask&timerEvt == 0 {
		return status.New(status.INVALID_IN_PARAM, "inject: unexpected event")
	}
	if n.period > 0 {
		n.handle = n.wheel.After(n.period, ctx.Self, timerEvt, defaultPrio)
	}

	m := msg.Alloc(n.topic)
	if err := ctx.RT.SendMsgFrom(ctx.Self, m, defaultPrio); err != nil {
		if l := log.Global(); l.IsEnabled(log.Warn) {
			l.Log(log.Entry{Level: log.Warn, Tag: "inject", Message: "send failed", Err: err})
		}
		return err
	}
	return nil
}

// RecvMsg is unexpected: inject is a pure source and frees anything sent
// to it, matching the source's "Unexpected msg" handling.
func (n *Node) RecvMsg(ctx *node.Context, m *msg.Message) error {
	msg.Free(m)
	return status.New(status.ERROR, "inject: unexpected message")
}
