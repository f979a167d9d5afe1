package status

import (
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"

	"github.com/olabjorsne/nrc-sub000/core"
	"github.com/olabjorsne/nrc-sub000/msg"
	"github.com/olabjorsne/nrc-sub000/node"
)

// listener is one registered recipient of status updates. group == ""
// means listen-all, mirroring the source's NULL-group wildcard.
type listener struct {
	node  core.NodeID
	group string
}

// Bus fans Status messages out to every registered listener whose group
// matches. Listener identity is the node id: a node may only register
// once.
type Bus struct {
	sender node.Sender

	mu        sync.Mutex
	listeners []listener

	limiter *catrate.Limiter
}

// Option configures a Bus.
type Option func(*Bus)

// WithRateLimit installs a per-reporting-node flood control so a node
// stuck in a tight error/reconnect loop cannot starve the Dispatcher's
// inbox with Status messages. Without this option Set behaves exactly as
// an unconditional fan-out.
func WithRateLimit(rates map[time.Duration]int) Option {
	return func(b *Bus) {
		b.limiter = catrate.NewLimiter(rates)
	}
}

// NewBus returns a Bus that sends fanned-out Status messages through sender.
func NewBus(sender node.Sender, opts ...Option) *Bus {
	b := &Bus{sender: sender}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Set allocates one Status message per registered listener whose group
// equals group or who registered with an empty group (listen-all), and
// sends it through the Dispatcher at prio. An empty group passed to Set
// reaches only the listen-all listeners.
func (b *Bus) Set(group string, reporter core.NodeID, kind Kind, topic, text string, prio core.Priority) error {
	if b.limiter != nil {
		if _, ok := b.limiter.Allow(reporter); !ok {
			return nil
		}
	}

	b.mu.Lock()
	targets := make([]core.NodeID, 0, len(b.listeners))
	for _, l := range b.listeners {
		if l.group == "" || l.group == group {
			targets = append(targets, l.node)
		}
	}
	b.mu.Unlock()

	var firstErr error
	for _, t := range targets {
		m := msg.Alloc(topic)
		m.Kind = msg.Status
		m.StatusVal = msg.StatusPayload{Node: reporter, Kind: int(kind), Text: text}
		if err := b.sender.SendMsgTo(t, m, prio); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// StartListen registers listenerNode for group ("" = listen-all).
func (b *Bus) StartListen(group string, listenerNode core.NodeID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.listeners {
		if l.node == listenerNode {
			return New(INVALID_IN_PARAM, "status: node already registered as a listener")
		}
	}
	b.listeners = append(b.listeners, listener{node: listenerNode, group: group})
	return nil
}

// StopListen removes listenerNode's registration. Idempotent: removing an
// unregistered node is a no-op.
func (b *Bus) StopListen(listenerNode core.NodeID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.listeners {
		if l.node == listenerNode {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}
