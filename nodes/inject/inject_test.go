package inject

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olabjorsne/nrc-sub000/core"
	"github.com/olabjorsne/nrc-sub000/dispatcher"
	"github.com/olabjorsne/nrc-sub000/msg"
	"github.com/olabjorsne/nrc-sub000/node"
	"github.com/olabjorsne/nrc-sub000/timer"
)

// sink records every message it receives, for the periodic-inject
// scenario below.
type sink struct {
	node.Base
	mu   sync.Mutex
	msgs []*msg.Message
}

func (s *sink) RecvMsg(ctx *node.Context, m *msg.Message) error {
	s.mu.Lock()
	s.msgs = append(s.msgs, m)
	s.mu.Unlock()
	return nil
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// TestPeriodicInjectFiresRepeatedly covers scenario 2: a repeating inject
// node wired to a sink delivers one message per period, topic and Kind
// matching the configured source, with the timing ratio (just over 3
// periods yields exactly 3 deliveries) held at a resolution fast enough
// for a unit test.
func TestPeriodicInjectFiresRepeatedly(t *testing.T) {
	const period = 60 * time.Millisecond

	d := dispatcher.New()
	wheel := timer.New(d, timer.WithResolution(10*time.Millisecond))

	s := &sink{}
	n := &Node{topic: "tick", period: period, wheel: wheel}

	err := d.LoadFlow([]dispatcher.FlowNode{
		{Header: node.Header{CfgID: "sink"}, Instance: s},
		{Header: node.Header{CfgID: "inject1", Wires: []core.NodeID{"sink"}}, Instance: n},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go wheel.Run(ctx)
	go d.Run(ctx)

	time.Sleep(period*3 + period/2)

	assert.Equal(t, 3, s.count())

	s.mu.Lock()
	for _, m := range s.msgs {
		assert.Equal(t, "tick", m.Topic)
		assert.Equal(t, msg.Empty, m.Kind)
	}
	s.mu.Unlock()
}

// TestInjectZeroRepeatSendsNothing covers repeat=0: Start schedules
// nothing, so the sink never receives a message.
func TestInjectZeroRepeatSendsNothing(t *testing.T) {
	d := dispatcher.New()
	wheel := timer.New(d, timer.WithResolution(10*time.Millisecond))

	s := &sink{}
	n := &Node{topic: "once", wheel: wheel}

	err := d.LoadFlow([]dispatcher.FlowNode{
		{Header: node.Header{CfgID: "sink"}, Instance: s},
		{Header: node.Header{CfgID: "inject1", Wires: []core.NodeID{"sink"}}, Instance: n},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go wheel.Run(ctx)
	go d.Run(ctx)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, s.count())
	assert.Nil(t, n.handle)
}
