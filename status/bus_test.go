package status

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olabjorsne/nrc-sub000/core"
	"github.com/olabjorsne/nrc-sub000/msg"
	"github.com/olabjorsne/nrc-sub000/node"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []core.NodeID
}

func (s *recordingSender) SendMsgTo(to core.NodeID, m *msg.Message, prio core.Priority) error {
	s.mu.Lock()
	s.sent = append(s.sent, to)
	s.mu.Unlock()
	msg.Free(m)
	return nil
}

func (s *recordingSender) SendMsgFrom(core.NodeID, *msg.Message, core.Priority) error { return nil }
func (s *recordingSender) SendEvt(core.NodeID, core.EventMask, core.Priority) error   { return nil }
func (s *recordingSender) NodeGet(core.NodeID) (node.Header, bool)                   { return node.Header{}, false }

func TestSetFansOutOnlyToMatchingGroup(t *testing.T) {
	sender := &recordingSender{}
	b := NewBus(sender)

	require.NoError(t, b.StartListen("alerts", "listener-a"))
	require.NoError(t, b.StartListen("other", "listener-b"))
	require.NoError(t, b.StartListen("", "listener-all"))

	require.NoError(t, b.Set("alerts", "reporter", STARTED, "t", "", 1))

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.ElementsMatch(t, []core.NodeID{"listener-a", "listener-all"}, sender.sent)
}

func TestStartListenRejectsDuplicateRegistration(t *testing.T) {
	b := NewBus(&recordingSender{})
	require.NoError(t, b.StartListen("g", "n"))
	err := b.StartListen("g", "n")
	assert.Error(t, err)
}

func TestStopListenIsIdempotent(t *testing.T) {
	b := NewBus(&recordingSender{})
	require.NoError(t, b.StartListen("g", "n"))
	b.StopListen("n")
	assert.NotPanics(t, func() { b.StopListen("n") })
	assert.Empty(t, b.listeners)
}
