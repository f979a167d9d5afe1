package ioadapter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olabjorsne/nrc-sub000/msg"
)

// captureStream records every Write call's payload; WriteComplete is
// driven manually by the test to control pacing.
type captureStream struct {
	mu      sync.Mutex
	writes  [][]byte
}

func (c *captureStream) Read(buf []byte) (int, error) { return 0, nil }
func (c *captureStream) Available() (int, error)       { return 0, nil }
func (c *captureStream) Clear() error                  { return nil }

func (c *captureStream) Write(buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := append([]byte(nil), buf...)
	c.writes = append(c.writes, cp)
	return nil
}

func (c *captureStream) snapshot() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.writes...)
}

// TestDataOutDataAvailableRoundTrip covers scenario 4: a 7-byte source
// paced through a 4-byte buffer issues a 4-byte write, then on completion
// a 3-byte write, then returns to Idle; exactly one message is freed.
func TestDataOutDataAvailableRoundTrip(t *testing.T) {
	stream := &captureStream{}
	out := NewDataOut(4, stream)

	remaining := []byte("1234567")
	readFn := func(buf []byte) (int, error) {
		n := copy(buf, remaining)
		remaining = remaining[n:]
		return n, nil
	}

	m := msg.Alloc("t")
	m.Kind = msg.DataAvailable
	m.DataAvail.Read = readFn

	require.NoError(t, out.Handle(m))
	assert.Equal(t, TxDataAvail, out.State())

	require.NoError(t, out.WriteComplete())
	assert.Equal(t, TxDataAvail, out.State())

	require.NoError(t, out.WriteComplete())
	assert.Equal(t, Idle, out.State())

	writes := stream.snapshot()
	require.Len(t, writes, 2)
	assert.Equal(t, "1234", string(writes[0]))
	assert.Equal(t, "567", string(writes[1]))
	assert.Panics(t, func() { msg.Free(m) }, "message should already be freed")
}

// TestDataOutZeroLengthBufferSkipsWrite covers the boundary behavior:
// Buffer with zero-length payload skips the write and leaves state Idle.
func TestDataOutZeroLengthBufferSkipsWrite(t *testing.T) {
	stream := &captureStream{}
	out := NewDataOut(4, stream)

	m := msg.Alloc("t")
	m.Kind = msg.Buffer
	m.BufVal = nil

	require.NoError(t, out.Handle(m))
	assert.Equal(t, Idle, out.State())
	assert.Empty(t, stream.snapshot())
	assert.Panics(t, func() { msg.Free(m) }, "message should already be freed")
}

// TestDataOutDropsNewestWhenBusy exercises the back-pressure contract:
// a message arriving while busy is dropped (freed) rather than queued.
func TestDataOutDropsNewestWhenBusy(t *testing.T) {
	stream := &captureStream{}
	out := NewDataOut(4, stream)

	first := msg.Alloc("t")
	first.Kind = msg.Buffer
	first.BufVal = []byte("ab")
	require.NoError(t, out.Handle(first))
	require.Equal(t, TxBuf, out.State())

	second := msg.Alloc("t")
	second.Kind = msg.Buffer
	second.BufVal = []byte("cd")
	err := out.Handle(second)
	require.Error(t, err)
	assert.Panics(t, func() { msg.Free(second) }, "message should already be freed")

	require.NoError(t, out.WriteComplete())
	assert.Equal(t, Idle, out.State())
}
