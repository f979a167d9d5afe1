package ioadapter

import (
	"sync"

	"github.com/olabjorsne/nrc-sub000/msg"
	"github.com/olabjorsne/nrc-sub000/status"
)

// DoutState is the data-out adapter's state machine position.
type DoutState int

const (
	Idle DoutState = iota
	TxBuf
	TxDataAvail
)

func (s DoutState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case TxBuf:
		return "TxBuf"
	case TxDataAvail:
		return "TxDataAvail"
	default:
		return "Unknown"
	}
}

// DataOut consumes Buffer or DataAvailable messages and paces writes
// against a stream's asynchronous write-complete signal. Any message
// received outside Idle is freed (drop-newest back-pressure): a write is
// already underway holding the current buffer, and queueing here would
// duplicate the Dispatcher's own inbox.
type DataOut struct {
	bufSize int
	stream  Stream

	mu      sync.Mutex
	state   DoutState
	pending *msg.Message // head of the chain currently being written, TxBuf only
	readFn  msg.ReadFunc
	scratch []byte // data-available write buffer, sized bufSize
}

// NewDataOut returns an Idle adapter writing to stream with scratch writes
// capped at bufSize bytes.
func NewDataOut(bufSize int, stream Stream) *DataOut {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &DataOut{bufSize: bufSize, stream: stream}
}

// State reports the adapter's current position, for tests.
func (o *DataOut) State() DoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Handle processes an inbound message. The caller (the owning node's
// RecvMsg) transfers ownership of m to Handle.
func (o *DataOut) Handle(m *msg.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != Idle {
		msg.Free(m)
		return status.New(status.INVALID_STATE, "data-out: busy, message dropped")
	}

	switch m.Kind {
	case msg.Buffer:
		return o.writeBufLocked(m)
	case msg.DataAvailable:
		return o.writeDataAvailLocked(m)
	default:
		msg.Free(m)
		return status.New(status.NOT_SUPPORTED, "data-out: unsupported message kind")
	}
}

// WriteComplete is invoked asynchronously by the stream/port layer once an
// issued write finishes.
func (o *DataOut) WriteComplete() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case TxBuf:
		next := o.pending.Next
		o.pending.Next = nil
		msg.Free(o.pending)
		o.pending = nil
		o.state = Idle
		if next != nil {
			return o.writeBufLocked(next)
		}
		return nil
	case TxDataAvail:
		o.state = Idle
		return o.writeDataAvailLocked(nil)
	default:
		return status.New(status.INVALID_STATE, "data-out: write_complete outside an active write")
	}
}

func (o *DataOut) writeBufLocked(m *msg.Message) error {
	if len(m.BufVal) == 0 {
		m.Next = nil
		msg.Free(m)
		o.state = Idle
		return nil
	}
	if err := o.stream.Write(m.BufVal); err != nil {
		m.Next = nil
		msg.Free(m)
		o.state = Idle
		return status.Wrap(status.ERROR, "data-out: write failed", err)
	}
	o.pending = m
	o.state = TxBuf
	return nil
}

func (o *DataOut) writeDataAvailLocked(m *msg.Message) error {
	if m != nil && m.DataAvail.Read != nil {
		o.readFn = m.DataAvail.Read
	}
	if o.readFn == nil {
		if m != nil {
			msg.Free(m)
		}
		o.state = Idle
		return status.New(status.INVALID_STATE, "data-out: no read callback bound")
	}
	if o.scratch == nil {
		o.scratch = make([]byte, o.bufSize)
	}
	n, err := o.readFn(o.scratch)

	o.state = Idle
	if n > 0 {
		if werr := o.stream.Write(o.scratch[:n]); werr == nil {
			o.state = TxDataAvail
		} else {
			err = werr
		}
	}
	if m != nil {
		msg.Free(m)
	}
	return err
}
