package ioadapter

import (
	"github.com/olabjorsne/nrc-sub000/core"
	"github.com/olabjorsne/nrc-sub000/msg"
	"github.com/olabjorsne/nrc-sub000/node"
	"github.com/olabjorsne/nrc-sub000/status"
)

// Mode selects how DataIn frames inbound bytes.
type Mode int

const (
	ModeInvalid Mode = iota
	ModeDataAvailable
	ModeBuffer
	ModeJSON
)

// ParseMode maps the configured "dataavailable"/"buf"/"json" string onto a
// Mode, as the source's nrc_din_start does.
func ParseMode(s string) Mode {
	switch s {
	case "dataavailable":
		return ModeDataAvailable
	case "buf":
		return ModeBuffer
	case "json":
		return ModeJSON
	default:
		return ModeInvalid
	}
}

// DataIn bridges a Stream into typed messages for its owning node. The
// owning node must forward whatever event bits it receives via RecvEvt to
// HandleEvent.
type DataIn struct {
	owner   core.NodeID
	topic   string
	mode    Mode
	maxSize int
	prio    core.Priority
	stream  Stream
	sender  node.Sender

	jsonBuf   []byte
	jsonDepth int
}

// NewDataIn validates mode and returns a ready adapter.
func NewDataIn(owner core.NodeID, topic string, mode Mode, maxSize int, prio core.Priority, stream Stream, sender node.Sender) (*DataIn, error) {
	if mode == ModeInvalid {
		return nil, status.New(status.INVALID_IN_PARAM, "data-in: invalid configured message type")
	}
	if maxSize <= 0 {
		maxSize = 256
	}
	return &DataIn{
		owner:   owner,
		topic:   topic,
		mode:    mode,
		maxSize: maxSize,
		prio:    prio,
		stream:  stream,
		sender:  sender,
	}, nil
}

// HandleEvent dispatches whichever bits are set in mask. Unknown modes
// reject every event.
func (d *DataIn) HandleEvent(mask core.EventMask) error {
	var err error
	if mask&EvtDataAvail != 0 {
		err = d.onDataAvailable()
	}
	if mask&EvtTimeout != 0 {
		// no timeout-driven behavior is defined for data-in framing.
	}
	return err
}

func (d *DataIn) onDataAvailable() error {
	switch d.mode {
	case ModeDataAvailable:
		return d.sendDataAvailable()
	case ModeBuffer:
		return d.sendBuffer()
	case ModeJSON:
		return d.sendJSON()
	default:
		return status.New(status.NOT_SUPPORTED, "data-in: unsupported mode")
	}
}

func (d *DataIn) sendDataAvailable() error {
	m := msg.Alloc(d.topic)
	m.Kind = msg.DataAvailable
	m.DataAvail = msg.DataAvailablePayload{Node: d.owner, Read: d.stream.Read}
	return d.sender.SendMsgFrom(d.owner, m, d.prio)
}

func (d *DataIn) sendBuffer() error {
	avail, err := d.stream.Available()
	if err != nil {
		return err
	}
	if avail <= 0 {
		return nil
	}
	want := avail
	if want > d.maxSize {
		want = d.maxSize
	}
	buf := make([]byte, want)
	n, err := d.stream.Read(buf)
	if err != nil {
		return err
	}

	m := msg.Alloc(d.topic)
	m.Kind = msg.Buffer
	m.BufVal = buf[:n]
	if err := d.sender.SendMsgFrom(d.owner, m, d.prio); err != nil {
		return err
	}

	if rem, _ := d.stream.Available(); rem > 0 {
		return d.sender.SendEvt(d.owner, EvtDataAvail, d.prio)
	}
	return nil
}

// sendJSON reads byte-by-byte, discarding until an opening brace, then
// accumulates bytes while tracking brace depth, emitting a String message
// once depth returns to zero. On max_size-1 accumulated bytes without
// closure the frame is dropped and the parser resets, reporting
// OUT_OF_MEM. Braces inside string literals are not treated specially —
// an accepted limitation carried over unchanged.
func (d *DataIn) sendJSON() error {
	var one [1]byte
	for {
		n, err := d.stream.Read(one[:])
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		c := one[0]

		if len(d.jsonBuf) == 0 && c != '{' {
			continue
		}

		if c == '{' {
			d.jsonDepth++
		} else if c == '}' {
			d.jsonDepth--
		}
		d.jsonBuf = append(d.jsonBuf, c)

		if d.jsonDepth == 0 {
			m := msg.Alloc(d.topic)
			m.Kind = msg.String
			m.StrVal = string(d.jsonBuf)
			d.jsonBuf = nil

			if err := d.sender.SendMsgFrom(d.owner, m, d.prio); err != nil {
				return err
			}
			if rem, _ := d.stream.Available(); rem > 0 {
				return d.sender.SendEvt(d.owner, EvtDataAvail, d.prio)
			}
			return nil
		}

		if len(d.jsonBuf) == d.maxSize-1 {
			d.jsonBuf = nil
			d.jsonDepth = 0
			return status.New(status.OUT_OF_MEM, "data-in: json frame exceeded max_size, dropped")
		}
	}
}
