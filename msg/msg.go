// Package msg implements the runtime's message heap: typed, linkable
// allocations guarded by integrity sentinels, with single-owner-on-send
// transfer semantics.
package msg

import (
	"fmt"

	"github.com/olabjorsne/nrc-sub000/core"
)

// Kind discriminates the payload carried by a Message. It replaces the
// source's ad-hoc integer type tags with a closed Go sum type.
type Kind int

const (
	Empty Kind = iota
	Int
	String
	Buffer
	DataAvailable
	Status
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "Empty"
	case Int:
		return "Int"
	case String:
		return "String"
	case Buffer:
		return "Buffer"
	case DataAvailable:
		return "DataAvailable"
	case Status:
		return "Status"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ReadFunc is the read callback carried by a DataAvailable message: it
// pulls up to len(buf) bytes from the originating stream into buf and
// returns how many were copied.
type ReadFunc func(buf []byte) (int, error)

// StatusPayload is the payload carried by a Status-kind message.
type StatusPayload struct {
	Node core.NodeID
	Kind int // status.Kind, kept as int to avoid an import cycle with status
	Text string
}

// DataAvailablePayload is the payload carried by a DataAvailable-kind
// message: a reference to the owning node and a read callback, never the
// bytes themselves.
type DataAvailablePayload struct {
	Node core.NodeID
	Read ReadFunc
}

const magic uint32 = 0xDEADBEEF

// Message is a single heap-allocated record. Zero value is not valid;
// obtain one via Alloc. Messages may form a singly-linked chain via Next;
// the chain is owned by its head.
type Message struct {
	magicHead uint32
	magicTail uint32
	freed     bool

	Next  *Message
	Topic string // borrowed, non-owning
	Kind  Kind

	IntVal    int64
	StrVal    string
	BufVal    []byte
	DataAvail DataAvailablePayload
	StatusVal StatusPayload
}

// Alloc returns a new, zero-initialized Empty message with its integrity
// sentinels set. It takes no payload size and preallocates no byte slice;
// callers set BufVal/StrVal directly once the Kind is known.
func Alloc(topic string) *Message {
	return &Message{
		magicHead: magic,
		magicTail: magic,
		Topic:     topic,
		Kind:      Empty,
	}
}

// checkSentinels panics if either integrity sentinel has been corrupted or
// the message was already freed; this is the sole runtime defense against
// double-free and overwrite bugs.
func (m *Message) checkSentinels() {
	if m == nil {
		panic("msg: nil message")
	}
	if m.freed {
		panic("msg: use after free")
	}
	if m.magicHead != magic || m.magicTail != magic {
		panic("msg: sentinel mismatch, memory corruption detected")
	}
}

// Clone produces a deep copy of the whole chain starting at m. Panics on a
// corrupted sentinel anywhere in the chain, matching the source's
// abort-on-corruption contract.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	m.checkSentinels()
	cp := *m
	cp.Next = nil
	if m.BufVal != nil {
		cp.BufVal = append([]byte(nil), m.BufVal...)
	}
	if m.Next != nil {
		cp.Next = m.Next.Clone()
	}
	return &cp
}

// Free walks m's forward chain, validating both sentinels on each link and
// then invalidating them so any further use panics immediately instead of
// silently reusing freed state.
func Free(m *Message) {
	for m != nil {
		m.checkSentinels()
		next := m.Next
		m.magicHead = 0
		m.magicTail = 0
		m.freed = true
		m.Next = nil
		m = next
	}
}

// Len returns the number of links in the chain starting at m.
func (m *Message) Len() int {
	n := 0
	for cur := m; cur != nil; cur = cur.Next {
		n++
	}
	return n
}
