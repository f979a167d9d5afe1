// Package ioadapter bridges byte-oriented streams to and from the typed
// message system: DataIn frames inbound bytes into messages, DataOut paces
// outbound messages against a stream's write-complete signal.
package ioadapter

import "github.com/olabjorsne/nrc-sub000/core"

// Stream is the four-function trait every adapter depends on. The real
// implementation (serial, socket) lives in the OS porting layer, out of
// scope here; tests and examples supply an in-memory Stream.
type Stream interface {
	Read(buf []byte) (int, error)
	Available() (int, error)
	Clear() error
	Write(buf []byte) error
}

// Event bits carried by RecvEvt for a DataIn adapter's owning node.
const (
	EvtDataAvail core.EventMask = 1 << 16
	EvtTimeout   core.EventMask = 1 << 17
)
