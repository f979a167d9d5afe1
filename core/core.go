// Package core holds the handful of types shared by every layer of the
// runtime (node identity, priority, event masks) so that msg, node, and
// dispatcher can all depend on them without depending on each other.
package core

// NodeID is a configuration id, resolved to a live node only through the
// Dispatcher's node table. Nodes never hold owning references to each
// other, only ids.
type NodeID string

// Priority is an 8-bit signed priority; higher values are serviced first.
type Priority int8

// EventMask is a word-sized bitmask targeted at one node. Repeated posts
// before the node consumes a pending record OR-merge into it.
type EventMask uint32
