// Package factory maps a configuration type-tag to a node constructor,
// grounded on the source's type_tag -> constructor registry: register
// rejects duplicates, create looks the tag up and invokes it.
package factory

import (
	"fmt"
	"sync"

	"github.com/olabjorsne/nrc-sub000/node"
	"github.com/olabjorsne/nrc-sub000/status"
)

// Constructor builds a node instance for hdr. Constructors are pure with
// respect to the wider system: they may read cfg but must not send
// messages or start timers — that belongs in Init/Start.
type Constructor func(hdr node.Header, cfg Config) (node.Node, error)

// Config is the minimal configuration accessor a constructor needs,
// satisfied by cfg.Config.
type Config interface {
	Str(id string, key string) (string, bool)
	Int(id string, key string) (int, bool)
	StrAt(id string, key string, index int) (string, bool)
}

// Registry is a type_tag -> Constructor map guarded by a mutex; the
// source's equivalent is a singly-linked list walked on every create,
// acceptable there because registration happens once at boot and lookups
// are few — the same holds here, so a map trades the list walk for O(1)
// lookup without changing any observable behavior.
type Registry struct {
	mu   sync.RWMutex
	ctor map[string]Constructor
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{ctor: make(map[string]Constructor)}
}

// Register adds ctor under tag. Returns an error if tag is already
// registered.
func (r *Registry) Register(tag string, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctor[tag]; exists {
		return status.New(status.INVALID_IN_PARAM, fmt.Sprintf("factory: type %q already registered", tag))
	}
	r.ctor[tag] = ctor
	return nil
}

// Create looks up hdr.CfgType and invokes its constructor.
func (r *Registry) Create(hdr node.Header, cfg Config) (node.Node, error) {
	r.mu.RLock()
	ctor, ok := r.ctor[hdr.CfgType]
	r.mu.RUnlock()
	if !ok {
		return nil, status.New(status.NOT_FOUND, fmt.Sprintf("factory: no constructor for type %q", hdr.CfgType))
	}
	return ctor(hdr, cfg)
}
