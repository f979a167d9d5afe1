// Package cfg is a concrete, JSON-backed implementation of the
// Configuration collaborator. The core's contract only requires
// get_node/get_str/get_int/get_str_from_array; the authoring format behind
// those accessors is explicitly out of scope, but a JSON array shape is
// provided here so the Host node and the CLI are runnable end to end.
package cfg

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olabjorsne/nrc-sub000/status"
)

// rawNode mirrors the type/id/name every configuration element carries;
// its other, node-specific fields are looked up on demand from Config.fields.
type rawNode struct {
	Type string
	ID   string
	Name string
}

// Config is a read-only, in-memory view of a parsed configuration
// document, satisfying factory.Config.
type Config struct {
	order []string // cfg ids in document order
	nodes map[string]rawNode
	// fields holds each node's raw field map for get_str/get_int/
	// get_str_from_array lookups, keyed by id.
	fields map[string]map[string]json.RawMessage
}

// Load parses a configuration document from r: a JSON array where each
// element carries at least type/id/name.
func Load(r io.Reader) (*Config, error) {
	var elements []map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&elements); err != nil {
		return nil, status.Wrap(status.INVALID_IN_PARAM, "cfg: malformed configuration document", err)
	}

	c := &Config{
		nodes:  make(map[string]rawNode, len(elements)),
		fields: make(map[string]map[string]json.RawMessage, len(elements)),
	}
	for i, el := range elements {
		var n rawNode
		if raw, ok := el["type"]; ok {
			if err := json.Unmarshal(raw, &n.Type); err != nil {
				return nil, status.Wrap(status.INVALID_IN_PARAM, fmt.Sprintf("cfg: node %d: bad type field", i), err)
			}
		}
		if raw, ok := el["id"]; ok {
			if err := json.Unmarshal(raw, &n.ID); err != nil {
				return nil, status.Wrap(status.INVALID_IN_PARAM, fmt.Sprintf("cfg: node %d: bad id field", i), err)
			}
		}
		if raw, ok := el["name"]; ok {
			_ = json.Unmarshal(raw, &n.Name)
		}
		if n.Type == "" || n.ID == "" {
			return nil, status.New(status.INVALID_IN_PARAM, fmt.Sprintf("cfg: node %d: missing type or id", i))
		}
		if _, dup := c.nodes[n.ID]; dup {
			return nil, status.New(status.INVALID_IN_PARAM, fmt.Sprintf("cfg: duplicate node id %q", n.ID))
		}
		c.order = append(c.order, n.ID)
		c.nodes[n.ID] = n
		c.fields[n.ID] = el
	}
	return c, nil
}

// NodeCount returns how many nodes the document declares.
func (c *Config) NodeCount() int { return len(c.order) }

// GetNode resolves the node at index in document order, returning its
// type, id and name.
func (c *Config) GetNode(index int) (typ, id, name string, ok bool) {
	if index < 0 || index >= len(c.order) {
		return "", "", "", false
	}
	n := c.nodes[c.order[index]]
	return n.Type, n.ID, n.Name, true
}

// Str resolves a string field on node id, satisfying factory.Config.
func (c *Config) Str(id, key string) (string, bool) {
	raw, ok := c.fields[id][key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Int resolves an integer field on node id, satisfying factory.Config.
func (c *Config) Int(id, key string) (int, bool) {
	raw, ok := c.fields[id][key]
	if !ok {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

// StrAt resolves index within the array field key on node id, satisfying
// factory.Config. Used for reading wires and similar array-shaped fields.
func (c *Config) StrAt(id, key string, index int) (string, bool) {
	raw, ok := c.fields[id][key]
	if !ok {
		return "", false
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err != nil {
		return "", false
	}
	if index < 0 || index >= len(arr) {
		return "", false
	}
	return arr[index], true
}

// ArrayLen reports the length of the array field key on node id, letting
// callers iterate StrAt without guessing a bound.
func (c *Config) ArrayLen(id, key string) int {
	raw, ok := c.fields[id][key]
	if !ok {
		return 0
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return 0
	}
	return len(arr)
}
