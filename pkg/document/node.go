// Package document holds the format-agnostic tree produced by entity
// serialization and renders it as YAML.
//
// A tree is built by exactly one serialization call and is not safe for
// concurrent mutation. Mapping keys keep insertion order and sequences keep
// element order; the emitter never reorders either.
package document

import (
	"math"
	"strconv"
	"strings"
)

// Node is a scalar, a sequence, or a mapping.
type Node interface {
	node()
}

// ScalarType identifies the YAML core type a Scalar is rendered as.
type ScalarType int

const (
	// StringScalar renders as a string, quoted when it would otherwise be
	// read back as another type.
	StringScalar ScalarType = iota
	// IntScalar renders as a plain integer.
	IntScalar
	// FloatScalar renders as a plain float.
	FloatScalar
	// BoolScalar renders as true or false.
	BoolScalar
)

// Scalar is a leaf value.
type Scalar struct {
	Type  ScalarType
	Value string
}

// Sequence is an ordered list of nodes.
type Sequence struct {
	Items []Node
}

// Mapping is an ordered set of string keys to nodes.
type Mapping struct {
	keys   []string
	values map[string]Node
}

func (*Scalar) node()   {}
func (*Sequence) node() {}
func (*Mapping) node()  {}

// String returns a string scalar.
func String(s string) *Scalar {
	return &Scalar{Type: StringScalar, Value: s}
}

// Int returns an integer scalar.
func Int(i int64) *Scalar {
	return &Scalar{Type: IntScalar, Value: strconv.FormatInt(i, 10)}
}

// Float returns a float scalar in its shortest round-tripping form.
func Float(f float64) *Scalar {
	var v string

	switch {
	case math.IsNaN(f):
		v = ".nan"
	case math.IsInf(f, 1):
		v = ".inf"
	case math.IsInf(f, -1):
		v = "-.inf"
	default:
		v = strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(v, ".e") {
			v += ".0"
		}
	}

	return &Scalar{Type: FloatScalar, Value: v}
}

// Bool returns a boolean scalar.
func Bool(b bool) *Scalar {
	return &Scalar{Type: BoolScalar, Value: strconv.FormatBool(b)}
}

// NewSequence returns a sequence holding items in order.
func NewSequence(items ...Node) *Sequence {
	if items == nil {
		items = []Node{}
	}

	return &Sequence{Items: items}
}

// Append adds n to the end of the sequence.
func (s *Sequence) Append(n Node) {
	s.Items = append(s.Items, n)
}

// Len returns the number of items.
func (s *Sequence) Len() int {
	return len(s.Items)
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Node)}
}

// Set stores v under key. A new key is appended; an existing key keeps its
// position and has its value replaced.
func (m *Mapping) Set(key string, v Node) {
	if m.values == nil {
		m.values = make(map[string]Node)
	}

	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.values[key] = v
}

// Get returns the node stored under key.
func (m *Mapping) Get(key string) (Node, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)

	return out
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	return len(m.keys)
}
