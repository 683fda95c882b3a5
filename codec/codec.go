// Package codec turns typed values into bytes for storage or transport. A
// Codec[V] pairs a jsonshape adapter (V <-> value tree) with a Format
// (value tree <-> bytes), so every format shares the same derived mapping.
package codec

import (
	"github.com/unkn0wn-root/jsonshape"
	"github.com/unkn0wn-root/jsonshape/value"
)

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// FormatID tags payloads in stored envelopes so a reader can tell which
// format wrote them.
type FormatID uint8

const (
	FormatJSON FormatID = iota + 1
	FormatCBOR
	FormatMsgpack
	FormatProtobuf
	FormatYAML
)

// Format serializes value trees.
type Format interface {
	ID() FormatID
	Marshal(value.Value) ([]byte, error)
	Unmarshal([]byte) (value.Value, error)
}

// Typed is the Codec built from an adapter and a format.
type Typed[V any] struct {
	adapter jsonshape.Adapter[V]
	format  Format
}

var _ Codec[struct{}] = Typed[struct{}]{}

// New binds a to f.
func New[V any](a jsonshape.Adapter[V], f Format) Typed[V] {
	return Typed[V]{adapter: a, format: f}
}

// For binds the adapter of V in r to f.
func For[V any](r *jsonshape.Registry, f Format) (Typed[V], error) {
	a, err := jsonshape.AdapterFor[V](r)
	if err != nil {
		return Typed[V]{}, err
	}
	return New(a, f), nil
}

// FormatID reports the id of the underlying format.
func (c Typed[V]) FormatID() FormatID { return c.format.ID() }

func (c Typed[V]) Encode(v V) ([]byte, error) {
	tree, err := c.adapter.Encode(v)
	if err != nil {
		return nil, err
	}
	return c.format.Marshal(tree)
}

func (c Typed[V]) Decode(b []byte) (V, error) {
	tree, err := c.format.Unmarshal(b)
	if err != nil {
		var zero V
		return zero, err
	}
	return c.adapter.Decode(tree)
}
