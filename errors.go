package jsonshape

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/jsonshape/internal/shape"
	"github.com/unkn0wn-root/jsonshape/text"
	"github.com/unkn0wn-root/jsonshape/value"
)

var (
	// ErrShapeMismatch: the Value variant is not what the decoder expects.
	ErrShapeMismatch = errors.New("jsonshape: shape mismatch")
	// ErrUnsupportedShape: the type has no derivation rule.
	ErrUnsupportedShape = shape.ErrUnsupportedShape
	// ErrNoBindingStrategy: a struct has no usable constructor/field binding.
	ErrNoBindingStrategy = shape.ErrNoBindingStrategy
	// ErrUnknownEnumValue: a decoded name matches no enum case.
	ErrUnknownEnumValue = errors.New("jsonshape: unknown enum value")
	// ErrSyntax: malformed JSON text.
	ErrSyntax = text.ErrSyntax
	// ErrUnsupportedValue: a value of a supported type has no JSON form
	// (NaN, infinities).
	ErrUnsupportedValue = errors.New("jsonshape: unsupported value")
	// ErrAlreadyRegistered: an adapter for the type is already cached.
	ErrAlreadyRegistered = errors.New("jsonshape: adapter already registered")
)

// DeriveError is returned when no adapter can be built for Type. It is cached
// with the type, so every later request reports the same failure.
type DeriveError struct {
	Type reflect.Type
	Err  error
}

func (e *DeriveError) Error() string {
	return fmt.Sprintf("jsonshape: derive %v: %v", e.Type, e.Err)
}

func (e *DeriveError) Unwrap() error { return e.Err }

// PathError is an encode or decode failure located inside a value. Path is a
// JSON pointer ("/roles/0"); empty means the root.
type PathError struct {
	Op   string // "encode" or "decode"
	Path string
	Err  error
}

func (e *PathError) Error() string {
	path := e.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("jsonshape: %s %s: %v", e.Op, path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// atKey prefixes err's path with an object key.
func atKey(op string, err error, key string) error {
	return atSegment(op, err, escapePointer(key))
}

// atIndex prefixes err's path with an array index.
func atIndex(op string, err error, i int) error {
	return atSegment(op, err, strconv.Itoa(i))
}

func atSegment(op string, err error, seg string) error {
	var pe *PathError
	if errors.As(err, &pe) && pe.Op == op {
		return &PathError{Op: op, Path: "/" + seg + pe.Path, Err: pe.Err}
	}
	return &PathError{Op: op, Path: "/" + seg, Err: err}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapePointer(s string) string { return pointerEscaper.Replace(s) }

func mismatch(want value.Kind, got value.Value, t reflect.Type) error {
	return fmt.Errorf("%w: %v wants %s, got %s", ErrShapeMismatch, t, want, value.Of(got).Kind())
}
