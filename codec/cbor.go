package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"

	"github.com/unkn0wn-root/jsonshape/value"
)

// CBOR is a Format that serializes value trees using fxamacker/cbor.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
//
// Use deterministic=true for canonical encoding (RFC 8949 Core Deterministic)
// when you need byte-for-byte stable outputs (e.g., hashing/content addressing);
// map keys are then sorted. Otherwise objects are written as CBOR maps in
// member order and read back in the order they appear.
type CBOR struct {
	enc           cbor.EncMode
	dec           cbor.DecMode
	deterministic bool
}

var _ Format = CBOR{}

const (
	cborArray = 4
	cborMap   = 5
)

// NewCBOR constructs a CBOR format.
//   - Deterministic is true, uses CoreDetEncOptions (RFC 8949).
//   - Otherwise uses PreferredUnsortedEncOptions (smaller/faster defaults).
func NewCBOR(deterministic bool) (CBOR, error) {
	var eo cbor.EncOptions
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}

	em, err := eo.EncMode()
	if err != nil {
		return CBOR{}, err
	}
	dm, err := (cbor.DecOptions{}).DecMode()
	if err != nil {
		return CBOR{}, err
	}
	return CBOR{enc: em, dec: dm, deterministic: deterministic}, nil
}

// MustCBOR is like NewCBOR but panics on error.
// Should not use for prod just handy for package-level variables in tests/examples.
func MustCBOR(deterministic bool) CBOR {
	c, err := NewCBOR(deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (CBOR) ID() FormatID { return FormatCBOR }

func (c CBOR) Marshal(v value.Value) ([]byte, error) {
	if c.deterministic {
		n, err := toNative(v)
		if err != nil {
			return nil, err
		}
		return c.enc.Marshal(n)
	}
	return c.appendValue(nil, v)
}

func (c CBOR) appendValue(dst []byte, v value.Value) ([]byte, error) {
	var err error
	switch x := value.Of(v).(type) {
	case *value.Array:
		dst = appendHead(dst, cborArray, uint64(x.Len()))
		for _, e := range x.Values() {
			if dst, err = c.appendValue(dst, e); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case *value.Object:
		dst = appendHead(dst, cborMap, uint64(x.Len()))
		x.Range(func(k string, m value.Value) bool {
			var kb []byte
			if kb, err = c.enc.Marshal(k); err != nil {
				return false
			}
			dst = append(dst, kb...)
			dst, err = c.appendValue(dst, m)
			return err == nil
		})
		return dst, err
	default:
		n, err := toNative(x)
		if err != nil {
			return nil, err
		}
		b, err := c.enc.Marshal(n)
		if err != nil {
			return nil, err
		}
		return append(dst, b...), nil
	}
}

func (c CBOR) Unmarshal(b []byte) (value.Value, error) {
	v, rest, err := c.readValue(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("codec: %d trailing bytes after cbor item", len(rest))
	}
	return v, nil
}

func (c CBOR) readValue(b []byte) (value.Value, []byte, error) {
	if len(b) == 0 {
		return nil, nil, io.ErrUnexpectedEOF
	}
	major := b[0] >> 5
	if (major == cborArray || major == cborMap) && b[0]&0x1f != 31 {
		n, size, err := readHead(b)
		if err != nil {
			return nil, nil, err
		}
		b = b[size:]
		// every item takes at least one byte
		if n > uint64(len(b)) {
			return nil, nil, io.ErrUnexpectedEOF
		}
		if major == cborArray {
			arr := value.NewArrayCap(int(n))
			for i := uint64(0); i < n; i++ {
				var e value.Value
				if e, b, err = c.readValue(b); err != nil {
					return nil, nil, err
				}
				arr.Append(e)
			}
			return arr, b, nil
		}
		obj := value.NewObjectCap(int(n))
		for i := uint64(0); i < n; i++ {
			var k string
			if b, err = c.dec.UnmarshalFirst(b, &k); err != nil {
				return nil, nil, fmt.Errorf("%w: map key: %w", ErrUnsupportedType, err)
			}
			var m value.Value
			if m, b, err = c.readValue(b); err != nil {
				return nil, nil, err
			}
			obj.Set(k, m)
		}
		return obj, b, nil
	}

	// scalars and indefinite-length containers
	var x any
	rest, err := c.dec.UnmarshalFirst(b, &x)
	if err != nil {
		return nil, nil, err
	}
	v, err := fromNative(x)
	return v, rest, err
}

func appendHead(dst []byte, major byte, n uint64) []byte {
	m := major << 5
	switch {
	case n < 24:
		return append(dst, m|byte(n))
	case n <= math.MaxUint8:
		return append(dst, m|24, byte(n))
	case n <= math.MaxUint16:
		return binary.BigEndian.AppendUint16(append(dst, m|25), uint16(n))
	case n <= math.MaxUint32:
		return binary.BigEndian.AppendUint32(append(dst, m|26), uint32(n))
	default:
		return binary.BigEndian.AppendUint64(append(dst, m|27), n)
	}
}

var errBadHead = errors.New("codec: malformed cbor item head")

func readHead(b []byte) (n uint64, size int, err error) {
	info := b[0] & 0x1f
	switch {
	case info < 24:
		return uint64(info), 1, nil
	case info == 24 && len(b) >= 2:
		return uint64(b[1]), 2, nil
	case info == 25 && len(b) >= 3:
		return uint64(binary.BigEndian.Uint16(b[1:])), 3, nil
	case info == 26 && len(b) >= 5:
		return uint64(binary.BigEndian.Uint32(b[1:])), 5, nil
	case info == 27 && len(b) >= 9:
		return binary.BigEndian.Uint64(b[1:]), 9, nil
	}
	return 0, 0, errBadHead
}
