package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/unkn0wn-root/jsonshape/value"
)

// Msgpack is a Format that serializes value trees using vmihailenco/msgpack/v5.
// The zero value is ready to use. Objects keep member order.
type Msgpack struct{}

var _ Format = Msgpack{}

func (Msgpack) ID() FormatID { return FormatMsgpack }

func (Msgpack) Marshal(v value.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encodeMsgpack(enc, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeMsgpack(enc *msgpack.Encoder, v value.Value) error {
	switch x := value.Of(v).(type) {
	case value.Null:
		return enc.EncodeNil()
	case value.Bool:
		return enc.EncodeBool(bool(x))
	case value.Str:
		return enc.EncodeString(string(x))
	case value.Number:
		n, err := numberToNative(x)
		if err != nil {
			return err
		}
		switch n := n.(type) {
		case int64:
			return enc.EncodeInt(n)
		case uint64:
			return enc.EncodeUint(n)
		default:
			return enc.EncodeFloat64(n.(float64))
		}
	case *value.Array:
		if err := enc.EncodeArrayLen(x.Len()); err != nil {
			return err
		}
		for _, e := range x.Values() {
			if err := encodeMsgpack(enc, e); err != nil {
				return err
			}
		}
		return nil
	case *value.Object:
		if err := enc.EncodeMapLen(x.Len()); err != nil {
			return err
		}
		var err error
		x.Range(func(k string, m value.Value) bool {
			if err = enc.EncodeString(k); err != nil {
				return false
			}
			err = encodeMsgpack(enc, m)
			return err == nil
		})
		return err
	}
	return fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

func (Msgpack) Unmarshal(b []byte) (value.Value, error) {
	r := bytes.NewReader(b)
	dec := msgpack.NewDecoder(r)
	v, err := decodeMsgpack(dec)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("codec: %d trailing bytes after msgpack item", r.Len())
	}
	return v, nil
}

func decodeMsgpack(dec *msgpack.Decoder) (value.Value, error) {
	c, err := dec.PeekCode()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch {
	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return value.Null{}, nil
		}
		arr := value.NewArrayCap(n)
		for i := 0; i < n; i++ {
			e, err := decodeMsgpack(dec)
			if err != nil {
				return nil, err
			}
			arr.Append(e)
		}
		return arr, nil
	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return value.Null{}, nil
		}
		obj := value.NewObjectCap(n)
		for i := 0; i < n; i++ {
			k, err := dec.DecodeString()
			if err != nil {
				return nil, fmt.Errorf("%w: map key: %w", ErrUnsupportedType, err)
			}
			m, err := decodeMsgpack(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(k, m)
		}
		return obj, nil
	}
	x, err := dec.DecodeInterface()
	if err != nil {
		return nil, err
	}
	return fromNative(x)
}
