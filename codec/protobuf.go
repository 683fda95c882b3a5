package codec

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/unkn0wn-root/jsonshape/value"
)

// Protobuf is a Format that carries value trees as google.protobuf.Value
// messages. The zero value is ready to use.
//
// Protobuf structs are maps: member order is not kept (members decode in key
// order) and every number travels as a double.
type Protobuf struct {
	// Deterministic sorts map entries on the wire.
	Deterministic bool
}

var _ Format = Protobuf{}

func (Protobuf) ID() FormatID { return FormatProtobuf }

func (p Protobuf) Marshal(v value.Value) ([]byte, error) {
	n, err := toNative(v)
	if err != nil {
		return nil, err
	}
	msg, err := structpb.NewValue(n)
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: p.Deterministic}.Marshal(msg)
}

func (Protobuf) Unmarshal(b []byte) (value.Value, error) {
	var msg structpb.Value
	if err := proto.Unmarshal(b, &msg); err != nil {
		return nil, err
	}
	return fromProto(&msg)
}

func fromProto(m *structpb.Value) (value.Value, error) {
	switch k := m.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return value.Null{}, nil
	case *structpb.Value_BoolValue:
		return value.Bool(k.BoolValue), nil
	case *structpb.Value_StringValue:
		return value.Str(k.StringValue), nil
	case *structpb.Value_NumberValue:
		return floatValue(k.NumberValue)
	case *structpb.Value_ListValue:
		vals := k.ListValue.GetValues()
		arr := value.NewArrayCap(len(vals))
		for _, e := range vals {
			ev, err := fromProto(e)
			if err != nil {
				return nil, err
			}
			arr.Append(ev)
		}
		return arr, nil
	case *structpb.Value_StructValue:
		fields := k.StructValue.GetFields()
		keys := make([]string, 0, len(fields))
		for name := range fields {
			keys = append(keys, name)
		}
		sort.Strings(keys)
		obj := value.NewObjectCap(len(keys))
		for _, name := range keys {
			fv, err := fromProto(fields[name])
			if err != nil {
				return nil, err
			}
			obj.Set(name, fv)
		}
		return obj, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, m.GetKind())
}
