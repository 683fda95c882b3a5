package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/jsonshape"
	"github.com/unkn0wn-root/jsonshape/text"
	"github.com/unkn0wn-root/jsonshape/value"
)

type doc struct {
	Zeta  string   `json:"zeta"`
	Alpha int      `json:"alpha"`
	Tags  []string `json:"tags"`
	Ratio float64  `json:"ratio"`
	Count uint32   `json:"count"`
	OK    bool     `json:"ok"`
	Next  *doc     `json:"next"`
}

func sampleDoc() doc {
	return doc{
		Zeta:  "z",
		Alpha: -3,
		Tags:  []string{"a", "b"},
		Ratio: 0.25,
		Count: 7,
		OK:    true,
		Next:  &doc{Zeta: "child", Ratio: 2},
	}
}

func formats() map[string]Format {
	return map[string]Format{
		"json":     JSON{},
		"cbor":     MustCBOR(false),
		"cbor-det": MustCBOR(true),
		"msgpack":  Msgpack{},
		"protobuf": Protobuf{Deterministic: true},
		"yaml":     YAML{},
	}
}

func TestTypedRoundTrip(t *testing.T) {
	r := jsonshape.NewRegistry(jsonshape.Options{})
	for name, f := range formats() {
		t.Run(name, func(t *testing.T) {
			c, err := For[doc](r, f)
			require.NoError(t, err)
			assert.Equal(t, f.ID(), c.FormatID())

			b, err := c.Encode(sampleDoc())
			require.NoError(t, err)
			got, err := c.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, sampleDoc(), got)
		})
	}
}

func TestMemberOrderKept(t *testing.T) {
	tree, err := text.Parse(`{"b":1,"a":[true,null,"x",1.5,-2],"c":{"z":"","y":{}}}`)
	require.NoError(t, err)

	for _, name := range []string{"json", "cbor", "msgpack", "yaml"} {
		t.Run(name, func(t *testing.T) {
			c := Values(formats()[name])
			b, err := c.Encode(tree)
			require.NoError(t, err)
			got, err := c.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, tree.String(), got.String())
		})
	}
}

func TestUnorderedFormatsStillEqual(t *testing.T) {
	tree, err := text.Parse(`{"b":1,"a":[true,null,"x",1.5]}`)
	require.NoError(t, err)
	for _, name := range []string{"cbor-det", "protobuf"} {
		c := Values(formats()[name])
		b, err := c.Encode(tree)
		require.NoError(t, err)
		got, err := c.Decode(b)
		require.NoError(t, err)
		assert.True(t, value.Equal(tree, got), name)
	}
}

func TestProtobufSortsMembers(t *testing.T) {
	tree, err := text.Parse(`{"b":1,"a":2}`)
	require.NoError(t, err)
	c := Values(Protobuf{})
	b, err := c.Encode(tree)
	require.NoError(t, err)
	got, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, got.String())
}

func TestDecodeGarbage(t *testing.T) {
	for name, f := range formats() {
		if name == "yaml" {
			continue // almost any text is a YAML scalar
		}
		_, err := f.Unmarshal([]byte{0xff, 0x00, 0x13})
		assert.Error(t, err, name)
	}
}

func TestTrailingBytesRejected(t *testing.T) {
	b, err := Msgpack{}.Marshal(value.Int(1))
	require.NoError(t, err)
	_, err = Msgpack{}.Unmarshal(append(b, 0x01))
	assert.Error(t, err)

	cb := MustCBOR(false)
	b, err = cb.Marshal(value.NewArray(value.Int(1)))
	require.NoError(t, err)
	_, err = cb.Unmarshal(append(b, 0x01))
	assert.Error(t, err)
}

func TestYAMLQuotesAmbiguousStrings(t *testing.T) {
	tree := value.NewObject().Set("s", value.Str("true")).Set("n", value.Str("12"))
	c := Values(YAML{})
	b, err := c.Encode(tree)
	require.NoError(t, err)
	got, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, `{"s":"true","n":"12"}`, got.String())
}

func TestLimitCodec(t *testing.T) {
	inner := Values(JSON{})
	c := LimitCodec[value.Value]{Inner: inner, MaxDecode: 4}
	_, err := c.Decode([]byte(`[1,2,3]`))
	assert.ErrorIs(t, err, ErrTooLarge)

	v, err := c.Decode([]byte(`[1]`))
	require.NoError(t, err)
	assert.Equal(t, `[1]`, v.String())
	assert.Equal(t, FormatJSON, c.FormatID())
}

func TestCompressed(t *testing.T) {
	big := value.NewArray()
	for i := 0; i < 200; i++ {
		big.Append(value.Str(strings.Repeat("payload", 4)))
	}
	raw, err := JSON{}.Marshal(big)
	require.NoError(t, err)

	for _, algo := range []Compression{CompressionLZ4, CompressionZSTD, CompressionNone} {
		t.Run(algo.String(), func(t *testing.T) {
			c := Compressed[value.Value]{Inner: Values(JSON{}), Algorithm: algo}
			b, err := c.Encode(big)
			require.NoError(t, err)
			if algo != CompressionNone {
				assert.Less(t, len(b), len(raw))
			}
			assert.Equal(t, byte(algo), b[0])

			got, err := c.Decode(b)
			require.NoError(t, err)
			assert.True(t, value.Equal(big, got))
		})
	}
}

func TestCompressedSmallPayloadStoredRaw(t *testing.T) {
	c := Compressed[value.Value]{Inner: Values(JSON{}), Algorithm: CompressionZSTD}
	b, err := c.Encode(value.Int(1))
	require.NoError(t, err)
	assert.Equal(t, byte(CompressionNone), b[0])
	got, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "1", got.String())
}

func TestCompressedRejectsCorruptFrames(t *testing.T) {
	c := Compressed[value.Value]{Inner: Values(JSON{}), Algorithm: CompressionLZ4}
	_, err := c.Decode([]byte{1, 0})
	assert.ErrorIs(t, err, ErrCorruptFrame)

	_, err = c.Decode([]byte{9, 1, 0, 0, 0, 'x'})
	assert.ErrorIs(t, err, ErrCorruptFrame)

	c.MaxDecoded = 8
	_, err = c.Decode([]byte{0, 16, 0, 0, 0})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestNativeConversionErrors(t *testing.T) {
	_, err := fromNative([]byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = fromNative(map[any]any{1: "x"})
	assert.ErrorIs(t, err, ErrUnsupportedType)

	v, err := fromNative(map[string]any{"b": 1.0, "a": uint8(2)})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, v.String())
}
