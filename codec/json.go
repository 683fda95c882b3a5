package codec

import (
	"bytes"

	"github.com/unkn0wn-root/jsonshape/text"
	"github.com/unkn0wn-root/jsonshape/value"
)

// JSON is compact JSON text. The zero value is ready to use.
type JSON struct {
	MaxDepth int // 0 => text.DefaultMaxDepth
}

var _ Format = JSON{}

func (JSON) ID() FormatID { return FormatJSON }

func (JSON) Marshal(v value.Value) ([]byte, error) {
	return value.AppendJSON(nil, v), nil
}

func (f JSON) Unmarshal(b []byte) (value.Value, error) {
	return text.ParseReader(bytes.NewReader(b), text.Options{MaxDepth: f.MaxDepth})
}
