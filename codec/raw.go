package codec

import (
	"github.com/unkn0wn-root/jsonshape"
	"github.com/unkn0wn-root/jsonshape/value"
)

// Values is a codec for raw value trees. Useful when documents have no Go
// type and you only need a format plus the store's framing.
func Values(f Format) Typed[value.Value] {
	return New(jsonshape.ValueAdapter, f)
}
