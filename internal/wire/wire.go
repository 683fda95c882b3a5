package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 1 + 4
)

var (
	ErrCorrupt = errors.New("jsonshape: corrupt envelope")
	magic4     = [...]byte{'J', 'S', 'H', 'P'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames a document payload:
//
//	magic(4) | ver(1) | format(1) | vlen(u32 be) | payload(vlen)
//
// format is the codec.FormatID that produced payload (0 = unknown).
func Encode(format byte, payload []byte) []byte {
	out := make([]byte, hdrLen+len(payload))
	copy(out, magic4[:])
	out[4] = version
	out[5] = format
	binary.BigEndian.PutUint32(out[6:], uint32(len(payload)))
	copy(out[hdrLen:], payload)
	return out
}

// Decode validates the envelope and returns its format byte and payload.
// The payload aliases b.
func Decode(b []byte) (format byte, payload []byte, err error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return 0, nil, ErrCorrupt
	}
	vlen := binary.BigEndian.Uint32(b[6:hdrLen])
	if uint64(vlen) != uint64(len(b)-hdrLen) {
		return 0, nil, ErrCorrupt
	}
	return b[5], b[hdrLen:], nil
}
