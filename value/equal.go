package value

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Equal reports deep structural equality. Objects compare as mappings (member
// order does not matter); arrays compare element-wise. Two numbers are equal
// when they share the same representation (integral or floating) and value.
func Equal(a, b Value) bool {
	a, b = Of(a), Of(b)
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Null:
		return true
	case Bool:
		return x == b.(Bool)
	case Str:
		return x == b.(Str)
	case Number:
		return numberEqual(x, b.(Number))
	case *Array:
		y := b.(*Array)
		if x.Len() != y.Len() {
			return false
		}
		for i, e := range x.Values() {
			if !Equal(e, y.At(i)) {
				return false
			}
		}
		return true
	case *Object:
		y := b.(*Object)
		if x.Len() != y.Len() {
			return false
		}
		eq := true
		x.Range(func(k string, v Value) bool {
			w, ok := y.Lookup(k)
			eq = ok && Equal(v, w)
			return eq
		})
		return eq
	}
	return false
}

func numberEqual(a, b Number) bool {
	if a.IsIntegral() != b.IsIntegral() {
		return false
	}
	if a.IsIntegral() {
		return canonicalInt(a.Literal()) == canonicalInt(b.Literal())
	}
	fa, errA := a.Float64()
	fb, errB := b.Float64()
	if errA != nil || errB != nil {
		return a.Literal() == b.Literal()
	}
	return fa == fb
}

func canonicalInt(lit string) string {
	if lit == "-0" {
		return "0"
	}
	return lit
}

// Hash returns a structural 64-bit hash consistent with Equal.
func Hash(v Value) uint64 {
	d := xxhash.New()
	writeHash(d, Of(v))
	return d.Sum64()
}

func writeHash(d *xxhash.Digest, v Value) {
	var buf [8]byte
	_, _ = d.Write([]byte{byte(v.Kind())})
	switch x := v.(type) {
	case Null:
	case Bool:
		if x {
			_, _ = d.Write([]byte{1})
		} else {
			_, _ = d.Write([]byte{0})
		}
	case Str:
		_, _ = d.WriteString(string(x))
	case Number:
		if x.IsIntegral() {
			_, _ = d.Write([]byte{'i'})
			_, _ = d.WriteString(canonicalInt(x.Literal()))
			return
		}
		_, _ = d.Write([]byte{'f'})
		f, err := x.Float64()
		if err != nil {
			_, _ = d.WriteString(x.Literal())
			return
		}
		if f == 0 {
			f = 0 // fold -0
		}
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = d.Write(buf[:])
	case *Array:
		binary.LittleEndian.PutUint64(buf[:], uint64(x.Len()))
		_, _ = d.Write(buf[:])
		for _, e := range x.Values() {
			writeHash(d, e)
		}
	case *Object:
		// order-insensitive: sum the member hashes
		var sum uint64
		x.Range(func(k string, m Value) bool {
			md := xxhash.New()
			_, _ = md.WriteString(k)
			_, _ = md.Write([]byte{0})
			writeHash(md, m)
			sum += md.Sum64()
			return true
		})
		binary.LittleEndian.PutUint64(buf[:], uint64(x.Len()))
		_, _ = d.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], sum)
		_, _ = d.Write(buf[:])
	}
}
