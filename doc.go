// Package jsonshape converts between Go values and JSON value trees
// (package value) by deriving an encoder/decoder pair from the Go type alone.
// Derived adapters are cached per type; precomputed adapters (hand-written,
// built with Builder, or emitted by package gen) override derivation.
//
// Components:
//   - Registry: adapter cache, registration and the derivation engine.
//   - Adapter[T]: Encode(T) / Decode(value.Value) pair, plus combinators
//     (Pair, MapDecoder, ContramapEncoder, Project, Nullable, SliceOf).
//   - Builder[T]: explicit field list + constructor, no field reflection.
//   - ExpectObject, EncodeField, DecodeField, ConstructorFailed: the
//     runtime half of adapters emitted by package gen.
//
// Type shapes:
//
//	bool, ints, uints, floats  -> number / boolean
//	string kinds               -> string
//	String()+Values() types    -> enum, encoded by name
//	*T                         -> null when nil
//	[N]T                       -> array of exactly N
//	[]T, sort.Interface slices -> array (sorted on decode)
//	map[K]struct{}             -> array, duplicates collapse
//	map[string]T               -> object
//	struct                     -> object, fields in declaration order
//
// Struct decoding picks a binding strategy: field injection when no
// constructor is registered, positional binding for a single unnamed
// constructor, and name binding for the one constructor registered with
// parameter names. A missing or null member leaves the field at its zero (or
// constructor-set) value.
//
// Usage:
//
//	s, _ := jsonshape.ToString(User{ID: 1, Name: "toni"})
//	u, ok, err := jsonshape.FromJSON[User](s)
package jsonshape
