package value

// Marshaler is implemented by types that encode themselves to a Value. A type
// whose pointer implements both Marshaler and Unmarshaler is treated as
// hand-coded and is never derived.
type Marshaler interface {
	MarshalValue() (Value, error)
}

// Unmarshaler is implemented by pointers to types that decode themselves from
// a Value.
type Unmarshaler interface {
	UnmarshalValue(Value) error
}
