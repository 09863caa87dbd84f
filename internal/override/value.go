package override

// Value is a tagged override value: either an explicit value or a clear
// instruction. Modeling the reset as its own state keeps "remove the
// override" distinct from a legitimately empty cell value.
type Value struct {
	val   string
	clear bool
}

// Set wraps an explicit override value.
func Set(v string) Value {
	return Value{val: v}
}

// Clear returns the value that removes an override.
func Clear() Value {
	return Value{clear: true}
}

// FromRaw interprets a raw cell or payload string: the sentinel becomes
// Clear, anything else an explicit value. This is the only place the
// sentinel string is decoded.
func FromRaw(raw, sentinel string) Value {
	if raw == sentinel {
		return Clear()
	}
	return Set(raw)
}

// IsClear reports whether the value removes the override.
func (v Value) IsClear() bool {
	return v.clear
}

// String returns the explicit value, or "" for a clear.
func (v Value) String() string {
	return v.val
}
