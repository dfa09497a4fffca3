package engine

// Exception is a script-visible thrown value surfaced through the Go
// error channel. Native callbacks that fail produce an Exception; the
// binding layer propagates it to the caller rather than swallowing it.
type Exception struct {
	Value Value
}

// NewException creates an exception carrying the given diagnostic value.
func NewException(v Value) *Exception {
	return &Exception{Value: v}
}

// NewTypeException creates an exception carrying a string diagnostic,
// used for the engine's default type failures ("not a function" and the
// like).
func NewTypeException(msg string) *Exception {
	return &Exception{Value: FromString(msg)}
}

// Error implements the error interface.
func (e *Exception) Error() string {
	return "engine: " + e.Value.String()
}
