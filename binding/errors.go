package binding

import (
	"fmt"

	"github.com/arrix/HAL/engine"
)

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

// ConfigurationError reports an invalid class configuration detected at
// Build() time. Rule names the violated validation rule; a failed build
// never produces a partially-usable descriptor.
type ConfigurationError struct {
	Rule   string
	Detail string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("hal: invalid class configuration (%s): %s", e.Rule, e.Detail)
}

func configErrorf(rule, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Rule: rule, Detail: fmt.Sprintf(format, args...)}
}

// InvocationError reports a script operation attempted against an
// object with no configured handler for it: calling a non-function or
// constructing a non-constructor. It surfaces as a catchable failure.
type InvocationError struct {
	Class string
	Op    string
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return fmt.Sprintf("hal: %s: %s", e.Class, e.Op)
}

// InvalidStateError reports native code invoked against a binding whose
// engine handle has already been finalized.
type InvalidStateError struct {
	Class string
	Op    string
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("hal: %s.%s: native object already finalized", e.Class, e.Op)
}

// EngineError wraps a failure signaled by the engine during object or
// class creation. The engine's diagnostic value, if any, travels with
// the error.
type EngineError struct {
	Op   string
	Diag engine.Value
	Err  error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("hal: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying engine error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// wrapEngineError converts an engine failure into an EngineError,
// extracting the thrown diagnostic value when there is one.
func wrapEngineError(op string, err error) *EngineError {
	ee := &EngineError{Op: op, Diag: engine.Undefined, Err: err}
	if ex, ok := err.(*engine.Exception); ok {
		ee.Diag = ex.Value
	}
	return ee
}
