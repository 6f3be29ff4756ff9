package core

import "fmt"

// ErrorMarker prefixes the output of an invocation whose backend call failed.
const ErrorMarker = "[xagent-error]"

// FailureKind classifies why a backend call did not produce a result.
type FailureKind string

const (
	// FailureBackendError means the controller returned an error.
	FailureBackendError FailureKind = "backend_error"
	// FailureBackendPanic means the controller panicked and was recovered.
	FailureBackendPanic FailureKind = "backend_panic"
)

// Outcome is the result of a single backend call. Concrete outcomes
// implement the unexported isOutcome marker, so the set is closed:
// Success or Failure.
type Outcome interface{ isOutcome() }

// Success carries the normalized text and the backend's unmodified result.
type Success struct {
	Output string
	Raw    any
}

func (Success) isOutcome() {}

// Failure carries the reason a backend call failed. It is never propagated
// as an error; callers fold it into a result or an error event.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (Failure) isOutcome() {}

// Marker returns the failure rendered as an error-marker output string.
func (f Failure) Marker() string {
	return fmt.Sprintf("%s %s", ErrorMarker, f.Message)
}

// Detail returns the failure in the mapping form stored as a result's Raw.
func (f Failure) Detail() map[string]any {
	return map[string]any{"error": f.Message, "kind": string(f.Kind)}
}

// Result converts an outcome into the canonical InvocationResult.
func Result(o Outcome) InvocationResult {
	switch v := o.(type) {
	case Success:
		return NewInvocationResult(v.Output, v.Raw)
	case Failure:
		return NewInvocationResult(v.Marker(), v.Detail())
	default:
		return NewInvocationResult("", nil)
	}
}
