package backend

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy identifies how the engine's entry points were located.
type Strategy string

const (
	// StrategyInstalled means the entry points were linked in or found on PATH.
	StrategyInstalled Strategy = "installed"
	// StrategyVendored means they were loaded from a cloned engine tree.
	StrategyVendored Strategy = "vendored"
	// StrategyAliased means they were found under the engine's real name.
	StrategyAliased Strategy = "aliased"
)

var (
	// ErrResolution matches any *ResolutionError via errors.Is.
	ErrResolution = errors.New("backend could not be resolved")
	// ErrInit matches any *InitError via errors.Is.
	ErrInit = errors.New("backend failed to initialize")
)

// Attempt records one failed resolution strategy.
type Attempt struct {
	Strategy Strategy
	Err      error
	// Remedy is the command a human can run to make this strategy succeed.
	Remedy string
}

// ResolutionError is the single failure returned when no strategy located
// the engine. Its message lists every attempt with its remediation.
type ResolutionError struct {
	Engine   string
	Package  string
	Attempts []Attempt
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s could not be resolved as package %q; tried %d strategies:", e.Engine, e.Package, len(e.Attempts))
	for i, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  %d. %s: %v", i+1, a.Strategy, a.Err)
		if a.Remedy != "" {
			fmt.Fprintf(&b, "\n     fix: %s", a.Remedy)
		}
	}
	return b.String()
}

// Is reports whether target is ErrResolution.
func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }

// Unwrap returns the causes of every attempt.
func (e *ResolutionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

// InitError reports that the engine was located but its configuration or
// controller could not be constructed.
type InitError struct {
	Engine   string
	Stage    string // "config" or "controller"
	Strategy Strategy
	Err      error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("failed to initialize %s %s (resolved %s): %v", e.Engine, e.Stage, e.Strategy, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InitError) Unwrap() error { return e.Err }

// Is reports whether target is ErrInit.
func (e *InitError) Is(target error) bool { return target == ErrInit }
