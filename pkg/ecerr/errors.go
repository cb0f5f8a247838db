// Package ecerr defines the three error kinds of the placement and routing
// pipeline: fatal structural errors, logged warnings, and best-effort
// outcomes (spec §7). Only the first kind is ever returned as a Go error
// from the core pipeline; the other two are surfaced through logging and
// diagnostics fields on the data model itself.
package ecerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the fatal structural class.
var (
	ErrModuleNotFound  = errors.New("sub-module type not found")
	ErrTerminalMissing = errors.New("MOS terminal not present among ports")
	ErrBadForward      = errors.New("endpoint forwarding resolved to a non-input/non-power terminal")
	ErrMalformedInput  = errors.New("malformed input netlist")
)

// StructuralError wraps a fatal error with the module and context it
// occurred in, per spec §7.1 ("surfaced as a terminating error with the
// context string").
type StructuralError struct {
	Module  string
	Context string
	Err     error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Module, e.Context, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// NewStructuralError builds a StructuralError.
func NewStructuralError(module, context string, err error) *StructuralError {
	return &StructuralError{Module: module, Context: context, Err: err}
}

// ValidationError accumulates multiple problems found while loading or
// validating a netlist document before a single error is returned.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid netlist: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid netlist:\n  - %s", strings.Join(e.Problems, "\n  - "))
}

// ValidationBuilder accumulates validation problems, matching the teacher's
// ValidationBuilder pattern for multi-error reporting.
type ValidationBuilder struct {
	problems []string
}

// Addf records a problem if condition is false.
func (v *ValidationBuilder) Addf(condition bool, format string, args ...interface{}) *ValidationBuilder {
	if !condition {
		v.problems = append(v.problems, fmt.Sprintf(format, args...))
	}
	return v
}

// HasErrors reports whether any problem has been recorded.
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.problems) > 0
}

// Build returns the accumulated ValidationError, or nil if none were
// recorded.
func (v *ValidationBuilder) Build() error {
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}
