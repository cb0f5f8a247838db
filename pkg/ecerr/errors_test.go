package ecerr

import (
	"errors"
	"testing"
)

func TestStructuralError_UnwrapAndMessage(t *testing.T) {
	err := NewStructuralError("inv", "resolving module type", ErrModuleNotFound)
	if !errors.Is(err, ErrModuleNotFound) {
		t.Error("Unwrap() must expose the sentinel for errors.Is")
	}
	want := "inv: resolving module type: sub-module type not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestValidationBuilder_SingleProblem(t *testing.T) {
	var v ValidationBuilder
	v.Addf(true, "this should not be recorded")
	v.Addf(false, "module %q: port %q: unknown type %q", "inv", "A", "bogus")

	if !v.HasErrors() {
		t.Fatal("expected a recorded problem")
	}
	err := v.Build()
	want := `invalid netlist: module "inv": port "A": unknown type "bogus"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestValidationBuilder_MultipleProblems(t *testing.T) {
	var v ValidationBuilder
	v.Addf(false, "problem one")
	v.Addf(false, "problem two")

	err := v.Build()
	want := "invalid netlist:\n  - problem one\n  - problem two"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestValidationBuilder_NoProblemsBuildsNil(t *testing.T) {
	var v ValidationBuilder
	v.Addf(true, "fine")
	if v.HasErrors() {
		t.Fatal("no problems should have been recorded")
	}
	if err := v.Build(); err != nil {
		t.Errorf("Build() = %v, want nil", err)
	}
}
