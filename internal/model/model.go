package model

import "fmt"

// #region spec

// Spec is the structural description of a candidate model: an ordered
// stack of layers plus the input width. It is what gets hashed for
// deduplication, so every field here must be deterministic.
type Spec struct {
	Name       string  `json:"name"`
	InputUnits int     `json:"input_units"`
	Layers     []Layer `json:"layers"`
}

// Layer describes one layer of a candidate architecture. Fields holds
// structural knobs that vary by kind (dropout rate, kernel size, ...).
type Layer struct {
	Kind       string             `json:"kind"`
	Units      int                `json:"units"`
	Activation string             `json:"activation,omitempty"`
	Fields     map[string]float64 `json:"fields,omitempty"`
}

// #endregion spec

// #region param-count

// ParamCount estimates the trainable parameter count of the spec.
// Layers with units contribute (fanIn+1)*units (weights + bias);
// unit-less layers (dropout, flatten, ...) contribute nothing and
// pass their fan-in through.
func (s *Spec) ParamCount() int {
	total := 0
	fanIn := s.InputUnits
	for _, l := range s.Layers {
		if l.Units <= 0 {
			continue
		}
		total += (fanIn + 1) * l.Units
		fanIn = l.Units
	}
	return total
}

// #endregion param-count

// #region factory

// Factory produces candidate model specs. Configuration comes from the
// ambient sampling state of the distribution strategy, not a parameter,
// so Build takes no arguments.
type Factory interface {
	Build() (*Spec, error)
}

// FactoryFunc adapts a plain function to the Factory interface.
type FactoryFunc func() (*Spec, error)

// Build calls f.
func (f FactoryFunc) Build() (*Spec, error) { return f() }

// #endregion factory

// #region build-outcome

// BuildOutcome is the result of one wrapped factory invocation. It
// replaces exception-style control flow: a failed or empty build is a
// value, not a panic.
type BuildOutcome struct {
	Spec *Spec
	Err  error
}

// Valid reports whether the build produced a usable spec.
func (b BuildOutcome) Valid() bool {
	return b.Err == nil && b.Spec != nil
}

// Build invokes the factory and converts any failure (error return or
// panic) into an invalid outcome.
func Build(f Factory) (out BuildOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = BuildOutcome{Err: recoveredError{r}}
		}
	}()
	spec, err := f.Build()
	return BuildOutcome{Spec: spec, Err: err}
}

type recoveredError struct{ v any }

func (e recoveredError) Error() string { return fmt.Sprintf("model factory panicked: %v", e.v) }

// #endregion build-outcome
