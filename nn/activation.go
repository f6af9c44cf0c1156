package nn

import (
	"fmt"
	"math"
)

// Activation is a named pair of element-wise functions: the activation
// itself and its derivative, both taken on the pre-activation value.
// Activations are stateless and shared by every layer of a network; the
// name is what gets persisted, never the function values.
type Activation struct {
	name       string
	apply      func(float64) float64
	derivative func(float64) float64
}

func (a Activation) Name() string { return a.name }

// Apply evaluates the activation at x.
func (a Activation) Apply(x float64) float64 { return a.apply(x) }

// Derivative evaluates the activation's derivative at x.
func (a Activation) Derivative(x float64) float64 { return a.derivative(x) }

// Sigmoid is the logistic function 1 / (1 + e^-x).
var Sigmoid = Activation{
	name:  "sigmoid",
	apply: sigmoid,
	derivative: func(x float64) float64 {
		s := sigmoid(x)
		return s * (1.0 - s)
	},
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

var activationMap = map[string]Activation{
	"sigmoid": Sigmoid,
}

// ActivationByName resolves a persisted activation name to its function
// pair. Unknown names fail so a checkpoint can never resurrect an
// activation this build does not ship.
func ActivationByName(name string) (Activation, error) {
	act, ok := activationMap[name]
	if !ok {
		return Activation{}, fmt.Errorf("unknown activation %q: %w", name, ErrCorruptFormat)
	}
	return act, nil
}
