package nn

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Network is a dense feed-forward neural network. Weight matrix i has
// shape arch[i+1] x arch[i] and bias vector i has shape arch[i+1] x 1,
// so one layer transition is a = act(W*a_prev + b).
//
// FeedForward and TrainStep retain per-layer state between calls and
// require exclusive access; Evaluate is stateless and safe for concurrent
// readers while no training is in progress.
type Network struct {
	arch         []int
	weights      []*Matrix
	biases       []*Matrix
	activation   Activation
	learningRate float64

	// Retained forward-pass state, overwritten by each FeedForward.
	// preActs[i] is the pre-activation of layer transition i, acts[0] is
	// the input and acts[i+1] the post-activation of transition i.
	preActs []*Matrix
	acts    []*Matrix
}

// NewNetwork builds a network with weights and biases drawn uniformly from
// [0, 1). The architecture needs at least an input and an output layer,
// every layer at least one neuron.
func NewNetwork(arch []int, activation Activation, learningRate float64) (*Network, error) {
	if len(arch) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 layers, got %d", ErrInvalidArchitecture, len(arch))
	}
	for i, size := range arch {
		if size < 1 {
			return nil, fmt.Errorf("%w: layer %d has size %d", ErrInvalidArchitecture, i, size)
		}
	}

	n := &Network{
		arch:         append([]int(nil), arch...),
		activation:   activation,
		learningRate: learningRate,
	}
	for i := 0; i < len(arch)-1; i++ {
		n.weights = append(n.weights, Random(arch[i+1], arch[i]))
		n.biases = append(n.biases, Random(arch[i+1], 1))
	}
	return n, nil
}

// Architecture returns a copy of the layer sizes.
func (n *Network) Architecture() []int {
	return append([]int(nil), n.arch...)
}

// LearningRate returns the gradient descent step size.
func (n *Network) LearningRate() float64 { return n.learningRate }

// ActivationName returns the name of the network's activation function.
func (n *Network) ActivationName() string { return n.activation.Name() }

// NumParameters returns the total weight and bias count.
func (n *Network) NumParameters() int {
	total := 0
	for i := range n.weights {
		total += n.weights[i].rows * n.weights[i].cols
		total += n.biases[i].rows
	}
	return total
}

// InputSize returns the expected input vector length.
func (n *Network) InputSize() int { return n.arch[0] }

// OutputSize returns the output vector length.
func (n *Network) OutputSize() int { return n.arch[len(n.arch)-1] }

// forward runs one pass and returns every pre-activation and activation.
// It reads network state but never writes it.
func (n *Network) forward(input *Matrix) (preActs, acts []*Matrix, err error) {
	if input.rows != n.arch[0] || input.cols != 1 {
		return nil, nil, &DimensionError{
			Op:    "feed forward",
			ARows: n.arch[0], ACols: 1,
			BRows: input.rows, BCols: input.cols,
		}
	}

	acts = make([]*Matrix, 0, len(n.arch))
	preActs = make([]*Matrix, 0, len(n.weights))
	acts = append(acts, input.Clone())

	a := acts[0]
	for i := range n.weights {
		z, err := n.weights[i].Dot(a)
		if err != nil {
			return nil, nil, err
		}
		z, err = z.Add(n.biases[i])
		if err != nil {
			return nil, nil, err
		}
		a = z.Map(n.activation.Apply)
		preActs = append(preActs, z)
		acts = append(acts, a)
	}
	return preActs, acts, nil
}

// FeedForward computes the network output for a column vector of length
// arch[0], retaining every layer's pre- and post-activation for a
// subsequent TrainStep. The retained state is overwritten by each call;
// concurrent forward passes on one network are not safe. A dimension
// mismatch fails before any retained state is touched.
func (n *Network) FeedForward(input *Matrix) (*Matrix, error) {
	preActs, acts, err := n.forward(input)
	if err != nil {
		return nil, err
	}
	n.preActs = preActs
	n.acts = acts
	return acts[len(acts)-1], nil
}

// Evaluate computes the network output without retaining any state. Safe
// for concurrent readers while no training is in progress.
func (n *Network) Evaluate(input *Matrix) (*Matrix, error) {
	_, acts, err := n.forward(input)
	if err != nil {
		return nil, err
	}
	return acts[len(acts)-1], nil
}

// TrainStep runs one forward pass and backpropagates the squared error of
// target against the output, updating every weight and bias in place via
// gradient descent. Returns the mean squared error over the output
// elements for this sample.
func (n *Network) TrainStep(input, target *Matrix) (float64, error) {
	output, err := n.FeedForward(input)
	if err != nil {
		return 0, err
	}
	if target.rows != n.OutputSize() || target.cols != 1 {
		return 0, &DimensionError{
			Op:    "train step",
			ARows: n.OutputSize(), ACols: 1,
			BRows: target.rows, BCols: target.cols,
		}
	}

	diff, err := output.Subtract(target)
	if err != nil {
		return 0, err
	}
	loss := 0.0
	for _, v := range diff.data {
		loss += v * v
	}
	loss /= float64(len(diff.data))

	// Output layer delta: (output - target) ⊙ act'(z).
	delta, err := diff.Hadamard(n.preActs[len(n.preActs)-1].Map(n.activation.Derivative))
	if err != nil {
		return 0, err
	}

	for i := len(n.weights) - 1; i >= 0; i-- {
		// Propagate the error before this layer's weights change.
		var nextDelta *Matrix
		if i > 0 {
			prop, err := n.weights[i].Transpose().Dot(delta)
			if err != nil {
				return 0, err
			}
			nextDelta, err = prop.Hadamard(n.preActs[i-1].Map(n.activation.Derivative))
			if err != nil {
				return 0, err
			}
		}

		gradW, err := delta.Dot(n.acts[i].Transpose())
		if err != nil {
			return 0, err
		}
		floats.AddScaled(n.weights[i].data, -n.learningRate, gradW.data)
		floats.AddScaled(n.biases[i].data, -n.learningRate, delta.data)

		delta = nextDelta
	}

	return loss, nil
}

// Train runs TrainStep over every sample, in dataset order, for the given
// number of epochs. Use a TrainingController for callbacks, progress and
// checkpointing.
func (n *Network) Train(inputs, targets [][]float64, epochs int) error {
	if len(inputs) != len(targets) {
		return fmt.Errorf("%w: %d inputs vs %d targets", ErrDimensionMismatch, len(inputs), len(targets))
	}
	for epoch := 0; epoch < epochs; epoch++ {
		for i := range inputs {
			if _, err := n.TrainStep(ColumnVector(inputs[i]), ColumnVector(targets[i])); err != nil {
				return err
			}
		}
	}
	return nil
}
