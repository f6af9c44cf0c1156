package nn

import (
	"errors"
	"fmt"
	"log"
	"time"
)

// ControllerState is the lifecycle state of a TrainingController.
type ControllerState int

const (
	StateIdle ControllerState = iota
	StateRunning
	StateCompleted
	StateInterrupted
	StateFailed
)

func (s ControllerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateInterrupted:
		return "interrupted"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("ControllerState(%d)", int(s))
	}
}

// TrainingConfig carries the knobs for one training run.
type TrainingConfig struct {
	// Epochs is the total epoch budget, counted from epoch 1 (or from the
	// restored epoch when resuming).
	Epochs int

	// CheckpointInterval is the epoch stride for periodic checkpoint
	// writes. Zero disables periodic writes; the final epoch is always
	// checkpointed when CheckpointPath is set.
	CheckpointInterval int

	// CheckpointPath is the checkpoint destination. Empty disables
	// checkpointing entirely.
	CheckpointPath string

	// Verbose enables per-epoch progress logging.
	Verbose bool

	// ExampleName labels checkpoints with the problem being trained.
	ExampleName string
}

// EpochResult is what callbacks receive after each completed epoch.
type EpochResult struct {
	// Epoch is the 1-based number of the epoch that just finished.
	Epoch int

	// Loss is the mean sample loss across the dataset for this epoch.
	Loss float64

	// Predictions holds the network's current output for every training
	// input, in dataset order.
	Predictions []*Matrix
}

// Callback observes training progress. OnEpoch runs once per completed
// epoch, in registration order; returning ErrStopTraining requests
// cancellation at this epoch boundary, any other non-nil error aborts the
// run. OnTrainingEnd runs once after normal completion.
type Callback interface {
	OnEpoch(r EpochResult) error
	OnTrainingEnd(r EpochResult)
}

// CallbackFunc adapts a plain function to the Callback interface with a
// no-op end-of-training hook.
type CallbackFunc func(r EpochResult) error

func (f CallbackFunc) OnEpoch(r EpochResult) error { return f(r) }
func (f CallbackFunc) OnTrainingEnd(EpochResult)   {}

// TrainingController drives multi-epoch training over a fixed dataset with
// per-epoch callbacks, periodic checkpointing and resumption. It owns its
// network exclusively for the duration of a Train call.
type TrainingController struct {
	network      *Network
	config       TrainingConfig
	callbacks    []Callback
	state        ControllerState
	currentEpoch int
	lastLoss     float64
}

// NewTrainingController wraps a fresh network in an idle controller.
func NewTrainingController(network *Network, config TrainingConfig) *TrainingController {
	return &TrainingController{
		network: network,
		config:  config,
		state:   StateIdle,
	}
}

// AddCallback registers a per-epoch observer. Only valid before training
// starts; invocation order is registration order.
func (c *TrainingController) AddCallback(cb Callback) error {
	if c.state != StateIdle {
		return fmt.Errorf("cannot add callback in state %s", c.state)
	}
	c.callbacks = append(c.callbacks, cb)
	return nil
}

// State returns the controller's lifecycle state.
func (c *TrainingController) State() ControllerState { return c.state }

// CurrentEpoch returns the last fully completed epoch.
func (c *TrainingController) CurrentEpoch() int { return c.currentEpoch }

// Network returns the controller's network. The caller must not train or
// feed it forward while a Train call is in flight.
func (c *TrainingController) Network() *Network { return c.network }

// Train runs epochs currentEpoch+1 through config.Epochs over the dataset.
// Each epoch is one full forward/backward pass per sample, in dataset
// order, followed by the callbacks and any due checkpoint write. Returns
// nil on completion or interruption; a failed mandatory checkpoint write
// or a callback failure aborts the run with an error.
func (c *TrainingController) Train(inputs, targets [][]float64) error {
	if c.state == StateRunning {
		return errors.New("training already in progress")
	}
	if len(inputs) == 0 || len(inputs) != len(targets) {
		return fmt.Errorf("%w: %d inputs vs %d targets", ErrDimensionMismatch, len(inputs), len(targets))
	}
	if c.currentEpoch >= c.config.Epochs {
		c.finish()
		return nil
	}
	c.state = StateRunning

	for epoch := c.currentEpoch + 1; epoch <= c.config.Epochs; epoch++ {
		epochLoss := 0.0
		for i := range inputs {
			loss, err := c.network.TrainStep(ColumnVector(inputs[i]), ColumnVector(targets[i]))
			if err != nil {
				c.state = StateFailed
				return fmt.Errorf("epoch %d, sample %d: %w", epoch, i, err)
			}
			epochLoss += loss
		}
		epochLoss /= float64(len(inputs))
		c.currentEpoch = epoch
		c.lastLoss = epochLoss

		if c.config.Verbose && (c.config.Epochs < 100 || epoch%(c.config.Epochs/100) == 0) {
			log.Printf("epoch %d of %d: loss = %.6f", epoch, c.config.Epochs, epochLoss)
		}

		result := EpochResult{Epoch: epoch, Loss: epochLoss}
		if len(c.callbacks) > 0 {
			result.Predictions = c.snapshotPredictions(inputs)
		}

		// Every callback sees the epoch, even when an earlier one cancels.
		cancelled := false
		for _, cb := range c.callbacks {
			if err := cb.OnEpoch(result); err != nil {
				if errors.Is(err, ErrStopTraining) {
					cancelled = true
					continue
				}
				c.state = StateFailed
				return fmt.Errorf("callback failed at epoch %d: %w", epoch, err)
			}
		}

		final := epoch == c.config.Epochs
		if c.config.CheckpointPath != "" {
			periodic := c.config.CheckpointInterval > 0 && epoch%c.config.CheckpointInterval == 0
			if periodic || final || cancelled {
				if err := c.saveCheckpoint(epoch); err != nil {
					c.state = StateFailed
					return err
				}
			}
		}

		if cancelled {
			c.state = StateInterrupted
			return nil
		}
	}

	c.finish()
	return nil
}

// finish transitions to the completed state and notifies every callback
// with the last completed epoch and its loss.
func (c *TrainingController) finish() {
	c.state = StateCompleted
	final := EpochResult{Epoch: c.currentEpoch, Loss: c.lastLoss}
	for _, cb := range c.callbacks {
		cb.OnTrainingEnd(final)
	}
}

func (c *TrainingController) snapshotPredictions(inputs [][]float64) []*Matrix {
	predictions := make([]*Matrix, 0, len(inputs))
	for i := range inputs {
		out, err := c.network.Evaluate(ColumnVector(inputs[i]))
		if err != nil {
			// The training pass over the same inputs already succeeded.
			continue
		}
		predictions = append(predictions, out)
	}
	return predictions
}

func (c *TrainingController) saveCheckpoint(epoch int) error {
	example := c.config.ExampleName
	if example == "" {
		example = "training"
	}
	meta := CheckpointMetadata{
		Version:      CheckpointVersion,
		Example:      example,
		Epoch:        epoch,
		TotalEpochs:  c.config.Epochs,
		LearningRate: c.network.learningRate,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	return c.network.SaveCheckpoint(c.config.CheckpointPath, meta)
}

// ResumeFromCheckpoint loads a checkpoint, reconstructs its network and
// returns an idle controller positioned at the stored epoch, ready for a
// Train call with a larger epoch budget. If config.ExampleName is empty
// the stored name is kept.
func ResumeFromCheckpoint(path string, config TrainingConfig) (*TrainingController, error) {
	network, meta, err := LoadCheckpoint(path)
	if err != nil {
		return nil, err
	}
	if meta.Epoch >= config.Epochs {
		return nil, fmt.Errorf("%w: checkpoint is at epoch %d, target is %d",
			ErrNothingToResume, meta.Epoch, config.Epochs)
	}
	if config.ExampleName == "" {
		config.ExampleName = meta.Example
	}
	return &TrainingController{
		network:      network,
		config:       config,
		state:        StateIdle,
		currentEpoch: meta.Epoch,
	}, nil
}
