package nn

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CheckpointVersion is the format version this build reads and writes.
const CheckpointVersion = "1.0"

// CheckpointMetadata describes the training session a checkpoint belongs
// to: how far training has progressed and with which hyperparameters.
type CheckpointMetadata struct {
	// Version is the checkpoint format version, checked on load.
	Version string `json:"version"`

	// Example names the problem being trained (e.g. "xor").
	Example string `json:"example"`

	// Epoch is the last fully completed epoch.
	Epoch int `json:"epoch"`

	// TotalEpochs is the planned epoch budget.
	TotalEpochs int `json:"total_epochs"`

	LearningRate float64 `json:"learning_rate"`

	// Timestamp is the RFC 3339 creation time.
	Timestamp string `json:"timestamp"`
}

// NetworkState is the serialized form of a Network: the architecture, one
// weight matrix per layer transition, one bias vector per non-input layer
// and the activation resolved by name.
type NetworkState struct {
	Architecture []int     `json:"architecture"`
	Weights      []*Matrix `json:"weights"`
	Biases       []*Matrix `json:"biases"`
	Activation   string    `json:"activation"`
	LearningRate float64   `json:"learning_rate"`
}

// Checkpoint is a complete training snapshot: session metadata plus the
// network state. It serializes to a JSON document with exactly those two
// top-level sections.
type Checkpoint struct {
	Metadata CheckpointMetadata `json:"metadata"`
	Network  NetworkState       `json:"network"`
}

// ToCheckpoint snapshots the network together with the supplied metadata.
// The snapshot deep-copies every matrix, so later training steps do not
// leak into an already taken checkpoint. Pure, no I/O.
func (n *Network) ToCheckpoint(meta CheckpointMetadata) Checkpoint {
	state := NetworkState{
		Architecture: n.Architecture(),
		Activation:   n.activation.Name(),
		LearningRate: n.learningRate,
	}
	for i := range n.weights {
		state.Weights = append(state.Weights, n.weights[i].Clone())
		state.Biases = append(state.Biases, n.biases[i].Clone())
	}
	return Checkpoint{Metadata: meta, Network: state}
}

// FromCheckpoint reconstructs a Network from a checkpoint. Stored shapes
// are validated against the declared architecture before anything is
// built, so a hand-edited or corrupted file never yields a half-formed
// network.
func FromCheckpoint(c Checkpoint) (*Network, error) {
	arch := c.Network.Architecture
	if len(arch) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 layers, got %d", ErrInvalidArchitecture, len(arch))
	}
	for i, size := range arch {
		if size < 1 {
			return nil, fmt.Errorf("%w: layer %d has size %d", ErrInvalidArchitecture, i, size)
		}
	}

	transitions := len(arch) - 1
	if len(c.Network.Weights) != transitions || len(c.Network.Biases) != transitions {
		return nil, fmt.Errorf("%w: architecture %v expects %d weight and bias sets, got %d and %d",
			ErrArchitectureMismatch, arch, transitions, len(c.Network.Weights), len(c.Network.Biases))
	}
	for i := 0; i < transitions; i++ {
		w, b := c.Network.Weights[i], c.Network.Biases[i]
		if w == nil || b == nil {
			return nil, fmt.Errorf("%w: layer %d is missing weights or biases", ErrArchitectureMismatch, i)
		}
		if w.rows != arch[i+1] || w.cols != arch[i] {
			return nil, fmt.Errorf("%w: weight matrix %d is [%d x %d], want [%d x %d]",
				ErrArchitectureMismatch, i, w.rows, w.cols, arch[i+1], arch[i])
		}
		if b.rows != arch[i+1] || b.cols != 1 {
			return nil, fmt.Errorf("%w: bias vector %d is [%d x %d], want [%d x 1]",
				ErrArchitectureMismatch, i, b.rows, b.cols, arch[i+1])
		}
	}

	activation, err := ActivationByName(c.Network.Activation)
	if err != nil {
		return nil, err
	}

	// Safe to build now.
	n := &Network{
		arch:         append([]int(nil), arch...),
		activation:   activation,
		learningRate: c.Network.LearningRate,
	}
	for i := 0; i < transitions; i++ {
		n.weights = append(n.weights, c.Network.Weights[i].Clone())
		n.biases = append(n.biases, c.Network.Biases[i].Clone())
	}
	return n, nil
}

// SaveCheckpoint snapshots the network and writes it to path as a single
// whole-file overwrite, creating parent directories as needed.
func (n *Network) SaveCheckpoint(path string, meta CheckpointMetadata) error {
	return writeDocument(path, n.ToCheckpoint(meta))
}

// LoadCheckpoint reads a checkpoint file and reconstructs its network.
// The format version is checked before the network section is even
// decoded, so an unsupported version never produces a partial network.
func LoadCheckpoint(path string) (*Network, CheckpointMetadata, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, CheckpointMetadata{}, fmt.Errorf("read checkpoint %s: %w", path, err)
	}

	var envelope struct {
		Metadata CheckpointMetadata `json:"metadata"`
		Network  json.RawMessage    `json:"network"`
	}
	if err := json.Unmarshal(contents, &envelope); err != nil {
		return nil, CheckpointMetadata{}, fmt.Errorf("parse checkpoint %s: %v: %w", path, err, ErrCorruptFormat)
	}
	if envelope.Metadata.Version != CheckpointVersion {
		return nil, CheckpointMetadata{}, fmt.Errorf("%w: %q, expected %q",
			ErrUnsupportedVersion, envelope.Metadata.Version, CheckpointVersion)
	}
	if len(envelope.Network) == 0 {
		return nil, CheckpointMetadata{}, fmt.Errorf("checkpoint %s has no network section: %w", path, ErrCorruptFormat)
	}

	var checkpoint Checkpoint
	checkpoint.Metadata = envelope.Metadata
	if err := json.Unmarshal(envelope.Network, &checkpoint.Network); err != nil {
		return nil, CheckpointMetadata{}, fmt.Errorf("parse network section of %s: %v: %w", path, err, ErrCorruptFormat)
	}

	network, err := FromCheckpoint(checkpoint)
	if err != nil {
		return nil, CheckpointMetadata{}, err
	}
	return network, checkpoint.Metadata, nil
}

// ModelSummary describes a finished model file. Unlike a checkpoint it
// carries no resumable training state, only what evaluation tooling needs.
type ModelSummary struct {
	Version       string  `json:"version"`
	Example       string  `json:"example"`
	TrainedEpochs int     `json:"trained_epochs"`
	FinalAccuracy float64 `json:"final_accuracy"`
	Created       string  `json:"created"`
}

type modelDocument struct {
	Summary ModelSummary `json:"summary"`
	Network NetworkState `json:"network"`
}

// SaveModel writes the network with a model summary to path.
func (n *Network) SaveModel(path string, summary ModelSummary) error {
	snapshot := n.ToCheckpoint(CheckpointMetadata{})
	return writeDocument(path, modelDocument{Summary: summary, Network: snapshot.Network})
}

// LoadModel reads a model file and reconstructs its network for
// evaluation.
func LoadModel(path string) (*Network, ModelSummary, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, ModelSummary{}, fmt.Errorf("read model %s: %w", path, err)
	}

	var envelope struct {
		Summary ModelSummary    `json:"summary"`
		Network json.RawMessage `json:"network"`
	}
	if err := json.Unmarshal(contents, &envelope); err != nil {
		return nil, ModelSummary{}, fmt.Errorf("parse model %s: %v: %w", path, err, ErrCorruptFormat)
	}
	if envelope.Summary.Version != CheckpointVersion {
		return nil, ModelSummary{}, fmt.Errorf("%w: %q, expected %q",
			ErrUnsupportedVersion, envelope.Summary.Version, CheckpointVersion)
	}
	if len(envelope.Network) == 0 {
		return nil, ModelSummary{}, fmt.Errorf("model %s has no network section: %w", path, ErrCorruptFormat)
	}

	var state NetworkState
	if err := json.Unmarshal(envelope.Network, &state); err != nil {
		return nil, ModelSummary{}, fmt.Errorf("parse network section of %s: %v: %w", path, err, ErrCorruptFormat)
	}

	network, err := FromCheckpoint(Checkpoint{
		Metadata: CheckpointMetadata{Version: envelope.Summary.Version},
		Network:  state,
	})
	if err != nil {
		return nil, ModelSummary{}, err
	}
	return network, envelope.Summary, nil
}

func writeDocument(path string, doc any) error {
	contents, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
