package nn

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMetadata(epoch, total int) CheckpointMetadata {
	return CheckpointMetadata{
		Version:      CheckpointVersion,
		Example:      "xor",
		Epoch:        epoch,
		TotalEpochs:  total,
		LearningRate: 0.5,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
}

func TestCheckpointRoundTripInMemory(t *testing.T) {
	n, err := NewNetwork([]int{2, 3, 1}, Sigmoid, 0.5)
	require.NoError(t, err)
	require.NoError(t, n.Train([][]float64{{0, 1}, {1, 0}}, [][]float64{{1}, {1}}, 50))

	restored, err := FromCheckpoint(n.ToCheckpoint(testMetadata(50, 100)))
	require.NoError(t, err)

	assert.Equal(t, n.Architecture(), restored.Architecture())
	assert.Equal(t, n.LearningRate(), restored.LearningRate())

	// Bit-for-bit identical evaluation.
	for _, input := range [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
		want, err := n.Evaluate(ColumnVector(input))
		require.NoError(t, err)
		got, err := restored.Evaluate(ColumnVector(input))
		require.NoError(t, err)
		assert.Equal(t, want.Data(), got.Data(), "input %v", input)
	}
}

func TestCheckpointSnapshotIsIsolated(t *testing.T) {
	n, err := NewNetwork([]int{2, 2, 1}, Sigmoid, 0.5)
	require.NoError(t, err)

	checkpoint := n.ToCheckpoint(testMetadata(0, 100))
	frozen := checkpoint.Network.Weights[0].Data()

	// Training after the snapshot must not leak into it.
	require.NoError(t, n.Train([][]float64{{0, 1}}, [][]float64{{1}}, 20))
	assert.Equal(t, frozen, checkpoint.Network.Weights[0].Data())
	assert.NotEqual(t, frozen, n.weights[0].Data())
}

func TestCheckpointFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints", "test.json")

	n, err := NewNetwork([]int{2, 3, 1}, Sigmoid, 0.5)
	require.NoError(t, err)
	require.NoError(t, n.Train([][]float64{{0, 1}}, [][]float64{{1}}, 100))

	require.NoError(t, n.SaveCheckpoint(path, testMetadata(100, 200)))

	restored, meta, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, 100, meta.Epoch)
	assert.Equal(t, 200, meta.TotalEpochs)
	assert.Equal(t, "xor", meta.Example)

	input := ColumnVector([]float64{0, 1})
	want, err := n.Evaluate(input)
	require.NoError(t, err)
	got, err := restored.Evaluate(input)
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data())
}

func TestLoadCheckpointMissingFile(t *testing.T) {
	_, _, err := LoadCheckpoint(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrCorruptFormat)
}

func TestLoadCheckpointCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, _, err := LoadCheckpoint(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptFormat)
}

func TestLoadCheckpointUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.json")

	n, err := NewNetwork([]int{2, 2, 1}, Sigmoid, 0.5)
	require.NoError(t, err)
	meta := testMetadata(10, 10)
	meta.Version = "999.0"
	require.NoError(t, n.SaveCheckpoint(path, meta))

	restored, _, err := LoadCheckpoint(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.Contains(t, err.Error(), "999.0")
	assert.Nil(t, restored)
}

func TestFromCheckpointArchitectureMismatch(t *testing.T) {
	n, err := NewNetwork([]int{2, 3, 1}, Sigmoid, 0.5)
	require.NoError(t, err)

	// Hand-edited architecture no longer matches the stored shapes.
	checkpoint := n.ToCheckpoint(testMetadata(0, 10))
	checkpoint.Network.Architecture = []int{2, 4, 1}

	_, err = FromCheckpoint(checkpoint)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArchitectureMismatch)
}

func TestFromCheckpointMissingLayer(t *testing.T) {
	n, err := NewNetwork([]int{2, 3, 1}, Sigmoid, 0.5)
	require.NoError(t, err)

	checkpoint := n.ToCheckpoint(testMetadata(0, 10))
	checkpoint.Network.Weights = checkpoint.Network.Weights[:1]

	_, err = FromCheckpoint(checkpoint)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArchitectureMismatch)
}

func TestFromCheckpointUnknownActivation(t *testing.T) {
	n, err := NewNetwork([]int{2, 2, 1}, Sigmoid, 0.5)
	require.NoError(t, err)

	checkpoint := n.ToCheckpoint(testMetadata(0, 10))
	checkpoint.Network.Activation = "softplus"

	_, err = FromCheckpoint(checkpoint)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptFormat)
}

func TestModelFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")

	n, err := NewNetwork([]int{2, 2, 1}, Sigmoid, 0.5)
	require.NoError(t, err)
	require.NoError(t, n.Train([][]float64{{1, 1}}, [][]float64{{1}}, 100))

	summary := ModelSummary{
		Version:       CheckpointVersion,
		Example:       "and",
		TrainedEpochs: 100,
		FinalAccuracy: 1.0,
		Created:       time.Now().UTC().Format(time.RFC3339),
	}
	require.NoError(t, n.SaveModel(path, summary))

	restored, loaded, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, summary, loaded)

	input := ColumnVector([]float64{1, 1})
	want, err := n.Evaluate(input)
	require.NoError(t, err)
	got, err := restored.Evaluate(input)
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data())
}

func TestLoadModelUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")

	n, err := NewNetwork([]int{2, 2, 1}, Sigmoid, 0.5)
	require.NoError(t, err)
	require.NoError(t, n.SaveModel(path, ModelSummary{Version: "0.9"}))

	_, _, err = LoadModel(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}
