package nn

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the package. Callers match them with errors.Is.
var (
	// ErrDimensionMismatch reports a shape-incompatible matrix operation or
	// an input vector whose length does not match the network. Always a
	// caller bug, never worth retrying.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidArchitecture reports a malformed layer-size sequence.
	ErrInvalidArchitecture = errors.New("invalid architecture")

	// ErrCorruptFormat reports a checkpoint or model file whose structure
	// cannot be parsed.
	ErrCorruptFormat = errors.New("corrupt format")

	// ErrUnsupportedVersion reports a checkpoint written with a format
	// version this build does not understand.
	ErrUnsupportedVersion = errors.New("unsupported checkpoint version")

	// ErrArchitectureMismatch reports stored weight or bias shapes that are
	// inconsistent with the declared architecture.
	ErrArchitectureMismatch = errors.New("architecture mismatch")

	// ErrNothingToResume reports a resume target that the stored checkpoint
	// already satisfies.
	ErrNothingToResume = errors.New("nothing to resume")
)

// ErrStopTraining is the cancellation sentinel a callback returns to stop
// training at the next epoch boundary. It is a request, not a failure.
var ErrStopTraining = errors.New("stop training")

// DimensionError carries the operand shapes of a failed matrix operation.
// It matches ErrDimensionMismatch under errors.Is.
type DimensionError struct {
	Op           string
	ARows, ACols int
	BRows, BCols int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: dimension mismatch: [%d x %d] vs [%d x %d]",
		e.Op, e.ARows, e.ACols, e.BRows, e.BCols)
}

func (e *DimensionError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
