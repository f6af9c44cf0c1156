package nn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeros(t *testing.T) {
	m := Zeros(3, 2)
	assert.Equal(t, 3, m.Rows())
	assert.Equal(t, 2, m.Cols())
	for _, v := range m.Data() {
		assert.Zero(t, v)
	}
}

func TestRandomRange(t *testing.T) {
	m := Random(10, 10)
	for _, v := range m.Data() {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestFromSliceLengthMismatch(t *testing.T) {
	_, err := FromSlice(2, 2, []float64{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestAddSubtractHadamard(t *testing.T) {
	a, err := FromSlice(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	b, err := FromSlice(2, 2, []float64{5, 6, 7, 8})
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 8, 10, 12}, sum.Data())

	diff, err := b.Subtract(a)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 4, 4, 4}, diff.Data())

	prod, err := a.Hadamard(b)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 12, 21, 32}, prod.Data())

	// Operands stay untouched.
	assert.Equal(t, []float64{1, 2, 3, 4}, a.Data())
	assert.Equal(t, []float64{5, 6, 7, 8}, b.Data())
}

func TestBinaryOpsRejectShapeMismatch(t *testing.T) {
	a := Zeros(2, 3)
	b := Zeros(3, 2)

	for name, op := range map[string]func() (*Matrix, error){
		"add":      func() (*Matrix, error) { return a.Add(b) },
		"subtract": func() (*Matrix, error) { return a.Subtract(b) },
		"hadamard": func() (*Matrix, error) { return a.Hadamard(b) },
	} {
		_, err := op()
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrDimensionMismatch, name)

		var dimErr *DimensionError
		require.ErrorAs(t, err, &dimErr, name)
		assert.Equal(t, 2, dimErr.ARows, name)
		assert.Equal(t, 3, dimErr.BRows, name)
	}
}

func TestDot(t *testing.T) {
	a, err := FromSlice(2, 3, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	b, err := FromSlice(3, 2, []float64{7, 8, 9, 10, 11, 12})
	require.NoError(t, err)

	out, err := a.Dot(b)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Rows())
	assert.Equal(t, 2, out.Cols())
	assert.Equal(t, []float64{58, 64, 139, 154}, out.Data())
}

func TestDotRejectsIncompatibleShapes(t *testing.T) {
	a := Zeros(2, 3)
	b := Zeros(2, 3)
	_, err := a.Dot(b)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestTranspose(t *testing.T) {
	m, err := FromSlice(2, 3, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	tr := m.Transpose()
	assert.Equal(t, 3, tr.Rows())
	assert.Equal(t, 2, tr.Cols())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, tr.Data())
}

func TestMapCapturesExternalState(t *testing.T) {
	m, err := FromSlice(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)

	rate := 0.5
	scaled := m.Map(func(v float64) float64 { return v * rate })
	assert.Equal(t, []float64{0.5, 1, 1.5, 2}, scaled.Data())
	assert.Equal(t, []float64{1, 2, 3, 4}, m.Data())
}

func TestMatrixJSONRoundTrip(t *testing.T) {
	m := Random(3, 4)

	buf, err := json.Marshal(m)
	require.NoError(t, err)

	var restored Matrix
	require.NoError(t, json.Unmarshal(buf, &restored))
	assert.Equal(t, m.Rows(), restored.Rows())
	assert.Equal(t, m.Cols(), restored.Cols())
	assert.Equal(t, m.Data(), restored.Data())
}

func TestMatrixJSONRejectsBadLength(t *testing.T) {
	var m Matrix
	err := json.Unmarshal([]byte(`{"rows":2,"cols":2,"data":[1,2,3]}`), &m)
	require.Error(t, err)
}
