package nn

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense 2-D matrix backed by a flat row-major data slice.
// The slice is shared with a gonum Dense so multiplication runs through
// gonum; element (i,j) lives at data[i*cols+j].
//
// Operations never mutate their operands; every arithmetic method returns
// a freshly allocated Matrix. The only in-place writes happen inside the
// network's training step, which exclusively owns its weight matrices.
type Matrix struct {
	rows, cols int
	data       []float64
	dense      *mat.Dense
}

// -------- CONSTRUCTORS ------- //

// Zeros returns a rows x cols matrix of zeros. Panics if either dimension
// is not positive, matching the allocation rules of make.
func Zeros(rows, cols int) *Matrix {
	if rows < 1 || cols < 1 {
		panic(fmt.Sprintf("nn: non-positive matrix dimensions %d x %d", rows, cols))
	}
	data := make([]float64, rows*cols)
	return &Matrix{
		rows:  rows,
		cols:  cols,
		data:  data,
		dense: mat.NewDense(rows, cols, data),
	}
}

// Random returns a rows x cols matrix with entries drawn uniformly
// from [0, 1).
func Random(rows, cols int) *Matrix {
	m := Zeros(rows, cols)
	for i := range m.data {
		m.data[i] = rand.Float64()
	}
	return m
}

// FromSlice wraps a copy of data as a rows x cols matrix. The slice length
// must equal rows*cols.
func FromSlice(rows, cols int, data []float64) (*Matrix, error) {
	if len(data) != rows*cols {
		return nil, fmt.Errorf("nn: slice length %d does not match %d x %d matrix: %w",
			len(data), rows, cols, ErrDimensionMismatch)
	}
	m := Zeros(rows, cols)
	copy(m.data, data)
	return m, nil
}

// ColumnVector wraps a copy of data as a len(data) x 1 matrix.
func ColumnVector(data []float64) *Matrix {
	m := Zeros(len(data), 1)
	copy(m.data, data)
	return m
}

// ------- MATRIX METHODS ------ //

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

// At returns element (i, j).
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.cols+j] }

// Data returns a copy of the flat row-major contents.
func (m *Matrix) Data() []float64 {
	out := make([]float64, len(m.data))
	copy(out, m.data)
	return out
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	out := Zeros(m.rows, m.cols)
	copy(out.data, m.data)
	return out
}

// Add returns m + b.
func (m *Matrix) Add(b *Matrix) (*Matrix, error) {
	if m.rows != b.rows || m.cols != b.cols {
		return nil, &DimensionError{Op: "add", ARows: m.rows, ACols: m.cols, BRows: b.rows, BCols: b.cols}
	}
	out := m.Clone()
	for i, v := range b.data {
		out.data[i] += v
	}
	return out, nil
}

// Subtract returns m - b.
func (m *Matrix) Subtract(b *Matrix) (*Matrix, error) {
	if m.rows != b.rows || m.cols != b.cols {
		return nil, &DimensionError{Op: "subtract", ARows: m.rows, ACols: m.cols, BRows: b.rows, BCols: b.cols}
	}
	out := m.Clone()
	for i, v := range b.data {
		out.data[i] -= v
	}
	return out, nil
}

// Hadamard returns the element-wise product of m and b.
func (m *Matrix) Hadamard(b *Matrix) (*Matrix, error) {
	if m.rows != b.rows || m.cols != b.cols {
		return nil, &DimensionError{Op: "hadamard", ARows: m.rows, ACols: m.cols, BRows: b.rows, BCols: b.cols}
	}
	out := m.Clone()
	for i, v := range b.data {
		out.data[i] *= v
	}
	return out, nil
}

// Dot returns the matrix product m * b.
func (m *Matrix) Dot(b *Matrix) (*Matrix, error) {
	if m.cols != b.rows {
		return nil, &DimensionError{Op: "dot", ARows: m.rows, ACols: m.cols, BRows: b.rows, BCols: b.cols}
	}
	out := Zeros(m.rows, b.cols)
	out.dense.Mul(m.dense, b.dense)
	return out, nil
}

// Transpose returns the transpose of m.
func (m *Matrix) Transpose() *Matrix {
	out := Zeros(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*out.cols+i] = m.data[i*m.cols+j]
		}
	}
	return out
}

// Map returns a new matrix with fn applied to every element.
func (m *Matrix) Map(fn func(float64) float64) *Matrix {
	out := Zeros(m.rows, m.cols)
	for i, v := range m.data {
		out.data[i] = fn(v)
	}
	return out
}

// ------ SERIALIZATION ------ //

type matrixRecord struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

func (m *Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(matrixRecord{Rows: m.rows, Cols: m.cols, Data: m.data})
}

func (m *Matrix) UnmarshalJSON(buf []byte) error {
	var rec matrixRecord
	if err := json.Unmarshal(buf, &rec); err != nil {
		return err
	}
	if rec.Rows < 1 || rec.Cols < 1 {
		return fmt.Errorf("nn: non-positive matrix dimensions %d x %d", rec.Rows, rec.Cols)
	}
	if len(rec.Data) != rec.Rows*rec.Cols {
		return fmt.Errorf("nn: matrix data length %d does not match %d x %d",
			len(rec.Data), rec.Rows, rec.Cols)
	}
	m.rows = rec.Rows
	m.cols = rec.Cols
	m.data = rec.Data

	// Re-create the gonum wrapper after loading data.
	m.dense = mat.NewDense(m.rows, m.cols, m.data)
	return nil
}
