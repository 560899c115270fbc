package features

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/merchantcast/pkg/errors"
)

// Matrix is a feature matrix with its target vector and column names,
// ready for the model adapter. Dates, merchants and row ids ride along for
// reporting; they are not features.
type Matrix struct {
	X     *mat.Dense
	Y     *mat.VecDense
	Names []string

	Dates     []time.Time
	Merchants []string
	RowIDs    []int64
}

// Rows returns the number of rows in the matrix.
func (m Matrix) Rows() int {
	r, _ := m.X.Dims()
	return r
}

// Split partitions the assembled frame by the cutoff timestamp: training is
// everything strictly before the cutoff, validation everything on or after
// it. There is no shuffling; ordering by time is the entire contract. A
// cutoff leaving either side empty is a configuration error.
func Split(f *Frame, cutoff time.Time) (train, valid Matrix, err error) {
	schema := f.Schema()
	if len(schema) == 0 {
		return Matrix{}, Matrix{}, errors.New("features: frame has no schema; run the assembler first")
	}

	var trainIdx, validIdx []int
	for i, d := range f.Dates() {
		if d.Before(cutoff) {
			trainIdx = append(trainIdx, i)
		} else {
			validIdx = append(validIdx, i)
		}
	}
	if len(trainIdx) == 0 {
		return Matrix{}, Matrix{}, errors.NewConfigError("cutoff",
			"no rows before cutoff; training set would be empty", cutoff.Format("2006-01-02"))
	}
	if len(validIdx) == 0 {
		return Matrix{}, Matrix{}, errors.NewConfigError("cutoff",
			"no rows on or after cutoff; validation set would be empty", cutoff.Format("2006-01-02"))
	}

	return gather(f, schema, trainIdx), gather(f, schema, validIdx), nil
}

func gather(f *Frame, schema []string, idx []int) Matrix {
	cols := make([][]float64, len(schema))
	for j, name := range schema {
		cols[j], _ = f.Column(name)
	}

	m := Matrix{
		X:         mat.NewDense(len(idx), len(schema), nil),
		Y:         mat.NewVecDense(len(idx), nil),
		Names:     schema,
		Dates:     make([]time.Time, len(idx)),
		Merchants: make([]string, len(idx)),
		RowIDs:    make([]int64, len(idx)),
	}
	for r, i := range idx {
		for j := range schema {
			m.X.Set(r, j, cols[j][i])
		}
		m.Y.SetVec(r, f.Target()[i])
		m.Dates[r] = f.Dates()[i]
		m.Merchants[r] = f.Merchants()[i]
		m.RowIDs[r] = f.RowIDs()[i]
	}
	return m
}

// DropMissing returns a copy of the matrix without rows that have any
// missing feature. The pipeline itself never filters; this is for the
// model adapter, which cannot train on incomplete rows.
func (m Matrix) DropMissing() Matrix {
	rows, cols := m.X.Dims()
	var keep []int
	for i := 0; i < rows; i++ {
		complete := true
		for j := 0; j < cols; j++ {
			if math.IsNaN(m.X.At(i, j)) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	if len(keep) == rows {
		return m
	}

	out := Matrix{
		X:         mat.NewDense(len(keep), cols, nil),
		Y:         mat.NewVecDense(len(keep), nil),
		Names:     m.Names,
		Dates:     make([]time.Time, len(keep)),
		Merchants: make([]string, len(keep)),
		RowIDs:    make([]int64, len(keep)),
	}
	for r, i := range keep {
		for j := 0; j < cols; j++ {
			out.X.Set(r, j, m.X.At(i, j))
		}
		out.Y.SetVec(r, m.Y.AtVec(i))
		out.Dates[r] = m.Dates[i]
		out.Merchants[r] = m.Merchants[i]
		out.RowIDs[r] = m.RowIDs[i]
	}
	return out
}
