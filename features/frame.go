package features

import (
	"math"
	"time"

	"github.com/YuminosukeSato/merchantcast/dataset"
	"github.com/YuminosukeSato/merchantcast/pkg/errors"
)

// Frame is a column-oriented feature table over a transaction log.
// Row order is inherited from the log (merchant, then date) and never
// changes; missing values are NaN. Once assembly has finished the frame is
// treated as immutable.
type Frame struct {
	dates     []time.Time
	merchants []string
	rowIDs    []int64
	groups    []dataset.Group

	target            []float64 // transaction counts; log1p-space after TransformTarget
	targetTransformed bool

	cols  []Column
	index map[string]int

	schema []string // ordered model feature columns, set by the assembler
}

// Column is a named float64 feature column. NaN marks a missing value.
type Column struct {
	Name   string
	Values []float64
}

// NewFrame builds an empty feature frame over the given transaction log.
func NewFrame(t *dataset.Table) *Frame {
	rows := t.Rows()
	f := &Frame{
		dates:     make([]time.Time, len(rows)),
		merchants: make([]string, len(rows)),
		rowIDs:    make([]int64, len(rows)),
		groups:    t.Groups(),
		target:    make([]float64, len(rows)),
		index:     make(map[string]int),
	}
	for i, r := range rows {
		f.dates[i] = r.Date
		f.merchants[i] = r.MerchantID
		f.rowIDs[i] = r.RowID
		f.target[i] = r.Count
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.dates) }

// Dates returns the per-row timestamps.
func (f *Frame) Dates() []time.Time { return f.dates }

// Merchants returns the per-row merchant identifiers.
func (f *Frame) Merchants() []string { return f.merchants }

// RowIDs returns the per-row record identifiers.
func (f *Frame) RowIDs() []int64 { return f.rowIDs }

// Groups returns the contiguous per-merchant row ranges.
func (f *Frame) Groups() []dataset.Group { return f.groups }

// Target returns the target series. Values are raw counts until
// TransformTarget has run, log1p-space afterwards.
func (f *Frame) Target() []float64 { return f.target }

// TargetTransformed reports whether the target is in log1p space.
func (f *Frame) TargetTransformed() bool { return f.targetTransformed }

// AddColumn appends a feature column. The column length must match the
// frame and the name must be unused.
func (f *Frame) AddColumn(name string, values []float64) error {
	if len(values) != f.Len() {
		return errors.NewDimensionError("Frame.AddColumn", f.Len(), len(values))
	}
	if _, ok := f.index[name]; ok {
		return errors.Newf("features: duplicate column %q", name)
	}
	f.index[name] = len(f.cols)
	f.cols = append(f.cols, Column{Name: name, Values: values})
	return nil
}

// Column returns the values of the named column.
func (f *Frame) Column(name string) ([]float64, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i].Values, true
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Schema returns the ordered model feature columns. Empty until the
// assembler has run.
func (f *Frame) Schema() []string { return f.schema }

// dropColumn removes a column, preserving the order of the rest. Used when
// a categorical source column is replaced by its indicator columns.
func (f *Frame) dropColumn(name string) {
	i, ok := f.index[name]
	if !ok {
		return
	}
	f.cols = append(f.cols[:i], f.cols[i+1:]...)
	delete(f.index, name)
	for j := i; j < len(f.cols); j++ {
		f.index[f.cols[j].Name] = j
	}
}

// renameColumn changes a column's name in place. Renaming onto a taken
// name is refused; overwriting the index entry would leave two columns
// sharing a name with one of them unreachable.
func (f *Frame) renameColumn(old, name string) error {
	i, ok := f.index[old]
	if !ok || old == name {
		return nil
	}
	if _, taken := f.index[name]; taken {
		return errors.Newf("features: renaming %q to %q collides with an existing column", old, name)
	}
	delete(f.index, old)
	f.cols[i].Name = name
	f.index[name] = i
	return nil
}

// TransformTarget applies log1p to the target to stabilize its variance.
// Negative targets are rejected before the transform.
func (f *Frame) TransformTarget() error {
	if f.targetTransformed {
		return nil
	}
	for _, v := range f.target {
		if v < 0 {
			return errors.NewInvalidInputError("Frame.TransformTarget", "Total_Transaction",
				"negative value is incompatible with log1p")
		}
	}
	for i, v := range f.target {
		f.target[i] = math.Log1p(v)
	}
	f.targetTransformed = true
	return nil
}
