package features

import (
	"strconv"

	"github.com/YuminosukeSato/merchantcast/dataset"
	"github.com/YuminosukeSato/merchantcast/pkg/errors"
)

// Assembler runs the full feature pipeline over a transaction log: calendar
// attributes, per-merchant lag statistics, fixed-calendar indicators,
// one-hot encoding and the log1p target transform. The resulting frame
// carries an explicit feature schema, so the training and validation column
// sets are identical by construction rather than by exclusion lists.
type Assembler struct {
	GroupLag GroupLag
	Special  SpecialDates
}

// Assemble builds the feature frame for the given log. Rows are created
// once, in log order, and not mutated afterwards.
func (a *Assembler) Assemble(t *dataset.Table) (*Frame, error) {
	f := NewFrame(t)

	if err := BuildCalendar(f); err != nil {
		return nil, err
	}
	if err := a.GroupLag.Apply(f); err != nil {
		return nil, err
	}
	if err := a.Special.Build(f); err != nil {
		return nil, err
	}
	if err := EncodeOneHot(f); err != nil {
		return nil, err
	}
	if err := f.TransformTarget(); err != nil {
		return nil, err
	}

	if err := sanitizeColumns(f); err != nil {
		return nil, err
	}
	buildSchema(f)
	return f, nil
}

// sanitizeColumns strips characters outside [A-Za-z0-9_] from every column
// name; merchant identifiers in particular can carry arbitrary punctuation.
// Two names that differ only in stripped characters would silently share one
// schema entry, so a collision fails the assembly instead.
func sanitizeColumns(f *Frame) error {
	for _, name := range f.Names() {
		clean := SanitizeName(name)
		if clean == name {
			continue
		}
		if _, taken := f.Column(clean); taken {
			return errors.NewInvalidInputError("features.Assemble", name,
				"column name collides with "+strconv.Quote(clean)+" after sanitization")
		}
		if err := f.renameColumn(name, clean); err != nil {
			return err
		}
	}
	return nil
}

// buildSchema enumerates the model feature columns once. Every assembled
// column participates except the year, which would let the model key on the
// calendar year instead of learning seasonal structure. The timestamp, row
// id, raw target and paid amount are frame metadata and never columns.
func buildSchema(f *Frame) {
	schema := make([]string, 0, len(f.cols))
	for _, c := range f.cols {
		if c.Name == ColYear {
			continue
		}
		schema = append(schema, c.Name)
	}
	f.schema = schema
}
