package model

import (
	"sort"

	"github.com/YuminosukeSato/merchantcast/pkg/errors"
)

// Importance is one feature's contribution to the fitted ensemble. Split
// and Gain are normalized shares over all features; GainPct is the gain
// share expressed as a percentage.
type Importance struct {
	Feature string
	Split   float64
	Gain    float64
	GainPct float64
}

// Importance returns the per-feature importance table ranked by gain,
// highest first.
func (f *Forecaster) Importance() ([]Importance, error) {
	if f == nil || f.model == nil {
		return nil, errors.NewNotFittedError("Forecaster", "Importance")
	}

	split := f.model.GetFeatureImportance("split")
	gain := f.model.GetFeatureImportance("gain")

	table := make([]Importance, len(f.names))
	for i, name := range f.names {
		table[i] = Importance{
			Feature: name,
			Split:   split[i],
			Gain:    gain[i],
			GainPct: 100 * gain[i],
		}
	}
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Gain > table[j].Gain
	})
	return table, nil
}
