// Package features turns the raw transaction log into the supervised
// learning dataset consumed by the model adapter: calendar attributes,
// per-merchant lag/rolling/EWM statistics, special-date indicators,
// one-hot encoded categoricals and a log-transformed target.
package features

import (
	"regexp"
	"strconv"
	"strings"
)

// Family identifies which derived-feature family a descriptor belongs to.
type Family int

const (
	FamilyLag Family = iota
	FamilyRollMean
	FamilyEWM
)

// Descriptor identifies a derived feature by family and parameters.
// Column names are derived from the descriptor, never built ad hoc, so the
// same parameters always yield the same column name.
type Descriptor struct {
	Family Family
	Lag    int     // lag offset, in days (FamilyLag, FamilyEWM)
	Window int     // trailing window size, in days (FamilyRollMean)
	Alpha  float64 // smoothing factor (FamilyEWM)
}

// Name returns the stable column name for the descriptor.
func (d Descriptor) Name() string {
	switch d.Family {
	case FamilyRollMean:
		return "sales_roll_mean_" + strconv.Itoa(d.Window)
	case FamilyEWM:
		alpha := strings.ReplaceAll(strconv.FormatFloat(d.Alpha, 'f', -1, 64), ".", "")
		return "sales_ewm_alpha_" + alpha + "_lag_" + strconv.Itoa(d.Lag)
	default:
		return "sales_lag_" + strconv.Itoa(d.Lag)
	}
}

var nameSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// SanitizeName strips every character outside [A-Za-z0-9_] from a column
// name. Downstream model tooling rejects anything else.
func SanitizeName(name string) string {
	return nameSanitizer.ReplaceAllString(name, "")
}
