// Package metrics implements the evaluation metric used to select and score
// the forecasting model.
package metrics

import (
	"math"

	"github.com/YuminosukeSato/merchantcast/pkg/errors"
)

// EvalFn is the training-time evaluation callback contract: it receives raw
// predictions and labels and returns the metric name, its value, and
// whether a higher value is better.
type EvalFn func(preds, labels []float64) (name string, value float64, higherBetter bool)

// SMAPE computes the symmetric mean absolute percentage error between
// predictions and actuals, both in count space.
//
// Positions where prediction and actual are both zero contribute zero error
// rather than 0/0; the final average still divides by the original length,
// masked positions included. The result is in [0, 200], lower is better.
func SMAPE(preds, actual []float64) (float64, error) {
	n := len(preds)
	if n == 0 {
		return 0, errors.NewConfigError("smape", "empty input", nil)
	}
	if len(actual) != n {
		return 0, errors.NewDimensionError("metrics.SMAPE", n, len(actual))
	}

	var sum float64
	for i := 0; i < n; i++ {
		p, a := preds[i], actual[i]
		if p == 0 && a == 0 {
			continue
		}
		sum += math.Abs(p-a) / (math.Abs(p) + math.Abs(a))
	}
	return 200 * sum / float64(n), nil
}

// LogSpaceSMAPE is the EvalFn used during training: the model optimizes a
// log1p-transformed target, so predictions and labels are expm1-restored to
// count space before scoring. NaN is returned on an empty evaluation.
func LogSpaceSMAPE(preds, labels []float64) (string, float64, bool) {
	value, err := SMAPE(Expm1(preds), Expm1(labels))
	if err != nil {
		return "SMAPE", math.NaN(), false
	}
	return "SMAPE", value, false
}

// Log1p applies log(1+x) elementwise, returning a new slice.
func Log1p(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Log1p(x)
	}
	return out
}

// Expm1 applies exp(x)-1 elementwise, returning a new slice. It is the
// inverse of Log1p.
func Expm1(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Expm1(x)
	}
	return out
}
