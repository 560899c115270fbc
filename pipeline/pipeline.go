// Package pipeline wires the full forecasting run: ingest, feature
// assembly, time split, model fitting and scoring. Everything is
// batch-oriented and synchronous; the only long-running step is model
// fitting, which bounds itself via the round cap and early stopping.
package pipeline

import (
	"log/slog"
	"time"

	"github.com/YuminosukeSato/merchantcast/dataset"
	"github.com/YuminosukeSato/merchantcast/features"
	"github.com/YuminosukeSato/merchantcast/metrics"
	"github.com/YuminosukeSato/merchantcast/model"
)

// Config parameterizes one forecasting run.
type Config struct {
	// Cutoff starts the validation window; training uses everything
	// strictly before it.
	Cutoff time.Time

	// Horizon is the forecast horizon in days; every lag offset must
	// cover it.
	Horizon int

	Lags       []int
	Windows    []int
	Alphas     []float64
	EWMLags    []int
	NoiseScale float64
	NoiseSeed  uint64
	MinPeriods int

	Special features.SpecialDates
	Model   model.Config
}

// Default returns the production configuration used for the quarterly
// forecast: three families of lag structure reaching back one, one and a
// half, and two years, and the tuned boosting parameters.
func Default() Config {
	return Config{
		Cutoff:  time.Date(2020, 10, 1, 0, 0, 0, 0, time.UTC),
		Horizon: 91,
		Lags: []int{
			91, 92,
			170, 171, 172, 173, 174, 175, 176, 177, 178, 179, 180,
			181, 182, 183, 184, 185, 186, 187, 188, 189, 190,
			350, 351, 352, 354, 355, 356, 357, 358, 359, 360,
			361, 362, 363, 364, 365, 366, 367, 368, 369, 370,
			538, 539, 540, 541, 542,
			718, 719, 720, 721, 722,
		},
		Windows: []int{
			91, 92, 178, 179, 180, 181, 182, 359, 360, 361,
			449, 450, 451, 539, 540, 541, 629, 630, 631, 720,
		},
		Alphas: []float64{0.95, 0.9, 0.8, 0.7, 0.5},
		EWMLags: []int{
			91, 92, 178, 179, 180, 181, 182, 359, 360, 361,
			449, 450, 451, 539, 540, 541, 629, 630, 631, 720,
		},
		NoiseScale: 1.6,
		NoiseSeed:  42,
		MinPeriods: 10,
		Special:    features.DefaultSpecialDates(),
		Model:      model.DefaultConfig(),
	}
}

// Prediction is one validation-set forecast restored to count space.
type Prediction struct {
	MerchantID string
	Date       time.Time
	Actual     float64
	Forecast   float64
}

// Result is the output of a run: the scalar validation score, the
// per-row forecasts and the ranked feature importance table.
type Result struct {
	SMAPE         float64
	BestIteration int
	Predictions   []Prediction
	Importance    []model.Importance
}

// Run executes the pipeline over an already-loaded transaction log.
func Run(table *dataset.Table, cfg Config) (*Result, error) {
	summary := table.Summarize()
	slog.Info("transaction log loaded",
		"rows", table.Len(),
		"merchants", len(summary.Merchants),
		"start", summary.Start.Format("2006-01-02"),
		"end", summary.End.Format("2006-01-02"),
	)
	for _, m := range summary.Merchants {
		slog.Debug("merchant history",
			"merchant_id", m.MerchantID,
			"days", m.Days,
			"transactions", m.Transactions,
			"paid", m.Paid.String(),
		)
	}

	assembler := features.Assembler{
		GroupLag: features.GroupLag{
			Lags:       cfg.Lags,
			Windows:    cfg.Windows,
			Alphas:     cfg.Alphas,
			EWMLags:    cfg.EWMLags,
			NoiseScale: cfg.NoiseScale,
			MinPeriods: cfg.MinPeriods,
			Seed:       cfg.NoiseSeed,
			Horizon:    cfg.Horizon,
		},
		Special: cfg.Special,
	}
	frame, err := assembler.Assemble(table)
	if err != nil {
		return nil, err
	}
	slog.Info("features assembled", "columns", len(frame.Names()), "schema", len(frame.Schema()))

	train, valid, err := features.Split(frame, cfg.Cutoff)
	if err != nil {
		return nil, err
	}
	slog.Info("time split", "cutoff", cfg.Cutoff.Format("2006-01-02"),
		"train_rows", train.Rows(), "valid_rows", valid.Rows())

	forecaster, err := model.Fit(train, valid, metrics.LogSpaceSMAPE, cfg.Model)
	if err != nil {
		return nil, err
	}

	counts, err := forecaster.PredictCounts(valid)
	if err != nil {
		return nil, err
	}

	actual := make([]float64, valid.Y.Len())
	for i := range actual {
		actual[i] = valid.Y.AtVec(i)
	}
	actual = metrics.Expm1(actual)

	score, err := metrics.SMAPE(counts, actual)
	if err != nil {
		return nil, err
	}

	importance, err := forecaster.Importance()
	if err != nil {
		return nil, err
	}

	preds := make([]Prediction, len(counts))
	for i := range counts {
		preds[i] = Prediction{
			MerchantID: valid.Merchants[i],
			Date:       valid.Dates[i],
			Actual:     actual[i],
			Forecast:   counts[i],
		}
	}

	slog.Info("validation scored", "smape", score, "best_iteration", forecaster.BestIteration)

	return &Result{
		SMAPE:         score,
		BestIteration: forecaster.BestIteration,
		Predictions:   preds,
		Importance:    importance,
	}, nil
}
