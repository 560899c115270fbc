// Package model adapts the forecasting pipeline to the LightGBM training
// library. The library is an external collaborator: it consumes the
// train/validation feature matrices and the metric callback, and emits a
// fitted predictor plus per-feature importance scores.
package model

import (
	"log/slog"
	"math"

	lgb "github.com/YuminosukeSato/scigo/sklearn/lightgbm"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/merchantcast/features"
	"github.com/YuminosukeSato/merchantcast/metrics"
	"github.com/YuminosukeSato/merchantcast/pkg/errors"
)

// Config holds the boosting hyperparameters. MaxRounds caps the number of
// boosting iterations and EarlyStopping is the patience window, in rounds,
// on the validation metric; together they bound training time.
type Config struct {
	NumLeaves       int
	MaxDepth        int
	LearningRate    float64
	FeatureFraction float64
	MaxRounds       int
	EarlyStopping   int
	Seed            int
	Deterministic   bool
}

// DefaultConfig returns the tuned production parameters.
func DefaultConfig() Config {
	return Config{
		NumLeaves:       10,
		MaxDepth:        5,
		LearningRate:    0.02,
		FeatureFraction: 0.8,
		MaxRounds:       1000,
		EarlyStopping:   200,
		Seed:            42,
		Deterministic:   true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.NumLeaves < 2 {
		return errors.NewConfigError("model.num_leaves", "must be at least 2", c.NumLeaves)
	}
	if c.LearningRate <= 0 {
		return errors.NewConfigError("model.learning_rate", "must be positive", c.LearningRate)
	}
	if c.FeatureFraction <= 0 || c.FeatureFraction > 1 {
		return errors.NewConfigError("model.feature_fraction", "must be in (0, 1]", c.FeatureFraction)
	}
	if c.MaxRounds <= 0 {
		return errors.NewConfigError("model.max_rounds", "must be positive", c.MaxRounds)
	}
	if c.EarlyStopping < 0 {
		return errors.NewConfigError("model.early_stopping", "must be non-negative", c.EarlyStopping)
	}
	return nil
}

// Forecaster is a fitted gradient-boosted model for log1p-space
// transaction counts.
type Forecaster struct {
	model     *lgb.Model
	predictor *lgb.Predictor
	names     []string

	// BestIteration is the boosting round that minimized the validation
	// metric; predictions use only the trees up to it.
	BestIteration int
	// BestScore is the validation metric at BestIteration.
	BestScore float64
	// History records the validation metric per completed round.
	History []float64
}

// Fit trains a boosted regressor on the training matrix, evaluating eval on
// the validation matrix after every round and stopping once the metric has
// not improved for cfg.EarlyStopping rounds. Training rows with missing
// required features are dropped here; the feature pipeline deliberately
// leaves them in place.
func Fit(train, valid features.Matrix, eval metrics.EvalFn, cfg Config) (fc *Forecaster, err error) {
	defer errors.Recover(&err, "model.Fit")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if eval == nil {
		eval = metrics.LogSpaceSMAPE
	}

	complete := train.DropMissing()
	if complete.Rows() == 0 {
		return nil, errors.NewConfigError("model.train",
			"every training row has missing features; lag offsets exceed the available history", nil)
	}

	slog.Info("fitting forecaster",
		"train_rows", complete.Rows(),
		"dropped_rows", train.Rows()-complete.Rows(),
		"valid_rows", valid.Rows(),
		"features", len(train.Names),
		"max_rounds", cfg.MaxRounds,
		"early_stopping", cfg.EarlyStopping,
	)

	monitor := &validationMonitor{
		eval:     eval,
		valid:    valid,
		patience: cfg.EarlyStopping,
		best:     math.Inf(1),
		bestIter: -1,
	}

	params := lgb.TrainingParams{
		NumIterations:   cfg.MaxRounds,
		LearningRate:    cfg.LearningRate,
		NumLeaves:       cfg.NumLeaves,
		MaxDepth:        cfg.MaxDepth,
		FeatureFraction: cfg.FeatureFraction,
		Objective:       "regression",
		Seed:            cfg.Seed,
		Deterministic:   cfg.Deterministic,
	}

	trainer := lgb.NewTrainer(params).WithCallbacks(monitor.callback)
	if err := trainer.Fit(complete.X, complete.Y); err != nil {
		return nil, errors.Wrap(err, "model.Fit")
	}

	m := trainer.GetModel()
	m.FeatureNames = train.Names
	if monitor.bestIter >= 0 {
		// Trees are counted from one when limiting prediction depth.
		m.BestIteration = monitor.bestIter + 1
	}

	slog.Info("forecaster fitted",
		"rounds", m.NumIteration,
		"best_iteration", m.BestIteration,
		"best_score", monitor.best,
	)

	return &Forecaster{
		model:         m,
		predictor:     lgb.NewPredictor(m),
		names:         train.Names,
		BestIteration: m.BestIteration,
		BestScore:     monitor.best,
		History:       monitor.history,
	}, nil
}

// Predict returns log1p-space predictions for the given matrix.
func (f *Forecaster) Predict(m features.Matrix) ([]float64, error) {
	if f == nil || f.predictor == nil {
		return nil, errors.NewNotFittedError("Forecaster", "Predict")
	}
	if len(m.Names) != len(f.names) {
		return nil, errors.NewDimensionError("Forecaster.Predict", len(f.names), len(m.Names))
	}
	preds, err := f.predictor.Predict(m.X)
	if err != nil {
		return nil, errors.Wrap(err, "Forecaster.Predict")
	}
	return flatten(preds), nil
}

// PredictCounts returns predictions restored to count space via expm1.
func (f *Forecaster) PredictCounts(m features.Matrix) ([]float64, error) {
	preds, err := f.Predict(m)
	if err != nil {
		return nil, err
	}
	return metrics.Expm1(preds), nil
}

// validationMonitor evaluates the metric callback on the validation set
// after every boosting round and flags early stopping. The trainer invokes
// callbacks twice per round, before and after the tree is added; only the
// after-phase call, the even one, sees a new model.
type validationMonitor struct {
	eval     metrics.EvalFn
	valid    features.Matrix
	patience int

	calls     int
	best      float64
	bestIter  int
	sinceBest int
	history   []float64
}

func (v *validationMonitor) callback(env *lgb.CallbackEnv) error {
	v.calls++
	if v.calls%2 == 1 {
		return nil
	}
	if env.Model == nil || len(env.Model.Trees) == 0 {
		return nil
	}

	preds, err := lgb.NewPredictor(env.Model).Predict(v.valid.X)
	if err != nil {
		return err
	}
	labels := make([]float64, v.valid.Y.Len())
	for i := range labels {
		labels[i] = v.valid.Y.AtVec(i)
	}

	name, value, higherBetter := v.eval(flatten(preds), labels)
	env.EvalResults[name] = value
	v.history = append(v.history, value)

	improved := value < v.best
	if higherBetter {
		improved = value > v.best || math.IsInf(v.best, 1)
	}
	if improved {
		v.best = value
		v.bestIter = env.Iteration
		v.sinceBest = 0
	} else {
		v.sinceBest++
	}

	if v.patience > 0 && v.sinceBest >= v.patience {
		slog.Info("early stopping",
			"iteration", env.Iteration,
			"best_iteration", v.bestIter,
			"metric", name,
			"best", v.best,
		)
		env.StopTraining = true
	}
	return nil
}

func flatten(m mat.Matrix) []float64 {
	rows, _ := m.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = m.At(i, 0)
	}
	return out
}
