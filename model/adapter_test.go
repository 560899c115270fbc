package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/merchantcast/features"
	"github.com/YuminosukeSato/merchantcast/metrics"
	"github.com/YuminosukeSato/merchantcast/pkg/errors"
)

// syntheticMatrix builds n rows of two features with a log-space target that
// depends on both, smooth enough for a small ensemble to learn.
func syntheticMatrix(n, offset int) features.Matrix {
	x := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	dates := make([]time.Time, n)
	merchants := make([]string, n)
	rowIDs := make([]int64, n)

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		t := float64(offset + i)
		x.Set(i, 0, t)
		x.Set(i, 1, math.Mod(t, 7))
		y.SetVec(i, math.Log1p(50+10*math.Sin(t/14)+3*math.Mod(t, 7)))
		dates[i] = base.AddDate(0, 0, offset+i)
		merchants[i] = "m_1"
		rowIDs[i] = int64(offset + i)
	}
	return features.Matrix{
		X: x, Y: y,
		Names:     []string{"t", "day_of_week"},
		Dates:     dates,
		Merchants: merchants,
		RowIDs:    rowIDs,
	}
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxRounds = 40
	cfg.EarlyStopping = 10
	cfg.NumLeaves = 4
	cfg.LearningRate = 0.1
	return cfg
}

func TestFitAndPredict(t *testing.T) {
	train := syntheticMatrix(200, 0)
	valid := syntheticMatrix(40, 200)

	fc, err := Fit(train, valid, metrics.LogSpaceSMAPE, smallConfig())
	require.NoError(t, err)
	require.NotNil(t, fc)

	assert.NotEmpty(t, fc.History, "validation metric should be recorded per round")
	assert.LessOrEqual(t, len(fc.History), 40)
	assert.False(t, math.IsInf(fc.BestScore, 1), "best score never set")
	assert.GreaterOrEqual(t, fc.BestIteration, 0)

	best := math.Inf(1)
	for _, v := range fc.History {
		best = math.Min(best, v)
	}
	assert.InDelta(t, best, fc.BestScore, 1e-12, "best score must be the history minimum")

	preds, err := fc.Predict(valid)
	require.NoError(t, err)
	require.Len(t, preds, valid.Rows())
	for i, p := range preds {
		assert.Falsef(t, math.IsNaN(p) || math.IsInf(p, 0), "prediction %d is not finite: %v", i, p)
	}

	counts, err := fc.PredictCounts(valid)
	require.NoError(t, err)
	require.Len(t, counts, len(preds))
	for i := range counts {
		assert.InDelta(t, math.Expm1(preds[i]), counts[i], 1e-12)
	}
}

func TestPredictDimensionMismatch(t *testing.T) {
	train := syntheticMatrix(200, 0)
	valid := syntheticMatrix(40, 200)

	fc, err := Fit(train, valid, nil, smallConfig())
	require.NoError(t, err)

	bad := valid
	bad.Names = []string{"t"}
	_, err = fc.Predict(bad)
	var dim *errors.DimensionError
	assert.ErrorAs(t, err, &dim)
}

func TestPredictNotFitted(t *testing.T) {
	var fc *Forecaster
	_, err := fc.Predict(syntheticMatrix(5, 0))
	var notFitted *errors.NotFittedError
	assert.ErrorAs(t, err, &notFitted)

	_, err = fc.Importance()
	assert.ErrorAs(t, err, &notFitted)
}

func TestFitRejectsAllMissingTraining(t *testing.T) {
	train := syntheticMatrix(30, 0)
	for i := 0; i < 30; i++ {
		train.X.Set(i, 0, math.NaN())
	}
	valid := syntheticMatrix(10, 30)

	_, err := Fit(train, valid, nil, smallConfig())
	var cfg *errors.ConfigError
	assert.ErrorAs(t, err, &cfg)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	mutate := func(fn func(*Config)) Config {
		cfg := DefaultConfig()
		fn(&cfg)
		return cfg
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"num leaves", mutate(func(c *Config) { c.NumLeaves = 1 })},
		{"learning rate", mutate(func(c *Config) { c.LearningRate = 0 })},
		{"feature fraction low", mutate(func(c *Config) { c.FeatureFraction = 0 })},
		{"feature fraction high", mutate(func(c *Config) { c.FeatureFraction = 1.5 })},
		{"max rounds", mutate(func(c *Config) { c.MaxRounds = 0 })},
		{"early stopping", mutate(func(c *Config) { c.EarlyStopping = -1 })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			var cfg *errors.ConfigError
			assert.ErrorAs(t, err, &cfg)
		})
	}
}

func TestImportance(t *testing.T) {
	train := syntheticMatrix(200, 0)
	valid := syntheticMatrix(40, 200)

	fc, err := Fit(train, valid, nil, smallConfig())
	require.NoError(t, err)

	table, err := fc.Importance()
	require.NoError(t, err)
	require.Len(t, table, 2)

	for _, row := range table {
		assert.Contains(t, []string{"t", "day_of_week"}, row.Feature)
		assert.GreaterOrEqual(t, row.Split, 0.0)
		assert.GreaterOrEqual(t, row.Gain, 0.0)
		assert.InDelta(t, 100*row.Gain, row.GainPct, 1e-12)
	}
	// Ranked by gain, highest first.
	for i := 1; i < len(table); i++ {
		assert.GreaterOrEqual(t, table[i-1].Gain, table[i].Gain)
	}
}
