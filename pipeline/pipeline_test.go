package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/merchantcast/dataset"
	"github.com/YuminosukeSato/merchantcast/features"
	"github.com/YuminosukeSato/merchantcast/model"
)

// syntheticLog builds days of history for a few merchants with weekly
// seasonality and merchant-specific levels.
func syntheticLog(t *testing.T, start time.Time, days int) *dataset.Table {
	t.Helper()
	levels := map[string]float64{"m_1": 40, "m_2": 120, "m_3": 75}

	var rows []dataset.Transaction
	id := int64(0)
	for merchant, level := range levels {
		for i := 0; i < days; i++ {
			d := start.AddDate(0, 0, i)
			count := level + 8*math.Sin(2*math.Pi*float64(i)/7)
			rows = append(rows, dataset.Transaction{
				RowID:      id,
				MerchantID: merchant,
				Date:       d,
				Count:      math.Max(0, math.Round(count)),
			})
			id++
		}
	}
	table, err := dataset.NewTable(rows)
	require.NoError(t, err)
	return table
}

func testConfig(cutoff time.Time) Config {
	mc := model.DefaultConfig()
	mc.MaxRounds = 40
	mc.EarlyStopping = 10
	mc.NumLeaves = 4
	mc.LearningRate = 0.1

	return Config{
		Cutoff:     cutoff,
		Horizon:    28,
		Lags:       []int{28, 35},
		Windows:    []int{14},
		Alphas:     []float64{0.5},
		EWMLags:    []int{28},
		NoiseScale: 0,
		MinPeriods: 5,
		Special:    features.DefaultSpecialDates(),
		Model:      mc,
	}
}

func TestRun(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	const days = 200
	table := syntheticLog(t, start, days)
	cutoff := start.AddDate(0, 0, days-28)

	res, err := Run(table, testConfig(cutoff))
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.GreaterOrEqual(t, res.SMAPE, 0.0)
	assert.LessOrEqual(t, res.SMAPE, 200.0)
	assert.GreaterOrEqual(t, res.BestIteration, 0)

	// One forecast per merchant per validation day.
	require.Len(t, res.Predictions, 3*28)
	for _, p := range res.Predictions {
		assert.Contains(t, []string{"m_1", "m_2", "m_3"}, p.MerchantID)
		assert.False(t, p.Date.Before(cutoff), "forecast dated before the cutoff")
		assert.False(t, math.IsNaN(p.Forecast))
		assert.GreaterOrEqual(t, p.Actual, 0.0)
	}

	assert.NotEmpty(t, res.Importance)
}

func TestRunBadCutoff(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	table := syntheticLog(t, start, 100)

	cfg := testConfig(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))
	_, err := Run(table, cfg)
	assert.Error(t, err, "a cutoff before all data must fail")
}

func TestRunRejectsLeakyLags(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	table := syntheticLog(t, start, 100)

	cfg := testConfig(start.AddDate(0, 0, 72))
	cfg.Lags = []int{7} // inside the horizon
	_, err := Run(table, cfg)
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, time.Date(2020, 10, 1, 0, 0, 0, 0, time.UTC), cfg.Cutoff)
	assert.Equal(t, 91, cfg.Horizon)
	assert.NoError(t, cfg.Model.Validate())

	g := features.GroupLag{
		Lags:       cfg.Lags,
		Windows:    cfg.Windows,
		Alphas:     cfg.Alphas,
		EWMLags:    cfg.EWMLags,
		NoiseScale: cfg.NoiseScale,
		MinPeriods: cfg.MinPeriods,
		Seed:       cfg.NoiseSeed,
		Horizon:    cfg.Horizon,
	}
	assert.NoError(t, g.Validate(), "default lag structure must satisfy its own horizon")
}
