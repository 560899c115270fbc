package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/YuminosukeSato/merchantcast/pipeline"
	"github.com/YuminosukeSato/merchantcast/pkg/errors"
)

// appConfig is the full CLI configuration: where the transaction log comes
// from, the pipeline parameters and where results go.
type appConfig struct {
	LogLevel string

	Source string // "csv" or "postgres"
	Path   string // csv path
	DSN    string // postgres dsn
	From   time.Time
	To     time.Time

	Pipeline pipeline.Config

	PredictionsPath string
	TopFeatures     int
}

func loadConfig(path string) (*appConfig, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("input.source", "csv")
	v.SetDefault("output.top_features", 30)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "read config")
		}
	}

	def := pipeline.Default()
	cfg := &appConfig{
		LogLevel:        v.GetString("log_level"),
		Source:          v.GetString("input.source"),
		Path:            v.GetString("input.path"),
		DSN:             v.GetString("input.dsn"),
		Pipeline:        def,
		PredictionsPath: v.GetString("output.predictions"),
		TopFeatures:     v.GetInt("output.top_features"),
	}

	var err error
	if cfg.From, err = optionalDate(v, "input.from"); err != nil {
		return nil, err
	}
	if cfg.To, err = optionalDate(v, "input.to"); err != nil {
		return nil, err
	}

	if v.IsSet("cutoff") {
		cutoff, err := time.ParseInLocation("2006-01-02", v.GetString("cutoff"), time.UTC)
		if err != nil {
			return nil, errors.NewConfigError("cutoff", "not an ISO date", v.GetString("cutoff"))
		}
		cfg.Pipeline.Cutoff = cutoff
	}
	if v.IsSet("horizon") {
		cfg.Pipeline.Horizon = v.GetInt("horizon")
	}
	if v.IsSet("features.lags") {
		cfg.Pipeline.Lags = v.GetIntSlice("features.lags")
	}
	if v.IsSet("features.windows") {
		cfg.Pipeline.Windows = v.GetIntSlice("features.windows")
	}
	if v.IsSet("features.alphas") {
		cfg.Pipeline.Alphas = floatSlice(v, "features.alphas")
	}
	if v.IsSet("features.ewm_lags") {
		cfg.Pipeline.EWMLags = v.GetIntSlice("features.ewm_lags")
	}
	if v.IsSet("features.noise_scale") {
		cfg.Pipeline.NoiseScale = v.GetFloat64("features.noise_scale")
	}
	if v.IsSet("features.noise_seed") {
		cfg.Pipeline.NoiseSeed = v.GetUint64("features.noise_seed")
	}
	if v.IsSet("features.min_periods") {
		cfg.Pipeline.MinPeriods = v.GetInt("features.min_periods")
	}
	if v.IsSet("features.promo_dates") {
		cfg.Pipeline.Special.Promo = nil
		for _, s := range v.GetStringSlice("features.promo_dates") {
			d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
			if err != nil {
				return nil, errors.NewConfigError("features.promo_dates", "not an ISO date", s)
			}
			cfg.Pipeline.Special.Promo = append(cfg.Pipeline.Special.Promo, d)
		}
	}
	if v.IsSet("features.solstice_window") {
		cfg.Pipeline.Special.SolsticeWindow = v.GetInt("features.solstice_window")
	}

	if v.IsSet("model.num_leaves") {
		cfg.Pipeline.Model.NumLeaves = v.GetInt("model.num_leaves")
	}
	if v.IsSet("model.max_depth") {
		cfg.Pipeline.Model.MaxDepth = v.GetInt("model.max_depth")
	}
	if v.IsSet("model.learning_rate") {
		cfg.Pipeline.Model.LearningRate = v.GetFloat64("model.learning_rate")
	}
	if v.IsSet("model.feature_fraction") {
		cfg.Pipeline.Model.FeatureFraction = v.GetFloat64("model.feature_fraction")
	}
	if v.IsSet("model.max_rounds") {
		cfg.Pipeline.Model.MaxRounds = v.GetInt("model.max_rounds")
	}
	if v.IsSet("model.early_stopping") {
		cfg.Pipeline.Model.EarlyStopping = v.GetInt("model.early_stopping")
	}
	if v.IsSet("model.seed") {
		cfg.Pipeline.Model.Seed = v.GetInt("model.seed")
	}

	switch cfg.Source {
	case "csv":
		if cfg.Path == "" {
			return nil, errors.NewConfigError("input.path", "required for csv input", nil)
		}
	case "postgres":
		if cfg.DSN == "" {
			return nil, errors.NewConfigError("input.dsn", "required for postgres input", nil)
		}
	default:
		return nil, errors.NewConfigError("input.source", `must be "csv" or "postgres"`, cfg.Source)
	}

	return cfg, nil
}

func optionalDate(v *viper.Viper, key string) (time.Time, error) {
	if !v.IsSet(key) || v.GetString(key) == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation("2006-01-02", v.GetString(key), time.UTC)
	if err != nil {
		return time.Time{}, errors.NewConfigError(key, "not an ISO date", v.GetString(key))
	}
	return d, nil
}

func floatSlice(v *viper.Viper, key string) []float64 {
	raw := v.Get(key)
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(items))
	for _, it := range items {
		switch x := it.(type) {
		case float64:
			out = append(out, x)
		case int:
			out = append(out, float64(x))
		}
	}
	return out
}
