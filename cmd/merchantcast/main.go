// Command merchantcast runs the quarterly per-merchant transaction
// forecast: it bulk-reads the transaction log, assembles the feature
// dataset, fits the boosted model against the time-based validation window
// and reports the SMAPE score, forecasts and feature importances.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/YuminosukeSato/merchantcast/dataset"
	"github.com/YuminosukeSato/merchantcast/pipeline"
	"github.com/YuminosukeSato/merchantcast/pkg/log"
	"github.com/YuminosukeSato/merchantcast/store/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Setup("info")
		slog.Error("invalid configuration", log.ErrAttr(err))
		os.Exit(1)
	}
	log.Setup(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("pipeline failed", log.ErrAttr(err))
		os.Exit(1)
	}
}

func run(cfg *appConfig) error {
	table, err := loadTable(cfg)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(table, cfg.Pipeline)
	if err != nil {
		return err
	}

	fmt.Printf("validation SMAPE: %.4f\n", result.SMAPE)
	fmt.Printf("best iteration:   %d\n", result.BestIteration)

	top := cfg.TopFeatures
	if top <= 0 || top > len(result.Importance) {
		top = len(result.Importance)
	}
	fmt.Println("feature importance (by gain):")
	for _, imp := range result.Importance[:top] {
		fmt.Printf("  %-40s split=%6.4f gain=%6.2f%%\n", imp.Feature, imp.Split, imp.GainPct)
	}

	if cfg.PredictionsPath != "" {
		if err := writePredictions(cfg.PredictionsPath, result.Predictions); err != nil {
			return err
		}
		slog.Info("predictions written", "path", cfg.PredictionsPath, "rows", len(result.Predictions))
	}
	return nil
}

func loadTable(cfg *appConfig) (*dataset.Table, error) {
	switch cfg.Source {
	case "postgres":
		ctx := context.Background()
		pool, err := postgres.NewPool(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		return postgres.NewTransactionStore(pool).LoadRange(ctx, cfg.From, cfg.To)
	default:
		return dataset.Open(cfg.Path, dataset.DefaultCSVOptions())
	}
}

func writePredictions(path string, preds []pipeline.Prediction) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"merchant_id", "transaction_date", "actual", "forecast"}); err != nil {
		return err
	}
	for _, p := range preds {
		record := []string{
			p.MerchantID,
			p.Date.Format("2006-01-02"),
			strconv.FormatFloat(p.Actual, 'f', 3, 64),
			strconv.FormatFloat(p.Forecast, 'f', 3, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
