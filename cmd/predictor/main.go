// Command predictor scores a directory of raw session exports and writes
// the JSON run report.
//
// Usage:
//
//	predictor -in data/raw -models models -mode cascade -out report.json -alerts alertas.xlsx
//
// Logs go to stderr so the report can be piped from stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"udderwatch/internal/config"
	"udderwatch/internal/exporter"
	"udderwatch/internal/inference"
	"udderwatch/internal/infrastructure"
	"udderwatch/internal/ingest"
	"udderwatch/internal/operations"
	"udderwatch/internal/services"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("predictor failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("predictor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "YAML configuration file (defaults to $UDDER_CONFIG_FILE or config.yaml)")
	inDir := fs.String("in", "", "directory of raw session files (defaults to paths.input_dir)")
	modelsDir := fs.String("models", "", "directory of classifier artifacts (defaults to paths.models_dir)")
	mode := fs.String("mode", "", "run mode: cascade or instant (defaults to pipeline.mode)")
	outPath := fs.String("out", "-", "JSON report path, - for stdout")
	alertsPath := fs.String("alerts", "", "optional XLSX threshold alert report path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	if *inDir != "" {
		cfg.Paths.InputDir = *inDir
	}
	if *modelsDir != "" {
		cfg.Paths.ModelsDir = *modelsDir
	}
	if *mode != "" {
		cfg.Pipeline.Mode = *mode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()
	ctx = infrastructure.EnsureTraceID(ctx)

	orch, err := newOrchestrator(ctx, cfg, logger)
	if err != nil {
		return err
	}

	out := stdout
	if *outPath != "" && *outPath != "-" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("create report %s: %w", *outPath, err)
		}
		defer f.Close()
		out = f
	}
	var alerts *exporter.ThresholdReport
	if *alertsPath != "" {
		alerts = exporter.NewThresholdReport(cfg.Pipeline.AlertThresholds, logger)
	}

	manager := operations.NewManager(nil, nil, logger)
	for _, step := range []operations.Step{
		operations.NewIngestStep(ingest.NewReader("", logger), cfg.Paths.InputDir),
		operations.NewPredictStep(orch),
		operations.NewReportStep(out, alerts, *alertsPath),
	} {
		if err := manager.RegisterStep(step); err != nil {
			return err
		}
	}

	start := time.Now()
	state, err := manager.Execute(ctx, "predict")
	if err != nil {
		return err
	}

	attrs := []any{
		slog.String("mode", string(orch.Mode())),
		slog.Duration("duration", time.Since(start)),
	}
	if report, ok := operations.Report(state); ok {
		attrs = append(attrs,
			slog.Int("entities", report.TotalEntities),
			slog.Int("failed_entities", report.FailedEntities),
			slog.Int("records", report.TotalRecords),
		)
	}
	logger.InfoContext(ctx, "prediction run completed", attrs...)
	return nil
}

func newOrchestrator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*inference.Orchestrator, error) {
	icfg, err := services.InferenceConfig(cfg.Pipeline)
	if err != nil {
		return nil, err
	}
	models, err := services.LoadModels(ctx, cfg.Paths.ModelsDir, cfg.Pipeline, logger)
	if err != nil {
		return nil, err
	}
	return inference.NewOrchestrator(icfg, models.Instant, models.Horizons, nil, logger)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}
