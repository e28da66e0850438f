// Command featurizer derives the model features of every raw session export
// in a directory and writes one vaca_<id>_features.csv per entity.
//
// With a description log the tables carry the Mastitis label column. A
// JSON summary of every processed file is written to -summary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"udderwatch/internal/config"
	"udderwatch/internal/exporter"
	"udderwatch/internal/features"
	"udderwatch/internal/infrastructure"
	"udderwatch/internal/ingest"
	"udderwatch/internal/labeling"
	"udderwatch/internal/operations"
	"udderwatch/internal/services"
	"udderwatch/internal/temporal"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("featurizer failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("featurizer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "YAML configuration file (defaults to $UDDER_CONFIG_FILE or config.yaml)")
	inDir := fs.String("in", "", "directory of raw session files (defaults to paths.input_dir)")
	outDir := fs.String("out", "", "directory for the feature tables (defaults to paths.output_dir)")
	labels := fs.String("labels", "", "description log XLSX used for labeling (defaults to paths.description_log)")
	summaryPath := fs.String("summary", "-", "JSON summary path, - for stdout")
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
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}
	if *labels != "" {
		cfg.Paths.DescriptionLog = *labels
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

	icfg, err := services.InferenceConfig(cfg.Pipeline)
	if err != nil {
		return err
	}

	steps := []operations.Step{operations.NewIngestStep(ingest.NewReader("", logger), cfg.Paths.InputDir)}
	var after []string
	if cfg.Paths.DescriptionLog != "" {
		labeler, err := labeling.Load(ctx, cfg.Paths.DescriptionLog, logger)
		if err != nil {
			return err
		}
		steps = append(steps, operations.NewLabelStep(labeler))
		after = append(after, operations.StepIDLabel)
	}
	steps = append(steps,
		operations.NewDeriveStep(
			features.NewEngine(icfg.Policy, logger),
			temporal.NewOrderer(icfg.Granularity),
			temporal.NewAugmenter(icfg.Augment, logger),
			logger, after...,
		),
		operations.NewFeatureExportStep(exporter.NewFeatureExporter(exporter.NewCSVWriter(cfg.Paths.OutputDir, logger))),
	)

	manager := operations.NewManager(nil, nil, logger)
	for _, step := range steps {
		if err := manager.RegisterStep(step); err != nil {
			return err
		}
	}
	state, err := manager.Execute(ctx, "featurize")
	if err != nil {
		return err
	}

	summaries, _ := operations.Summaries(state)
	failed := 0
	for _, s := range summaries {
		if !s.Success {
			failed++
		}
	}
	logger.InfoContext(ctx, "feature export completed",
		slog.Int("files", len(summaries)),
		slog.Int("failed", failed),
		slog.String("output_dir", cfg.Paths.OutputDir),
	)

	out := stdout
	if *summaryPath != "" && *summaryPath != "-" {
		f, err := os.Create(*summaryPath)
		if err != nil {
			return fmt.Errorf("create summary %s: %w", *summaryPath, err)
		}
		defer f.Close()
		out = f
	}
	return exporter.WriteSummaries(out, summaries)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}
