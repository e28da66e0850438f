package services

import (
	"context"
	"fmt"
	"log/slog"

	"udderwatch/internal/config"
	"udderwatch/internal/inference"
	"udderwatch/internal/model"
	"udderwatch/internal/numeric"
	"udderwatch/internal/schema"
	"udderwatch/internal/temporal"
)

// InferenceConfig translates the validated pipeline section into the
// orchestrator configuration.
func InferenceConfig(p config.PipelineConfig) (inference.Config, error) {
	mode, err := inference.ParseMode(p.Mode)
	if err != nil {
		return inference.Config{}, err
	}
	granularity, err := temporal.ParseGranularity(p.OrderBy)
	if err != nil {
		return inference.Config{}, err
	}

	policy := numeric.Policy{Epsilon: p.Epsilon}
	augment := temporal.DefaultAugmentConfig()
	augment.Policy = policy
	augment.ProbabilityColumn = p.ProbabilityColumn
	augment.Rolling = temporal.DefaultRolling(p.ShortWindow, p.LongWindow)
	augment.MinPeriods = p.MinPeriods

	return inference.Config{
		Mode:             mode,
		HorizonKeys:      append([]string(nil), p.HorizonKeys...),
		DefaultThreshold: p.DefaultThreshold,
		Workers:          p.Workers,
		Granularity:      granularity,
		Policy:           policy,
		Augment:          augment,
		LagFeatures:      schema.LagBaseFeatures(),
		LagDepth:         p.LagDepth,
		Excluded:         schema.ExcludedColumns(),
	}, nil
}

// Models is the classifier set of one configured pipeline.
type Models struct {
	Instant  model.Classifier
	Horizons map[string]model.HorizonClassifier
}

// LoadModels loads the instant classifier and, in cascade mode, every
// available horizon classifier from modelsDir. A missing instant classifier
// is an error; missing horizons are not.
func LoadModels(ctx context.Context, modelsDir string, p config.PipelineConfig, logger *slog.Logger) (*Models, error) {
	dir := model.NewDirectory(modelsDir, p.DefaultThreshold, logger)
	instant, err := dir.LoadInstant(ctx, p.InstantModel)
	if err != nil {
		return nil, fmt.Errorf("load models from %s: %w", modelsDir, err)
	}
	m := &Models{Instant: instant}
	if mode, _ := inference.ParseMode(p.Mode); mode == inference.ModeCascade {
		m.Horizons = dir.LoadHorizons(ctx, p.HorizonKeys)
	}
	return m, nil
}

// AvailableHorizons lists the loaded horizon keys in configured order.
func (m *Models) AvailableHorizons(keys []string) []string {
	var out []string
	for _, k := range keys {
		if _, ok := m.Horizons[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
