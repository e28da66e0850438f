// Package features derives the session-level engineered attributes from raw
// quadrant measurements. Derivation is organized as a registry of families;
// each family declares its inputs and is skipped as a unit when they are
// absent.
package features

import (
	"context"
	"log/slog"

	apperrors "udderwatch/internal/errors"
	"udderwatch/internal/frame"
	"udderwatch/internal/numeric"
)

// Report describes what a derivation pass produced.
type Report struct {
	Applied []string
	// Skipped holds one DATA_GAP error per family whose inputs were absent.
	Skipped []*apperrors.AppError
	// Normalized counts non-finite cells replaced with zero.
	Normalized int
}

// Engine runs feature families over a frame.
type Engine struct {
	families []Family
	policy   numeric.Policy
	logger   *slog.Logger
}

// NewEngine creates an engine. With no families given, DefaultFamilies is used.
func NewEngine(policy numeric.Policy, logger *slog.Logger, families ...Family) *Engine {
	if len(families) == 0 {
		families = DefaultFamilies()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		families: families,
		policy:   policy,
		logger:   logger.With(slog.String("component", "feature_engine")),
	}
}

// Families returns the registered family names in evaluation order.
func (e *Engine) Families() []string {
	names := make([]string, len(e.families))
	for i, fam := range e.families {
		names[i] = fam.Name
	}
	return names
}

// Derive appends every computable family's outputs to f and normalizes the
// frame. Families with absent inputs leave f unchanged for their outputs.
func (e *Engine) Derive(ctx context.Context, f *frame.Frame) (Report, error) {
	var report Report
	for _, fam := range e.families {
		inputs, missing := e.resolve(fam, f)
		if inputs == nil {
			gap := apperrors.NewDataGapError(fam.Name, missing)
			report.Skipped = append(report.Skipped, gap)
			e.logger.WarnContext(ctx, "feature family skipped",
				slog.String("family", fam.Name),
				slog.Any("missing", missing),
			)
			continue
		}
		if err := e.apply(fam, f, inputs); err != nil {
			return report, err
		}
		report.Applied = append(report.Applied, fam.Name)
	}
	report.Normalized = f.Normalize()
	e.logger.DebugContext(ctx, "features derived",
		slog.Int("rows", f.Len()),
		slog.Int("families_applied", len(report.Applied)),
		slog.Int("families_skipped", len(report.Skipped)),
	)
	return report, nil
}

// resolve returns the input columns a family will read, or nil with the
// missing names when the family cannot run.
func (e *Engine) resolve(fam Family, f *frame.Frame) ([][]float64, []string) {
	var inputs [][]float64
	var missing []string
	for _, name := range fam.Requires {
		col, ok := f.Column(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		inputs = append(inputs, col)
	}
	if fam.AnyOf {
		if len(inputs) == 0 {
			return nil, missing
		}
		return inputs, nil
	}
	if len(missing) > 0 {
		return nil, missing
	}
	return inputs, nil
}

func (e *Engine) apply(fam Family, f *frame.Frame, inputs [][]float64) error {
	n := f.Len()
	outs := make([][]float64, len(fam.Outputs))
	for j := range outs {
		outs[j] = make([]float64, n)
	}
	row := make([]float64, len(inputs))
	for i := 0; i < n; i++ {
		for k, col := range inputs {
			row[k] = col[i]
		}
		values := fam.Compute(e.policy, row)
		for j := range outs {
			outs[j][i] = values[j]
		}
	}
	for j, name := range fam.Outputs {
		if err := f.Set(name, outs[j]); err != nil {
			return err
		}
	}
	return nil
}
