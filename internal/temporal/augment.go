package temporal

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"udderwatch/internal/numeric"
)

// Predecessor names the columns derived from a source column and its value
// in the previous record of the same entity.
type Predecessor struct {
	Source string
	Prev   string
	Delta  string
	Rate   string
}

// DefaultPredecessors covers production and conductivity means.
func DefaultPredecessors() []Predecessor {
	return []Predecessor{
		{
			Source: "Produccion_promedio",
			Prev:   "Produccion_promedio_prev",
			Delta:  "delta_produccion_promedio",
			Rate:   "tasa_cambio_produccion",
		},
		{
			Source: "Conductividad_promedio",
			Prev:   "Conductividad_promedio_prev",
			Delta:  "delta_conductividad_promedio",
			Rate:   "tasa_cambio_conductividad",
		},
	}
}

// Statistic is a rolling window reduction.
type Statistic string

const (
	StatMean Statistic = "mean"
	StatMax  Statistic = "max"
	StatMin  Statistic = "min"
)

// Rolling is one trailing-window statistic of the probability column.
type Rolling struct {
	Name   string
	Window int
	Stat   Statistic
}

// DefaultRolling returns the mean over the short window and the mean, max
// and min over the long window.
func DefaultRolling(short, long int) []Rolling {
	name := func(w int, s Statistic) string { return fmt.Sprintf("prob_roll%d_%s", w, s) }
	return []Rolling{
		{Name: name(short, StatMean), Window: short, Stat: StatMean},
		{Name: name(long, StatMean), Window: long, Stat: StatMean},
		{Name: name(long, StatMax), Window: long, Stat: StatMax},
		{Name: name(long, StatMin), Window: long, Stat: StatMin},
	}
}

// AugmentConfig is immutable per pipeline configuration.
type AugmentConfig struct {
	Policy            numeric.Policy
	Predecessors      []Predecessor
	ProbabilityColumn string
	Rolling           []Rolling
	// MinPeriods is the minimum number of observed values in a window for
	// the statistic to be defined.
	MinPeriods int
}

// DefaultAugmentConfig returns the production configuration.
func DefaultAugmentConfig() AugmentConfig {
	return AugmentConfig{
		Policy:            numeric.DefaultPolicy(),
		Predecessors:      DefaultPredecessors(),
		ProbabilityColumn: "prob_xgb",
		Rolling:           DefaultRolling(3, 5),
		MinPeriods:        1,
	}
}

// Augmenter appends predecessor and rolling columns to a sequence.
type Augmenter struct {
	cfg    AugmentConfig
	logger *slog.Logger
}

// NewAugmenter creates an augmenter.
func NewAugmenter(cfg AugmentConfig, logger *slog.Logger) *Augmenter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinPeriods < 1 {
		cfg.MinPeriods = 1
	}
	return &Augmenter{cfg: cfg, logger: logger.With(slog.String("component", "temporal_augmenter"))}
}

// Augment runs Predecessors then RollingProbability and normalizes the frame.
func (a *Augmenter) Augment(ctx context.Context, seq *Sequence) error {
	if err := a.Predecessors(ctx, seq); err != nil {
		return err
	}
	if _, err := a.RollingProbability(ctx, seq); err != nil {
		return err
	}
	seq.frame.Normalize()
	return nil
}

// Predecessors appends previous value, delta and rate of change for every
// configured source present in the sequence. The first record of each entity
// gets zero for all three.
func (a *Augmenter) Predecessors(ctx context.Context, seq *Sequence) error {
	f := seq.frame
	for _, p := range a.cfg.Predecessors {
		src, ok := f.Column(p.Source)
		if !ok {
			a.logger.DebugContext(ctx, "predecessor source absent", slog.String("column", p.Source))
			continue
		}
		prev := make([]float64, f.Len())
		delta := make([]float64, f.Len())
		rate := make([]float64, f.Len())
		for _, g := range seq.groups {
			for i := g.Start + 1; i < g.End; i++ {
				prev[i] = src[i-1]
				delta[i] = src[i] - src[i-1]
				rate[i] = a.cfg.Policy.Div(delta[i], prev[i])
			}
		}
		if err := f.Set(p.Prev, prev); err != nil {
			return err
		}
		if err := f.Set(p.Delta, delta); err != nil {
			return err
		}
		if err := f.Set(p.Rate, rate); err != nil {
			return err
		}
	}
	return nil
}

// RollingProbability appends the configured trailing-window statistics of
// the probability column. It reports false when the column is absent.
func (a *Augmenter) RollingProbability(ctx context.Context, seq *Sequence) (bool, error) {
	f := seq.frame
	probs, ok := f.Column(a.cfg.ProbabilityColumn)
	if !ok {
		a.logger.WarnContext(ctx, "probability column absent, rolling statistics skipped",
			slog.String("column", a.cfg.ProbabilityColumn))
		return false, nil
	}
	for _, r := range a.cfg.Rolling {
		out := make([]float64, f.Len())
		for _, g := range seq.groups {
			for i := g.Start; i < g.End; i++ {
				lo := i - r.Window + 1
				if lo < g.Start {
					lo = g.Start
				}
				out[i] = a.reduce(r.Stat, probs[lo:i+1])
			}
		}
		if err := f.Set(r.Name, out); err != nil {
			return true, err
		}
	}
	return true, nil
}

// reduce skips NaN observations and yields NaN when fewer than MinPeriods
// remain.
func (a *Augmenter) reduce(stat Statistic, window []float64) float64 {
	observed := make([]float64, 0, len(window))
	for _, v := range window {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	if len(observed) < a.cfg.MinPeriods {
		return math.NaN()
	}
	switch stat {
	case StatMax:
		return numeric.Max(observed)
	case StatMin:
		return numeric.Min(observed)
	default:
		return numeric.Mean(observed)
	}
}
