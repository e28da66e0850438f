// Package inference runs the cascaded prediction pipeline: session features,
// the instant classifier, temporal augmentation and one classifier per
// forecast horizon, followed by alarm banding.
package inference

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"udderwatch/internal/alarm"
	apperrors "udderwatch/internal/errors"
	"udderwatch/internal/features"
	"udderwatch/internal/frame"
	"udderwatch/internal/infrastructure"
	"udderwatch/internal/model"
	"udderwatch/internal/numeric"
	"udderwatch/internal/schema"
	"udderwatch/internal/temporal"
)

const tracerName = "udderwatch/inference"

// Orchestrator runs the pipeline over session frames. It is safe for
// concurrent use; each Run works on its own copy of the input.
type Orchestrator struct {
	cfg      Config
	instant  model.Classifier
	horizons map[string]model.HorizonClassifier

	engine    *features.Engine
	orderer   *temporal.Orderer
	augmenter *temporal.Augmenter
	lags      *temporal.LagExpander
	aligner   *schema.Aligner

	metrics *infrastructure.PipelineMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewOrchestrator wires the pipeline. instant is required; horizons may be
// empty, in which case every horizon is emitted as a placeholder. metrics may
// be nil.
func NewOrchestrator(cfg Config, instant model.Classifier, horizons map[string]model.HorizonClassifier,
	metrics *infrastructure.PipelineMetrics, logger *slog.Logger) (*Orchestrator, error) {
	if instant == nil {
		return nil, apperrors.NewClassifierUnavailableError("instant", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeCascade
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Augment.ProbabilityColumn == "" {
		cfg.Augment = temporal.DefaultAugmentConfig()
	}
	cfg.HorizonKeys = append([]string(nil), cfg.HorizonKeys...)

	hs := make(map[string]model.HorizonClassifier, len(horizons))
	for k, h := range horizons {
		if h != nil {
			hs[k] = h
		}
	}

	return &Orchestrator{
		cfg:       cfg,
		instant:   instant,
		horizons:  hs,
		engine:    features.NewEngine(cfg.Policy, logger),
		orderer:   temporal.NewOrderer(cfg.Granularity),
		augmenter: temporal.NewAugmenter(cfg.Augment, logger),
		lags:      temporal.NewLagExpander(cfg.LagFeatures, cfg.LagDepth),
		aligner:   schema.NewAligner(cfg.Excluded...),
		metrics:   metrics,
		tracer:    otel.Tracer(tracerName),
		logger:    logger.With(slog.String("component", "orchestrator")),
	}, nil
}

// Mode returns the configured run mode.
func (o *Orchestrator) Mode() Mode { return o.cfg.Mode }

// Run processes every entity found in frames. It fails only when there is no
// input at all or ctx is cancelled; a failing entity yields an error result
// and the remaining entities are still processed. Results are ordered by
// entity id.
func (o *Orchestrator) Run(ctx context.Context, frames []*frame.Frame) (*Report, error) {
	ctx, span := o.tracer.Start(ctx, "inference.run",
		trace.WithAttributes(attribute.String("mode", string(o.cfg.Mode))))
	defer span.End()

	records := 0
	for _, f := range frames {
		if f != nil {
			records += f.Len()
		}
	}
	if records == 0 {
		err := apperrors.NewFatalInputError("no session records to process", nil).
			WithContext("files", len(frames))
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	o.metrics.RecordSessions(ctx, records)

	seq := o.orderer.Order(frame.Concat(frames...))
	parts := seq.Split()
	results := make([]EntityResult, len(parts))

	o.logger.InfoContext(ctx, "prediction run started",
		slog.String("mode", string(o.cfg.Mode)),
		slog.Int("records", records),
		slog.Int("entities", len(parts)),
		slog.Int("workers", o.cfg.Workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	for i, part := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = o.processEntity(gctx, part)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	report := &Report{
		Success:       true,
		Mode:          o.cfg.Mode,
		TotalRecords:  records,
		TotalEntities: len(results),
		Entities:      results,
	}
	for _, r := range results {
		if r.Failed() {
			report.FailedEntities++
		}
	}

	o.logger.InfoContext(ctx, "prediction run completed",
		slog.Int("entities", report.TotalEntities),
		slog.Int("failed", report.FailedEntities),
	)
	return report, nil
}

// processEntity never panics and never returns an error; failures become the
// result's Error field.
func (o *Orchestrator) processEntity(ctx context.Context, seq *temporal.Sequence) (res EntityResult) {
	entity := seq.Entities()[0]
	start := time.Now()

	ctx, span := o.tracer.Start(ctx, "inference.entity",
		trace.WithAttributes(attribute.String("entity", entity)))
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			res = o.failure(ctx, entity, seq.Frame().Len(), fmt.Errorf("panic: %v", rec))
		}
		o.metrics.RecordEntity(ctx, string(o.cfg.Mode), time.Since(start), res.Failed())
	}()

	res, err := o.runEntity(ctx, entity, seq)
	if err != nil {
		return o.failure(ctx, entity, seq.Frame().Len(), err)
	}
	return res
}

func (o *Orchestrator) failure(ctx context.Context, entity string, records int, cause error) EntityResult {
	err := apperrors.NewEntityProcessingError(entity, cause)
	infrastructure.RecordError(ctx, err)
	o.logger.ErrorContext(ctx, "entity processing failed",
		slog.String("entity", entity),
		slog.String("error", err.Error()),
	)
	return EntityResult{Entity: entity, Records: records, Error: err.Error()}
}

func (o *Orchestrator) runEntity(ctx context.Context, entity string, seq *temporal.Sequence) (EntityResult, error) {
	f := seq.Frame()

	if _, err := o.engine.Derive(ctx, f); err != nil {
		return EntityResult{}, fmt.Errorf("derive features: %w", err)
	}
	if err := o.augmenter.Predecessors(ctx, seq); err != nil {
		return EntityResult{}, fmt.Errorf("predecessor features: %w", err)
	}

	probs, err := o.predictInstant(ctx, entity, f)
	if err != nil {
		return EntityResult{}, err
	}
	probCol := o.cfg.Augment.ProbabilityColumn
	if err := f.Set(probCol, append([]float64(nil), probs...)); err != nil {
		return EntityResult{}, err
	}

	res := EntityResult{
		Entity:          entity,
		Records:         f.Len(),
		Dates:           dates(f),
		Probabilities:   probs,
		LastProbability: probs[len(probs)-1],
		MeanProbability: numeric.Mean(probs),
		Features:        f,
	}

	if o.cfg.Mode == ModeInstant {
		f.Normalize()
		res.RecordAlarms = make([]string, len(probs))
		for i, p := range probs {
			res.RecordAlarms[i] = alarm.Terminal.Classify(p)
		}
		res.AlarmLevel = res.RecordAlarms[len(probs)-1]
		res.ProductionTotal = columnSum(f, features.ProductionTotal)
		res.ProductionMean = columnMean(f, features.ProductionMean)
		return res, nil
	}

	if _, err := o.augmenter.RollingProbability(ctx, seq); err != nil {
		return EntityResult{}, fmt.Errorf("rolling probability: %w", err)
	}
	absent, err := o.lags.Expand(seq)
	if err != nil {
		return EntityResult{}, fmt.Errorf("lag expansion: %w", err)
	}
	if len(absent) > 0 {
		o.logger.DebugContext(ctx, "lag features absent",
			slog.String("entity", entity),
			slog.Any("features", absent),
		)
	}
	f.Normalize()

	res.Horizons = o.predictHorizons(ctx, entity, f)
	res.AlarmLevel = alarm.Cascade.Classify(res.LastProbability)
	res.ProductionTotal = columnSum(f, RawProductionColumn)
	res.ProductionMean = columnMean(f, RawProductionColumn)
	return res, nil
}

func (o *Orchestrator) predictInstant(ctx context.Context, entity string, f *frame.Frame) ([]float64, error) {
	cols := o.instant.Schema()
	aligned, missing := o.aligner.Align(f, cols)
	if len(missing) > 0 {
		gap := apperrors.NewSchemaError("instant", missing)
		o.logger.DebugContext(ctx, gap.Message,
			slog.String("entity", entity),
			slog.Any("missing", missing),
		)
	}

	rows := schema.Rows(aligned)
	probs := make([]float64, len(rows))
	for i, x := range rows {
		p, err := o.instant.PredictProbability(x)
		if err != nil {
			return nil, fmt.Errorf("instant classifier row %d: %w", i, err)
		}
		probs[i] = p
	}
	return probs, nil
}

// predictHorizons scores the entity's latest record. Every configured key is
// present in the result.
func (o *Orchestrator) predictHorizons(ctx context.Context, entity string, f *frame.Frame) map[string]HorizonPrediction {
	out := make(map[string]HorizonPrediction, len(o.cfg.HorizonKeys))
	last := f.Len() - 1

	for _, key := range o.cfg.HorizonKeys {
		h, ok := o.horizons[key]
		if !ok {
			o.metrics.RecordPlaceholder(ctx, key)
			out[key] = HorizonPrediction{Threshold: o.cfg.DefaultThreshold}
			continue
		}
		thr := h.Threshold()
		if last < 0 {
			out[key] = HorizonPrediction{Threshold: thr}
			continue
		}

		cols := h.Schema()
		if missing := o.aligner.Missing(f, cols); len(missing) > 0 {
			o.logger.DebugContext(ctx, "horizon schema zero-filled",
				slog.String("entity", entity),
				slog.String("horizon", key),
				slog.Int("missing", len(missing)),
			)
		}
		p, err := h.PredictProbability(o.aligner.Vector(f, cols, last))
		if err != nil {
			o.logger.WarnContext(ctx, "horizon classifier failed",
				slog.String("entity", entity),
				slog.String("horizon", key),
				slog.String("error", err.Error()),
			)
			o.metrics.RecordPlaceholder(ctx, key)
			out[key] = HorizonPrediction{Threshold: thr}
			continue
		}
		decision := 0
		if p >= thr {
			decision = 1
		}
		out[key] = HorizonPrediction{Probability: p, Threshold: thr, Decision: decision, Available: true}
	}
	return out
}

// dates returns the calendar date of each record; unparsable timestamps fall
// back to the date part of the raw text.
func dates(f *frame.Frame) []string {
	out := make([]string, f.Len())
	for i := range out {
		ts := f.Time(i)
		if d, ok := ts.Date(); ok {
			out[i] = d
			continue
		}
		raw := strings.TrimSpace(ts.Raw)
		if j := strings.IndexByte(raw, ' '); j >= 0 {
			raw = raw[:j]
		}
		out[i] = raw
	}
	return out
}

func columnSum(f *frame.Frame, name string) float64 {
	c, ok := f.Column(name)
	if !ok {
		return 0
	}
	return numeric.Clean(numeric.Sum(c))
}

func columnMean(f *frame.Frame, name string) float64 {
	c, ok := f.Column(name)
	if !ok || len(c) == 0 {
		return 0
	}
	return numeric.Clean(numeric.Mean(c))
}
