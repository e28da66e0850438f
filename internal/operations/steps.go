package operations

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"udderwatch/internal/exporter"
	"udderwatch/internal/features"
	"udderwatch/internal/inference"
	"udderwatch/internal/ingest"
	"udderwatch/internal/labeling"
	"udderwatch/internal/temporal"
)

// Step identifiers of the batch pipelines.
const (
	StepIDIngest         = "ingest"
	StepIDLabel          = "label"
	StepIDDerive         = "derive"
	StepIDPredict        = "predict"
	StepIDExportFeatures = "export_features"
	StepIDReport         = "report"
)

func sources(state *OperationState) ([]*ingest.Source, error) {
	srcs, ok := contextValue[[]*ingest.Source](state, ContextKeySources)
	if !ok {
		return nil, fmt.Errorf("no ingested sources in operation context")
	}
	return srcs, nil
}

// IngestStep reads every session file of a directory.
type IngestStep struct {
	BaseStep
	reader *ingest.Reader
	dir    string
}

// NewIngestStep creates the ingestion step.
func NewIngestStep(reader *ingest.Reader, dir string) *IngestStep {
	return &IngestStep{
		BaseStep: NewBaseStep(StepIDIngest, "Read session files", nil),
		reader:   reader,
		dir:      dir,
	}
}

// Validate implements Step.
func (s *IngestStep) Validate(*OperationState) error {
	if s.reader == nil {
		return fmt.Errorf("ingest step has no reader")
	}
	if s.dir == "" {
		return fmt.Errorf("ingest step has no input directory")
	}
	return nil
}

// Execute implements Step.
func (s *IngestStep) Execute(ctx context.Context, state *OperationState) error {
	srcs, err := s.reader.ReadDir(ctx, s.dir)
	if err != nil {
		return err
	}
	failed := 0
	for _, src := range srcs {
		if src.Err != nil {
			failed++
		}
	}
	st := state.GetStep(s.ID())
	st.SetMetadata("files", len(srcs))
	st.SetMetadata("failed_files", failed)
	state.SetContext(ContextKeySources, srcs)
	return nil
}

// LabelStep marks sessions that fall on a recorded condition event.
type LabelStep struct {
	BaseStep
	labeler *labeling.Labeler
}

// NewLabelStep creates the labeling step.
func NewLabelStep(labeler *labeling.Labeler) *LabelStep {
	return &LabelStep{
		BaseStep: NewBaseStep(StepIDLabel, "Label condition events", []string{StepIDIngest}),
		labeler:  labeler,
	}
}

// Validate implements Step.
func (s *LabelStep) Validate(state *OperationState) error {
	if s.labeler == nil {
		return fmt.Errorf("label step has no event log")
	}
	_, err := sources(state)
	return err
}

// Execute implements Step.
func (s *LabelStep) Execute(ctx context.Context, state *OperationState) error {
	srcs, err := sources(state)
	if err != nil {
		return err
	}
	total := 0
	for _, src := range srcs {
		if src.Err != nil || src.Frame == nil {
			continue
		}
		n, err := s.labeler.Label(ctx, src.Frame)
		if err != nil {
			src.Err = err
			continue
		}
		total += n
	}
	state.GetStep(s.ID()).SetMetadata("positive_sessions", total)
	state.SetContext(ContextKeyLabeled, total)
	return nil
}

// DeriveStep computes session features and predecessor deltas per file.
type DeriveStep struct {
	BaseStep
	engine    *features.Engine
	orderer   *temporal.Orderer
	augmenter *temporal.Augmenter
	logger    *slog.Logger
}

// NewDeriveStep creates the feature derivation step. It runs after labeling
// when a label step is registered.
func NewDeriveStep(engine *features.Engine, orderer *temporal.Orderer, augmenter *temporal.Augmenter,
	logger *slog.Logger, after ...string) *DeriveStep {
	if logger == nil {
		logger = slog.Default()
	}
	deps := append([]string{StepIDIngest}, after...)
	return &DeriveStep{
		BaseStep:  NewBaseStep(StepIDDerive, "Derive session features", deps),
		engine:    engine,
		orderer:   orderer,
		augmenter: augmenter,
		logger:    logger,
	}
}

// Validate implements Step.
func (s *DeriveStep) Validate(state *OperationState) error {
	if s.engine == nil || s.orderer == nil || s.augmenter == nil {
		return fmt.Errorf("derive step is not fully configured")
	}
	_, err := sources(state)
	return err
}

// Execute implements Step. A file whose derivation fails keeps its error in
// the source and the remaining files are still processed.
func (s *DeriveStep) Execute(ctx context.Context, state *OperationState) error {
	srcs, err := sources(state)
	if err != nil {
		return err
	}
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if src.Err != nil || src.Frame == nil {
			continue
		}
		if _, err := s.engine.Derive(ctx, src.Frame); err != nil {
			src.Err = err
			continue
		}
		seq := s.orderer.Order(src.Frame)
		if err := s.augmenter.Predecessors(ctx, seq); err != nil {
			src.Err = err
			continue
		}
		seq.Frame().Normalize()
		src.Frame = seq.Frame()
		s.logger.DebugContext(ctx, "features derived",
			slog.String("file", filepath.Base(src.Path)),
			slog.Int("columns", len(src.Frame.Names())))
	}
	return nil
}

// FeatureExportStep writes one feature CSV per file and records a summary.
type FeatureExportStep struct {
	BaseStep
	exporter *exporter.FeatureExporter
}

// NewFeatureExportStep creates the feature export step.
func NewFeatureExportStep(fe *exporter.FeatureExporter) *FeatureExportStep {
	return &FeatureExportStep{
		BaseStep: NewBaseStep(StepIDExportFeatures, "Export feature tables", []string{StepIDDerive}),
		exporter: fe,
	}
}

// Validate implements Step.
func (s *FeatureExportStep) Validate(state *OperationState) error {
	if s.exporter == nil {
		return fmt.Errorf("export step has no exporter")
	}
	_, err := sources(state)
	return err
}

// Execute implements Step.
func (s *FeatureExportStep) Execute(ctx context.Context, state *OperationState) error {
	srcs, err := sources(state)
	if err != nil {
		return err
	}
	summaries := make([]exporter.FileSummary, 0, len(srcs))
	var outputs []string
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return err
		}
		sum := exporter.FileSummary{File: filepath.Base(src.Path), Entity: src.Entity}
		if src.Err == nil {
			path, err := s.exporter.Export(src.Entity, src.Frame)
			if err != nil {
				src.Err = err
			} else {
				headers, _ := exporter.FeatureTable(src.Frame)
				sum.Success = true
				sum.Rows = src.Frame.Len()
				sum.Columns = len(headers)
				sum.Output = path
				outputs = append(outputs, path)
			}
		}
		if src.Err != nil {
			sum.Error = src.Err.Error()
		}
		summaries = append(summaries, sum)
	}
	state.GetStep(s.ID()).SetMetadata("written", len(outputs))
	state.SetContext(ContextKeySummaries, summaries)
	state.SetContext(ContextKeyOutputs, outputs)
	return nil
}

// PredictStep runs the inference orchestrator over the ingested frames.
type PredictStep struct {
	BaseStep
	orchestrator *inference.Orchestrator
}

// NewPredictStep creates the prediction step.
func NewPredictStep(o *inference.Orchestrator) *PredictStep {
	return &PredictStep{
		BaseStep:     NewBaseStep(StepIDPredict, "Run classifiers", []string{StepIDIngest}),
		orchestrator: o,
	}
}

// Validate implements Step.
func (s *PredictStep) Validate(state *OperationState) error {
	if s.orchestrator == nil {
		return fmt.Errorf("predict step has no orchestrator")
	}
	_, err := sources(state)
	return err
}

// Execute implements Step.
func (s *PredictStep) Execute(ctx context.Context, state *OperationState) error {
	srcs, err := sources(state)
	if err != nil {
		return err
	}
	report, err := s.orchestrator.Run(ctx, ingest.Frames(srcs))
	if err != nil {
		return err
	}
	st := state.GetStep(s.ID())
	st.SetMetadata("entities", report.TotalEntities)
	st.SetMetadata("failed_entities", report.FailedEntities)
	state.SetContext(ContextKeyReport, report)
	return nil
}

// ReportStep writes the run report as JSON and, when configured, the XLSX
// threshold report.
type ReportStep struct {
	BaseStep
	out           io.Writer
	threshold     *exporter.ThresholdReport
	thresholdPath string
}

// NewReportStep creates the report step. threshold may be nil.
func NewReportStep(out io.Writer, threshold *exporter.ThresholdReport, thresholdPath string) *ReportStep {
	return &ReportStep{
		BaseStep:      NewBaseStep(StepIDReport, "Write reports", []string{StepIDPredict}),
		out:           out,
		threshold:     threshold,
		thresholdPath: thresholdPath,
	}
}

// Validate implements Step.
func (s *ReportStep) Validate(state *OperationState) error {
	if s.out == nil {
		return fmt.Errorf("report step has no output")
	}
	if s.threshold != nil && s.thresholdPath == "" {
		return fmt.Errorf("threshold report requires an output path")
	}
	if _, ok := contextValue[*inference.Report](state, ContextKeyReport); !ok {
		return fmt.Errorf("no prediction report in operation context")
	}
	return nil
}

// Execute implements Step.
func (s *ReportStep) Execute(_ context.Context, state *OperationState) error {
	report, _ := contextValue[*inference.Report](state, ContextKeyReport)
	if err := exporter.WriteReport(s.out, report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if s.threshold == nil {
		return nil
	}
	if err := s.threshold.Write(s.thresholdPath, report); err != nil {
		return err
	}
	state.SetContext(ContextKeyOutputs, []string{s.thresholdPath})
	return nil
}

// Report returns the prediction report stored by the predict step.
func Report(state *OperationState) (*inference.Report, bool) {
	return contextValue[*inference.Report](state, ContextKeyReport)
}

// Summaries returns the per-file summaries stored by the feature export
// step.
func Summaries(state *OperationState) ([]exporter.FileSummary, bool) {
	return contextValue[[]exporter.FileSummary](state, ContextKeySummaries)
}
