package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"udderwatch/internal/config"
	apperrors "udderwatch/internal/errors"
	"udderwatch/internal/frame"
	"udderwatch/internal/inference"
	"udderwatch/internal/infrastructure"
	"udderwatch/internal/ingest"
)

// Upload is one session file received from a client.
type Upload struct {
	Name string
	Body io.Reader
}

// RejectedFile is an upload that could not be read.
type RejectedFile struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// PredictionResult is the run report plus the uploads left out of it.
type PredictionResult struct {
	*inference.Report
	Rejected []RejectedFile `json:"rejected_files,omitempty"`
}

// PredictionService runs uploaded session files through the pipeline.
type PredictionService struct {
	reader       *ingest.Reader
	orchestrator *inference.Orchestrator
	horizonKeys  []string
	available    []string
	loadErr      error

	// runs are serialized; one run already uses every pipeline worker
	mu     sync.Mutex
	logger *slog.Logger
}

// NewPredictionService loads the classifiers named by cfg. A service whose
// instant classifier failed to load is still returned; it reports not
// ready and refuses predictions with ErrModelsUnavailable.
func NewPredictionService(ctx context.Context, cfg *config.Config, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *PredictionService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "prediction_service"))

	icfg, err := InferenceConfig(cfg.Pipeline)
	if err != nil {
		return unavailable(cfg.Pipeline.HorizonKeys, err, logger)
	}
	models, err := LoadModels(ctx, cfg.Paths.ModelsDir, cfg.Pipeline, logger)
	if err != nil {
		logger.ErrorContext(ctx, "classifiers unavailable", slog.String("error", err.Error()))
		return unavailable(cfg.Pipeline.HorizonKeys, err, logger)
	}
	s, err := NewPredictionServiceWithModels(icfg, models, metrics, logger)
	if err != nil {
		return unavailable(cfg.Pipeline.HorizonKeys, err, logger)
	}
	return s
}

// NewPredictionServiceWithModels builds a service around already loaded
// classifiers.
func NewPredictionServiceWithModels(icfg inference.Config, models *Models, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) (*PredictionService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if models == nil {
		return nil, apperrors.NewClassifierUnavailableError("instant", nil)
	}
	orch, err := inference.NewOrchestrator(icfg, models.Instant, models.Horizons, metrics, logger)
	if err != nil {
		return nil, err
	}
	s := &PredictionService{
		reader:       ingest.NewReader("", logger),
		orchestrator: orch,
		horizonKeys:  append([]string(nil), icfg.HorizonKeys...),
		available:    models.AvailableHorizons(icfg.HorizonKeys),
		logger:       logger,
	}
	logger.Info("prediction service ready",
		slog.String("mode", string(orch.Mode())),
		slog.Any("horizons", s.available),
	)
	return s, nil
}

func unavailable(keys []string, err error, logger *slog.Logger) *PredictionService {
	return &PredictionService{
		reader:      ingest.NewReader("", logger),
		horizonKeys: append([]string(nil), keys...),
		loadErr:     err,
		logger:      logger,
	}
}

// Ready reports why predictions cannot be served, or nil.
func (s *PredictionService) Ready() error {
	if s.orchestrator == nil {
		if s.loadErr != nil {
			return s.loadErr
		}
		return apperrors.NewClassifierUnavailableError("instant", nil)
	}
	return nil
}

// Mode returns the configured run mode, or "" when not ready.
func (s *PredictionService) Mode() inference.Mode {
	if s.orchestrator == nil {
		return ""
	}
	return s.orchestrator.Mode()
}

// Horizons returns the configured and the loaded horizon keys.
func (s *PredictionService) Horizons() (configured, loaded []string) {
	return append([]string(nil), s.horizonKeys...), append([]string(nil), s.available...)
}

// Predict reads every upload and runs the pipeline over the readable ones.
// Unreadable uploads are listed in the result. No readable upload at all
// is a FatalInput error.
func (s *PredictionService) Predict(ctx context.Context, uploads []Upload) (*PredictionResult, error) {
	if s.orchestrator == nil {
		return nil, apperrors.ErrModelsUnavailable
	}
	if len(uploads) == 0 {
		return nil, apperrors.NewFatalInputError("no session files uploaded", nil)
	}

	result := &PredictionResult{}
	var frames []*frame.Frame
	for _, u := range uploads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := s.reader.Read(ctx, u.Name, u.Body)
		if err != nil {
			s.logger.WarnContext(ctx, "upload rejected",
				slog.String("file", u.Name),
				slog.String("error", err.Error()),
			)
			result.Rejected = append(result.Rejected, RejectedFile{File: u.Name, Error: err.Error()})
			continue
		}
		frames = append(frames, src.Frame)
	}
	if len(frames) == 0 {
		return nil, apperrors.NewFatalInputError(
			fmt.Sprintf("none of the %d uploaded files could be read", len(uploads)), nil).
			WithContext("rejected", result.Rejected)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	report, err := s.orchestrator.Run(ctx, frames)
	if err != nil {
		return nil, err
	}
	result.Report = report

	s.logger.InfoContext(ctx, "prediction completed",
		slog.Int("files", len(frames)),
		slog.Int("rejected", len(result.Rejected)),
		slog.Int("entities", report.TotalEntities),
		slog.Int("failed_entities", report.FailedEntities),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}
