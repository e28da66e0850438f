package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"udderwatch/internal/config"
)

// Readiness reports whether classifiers are loaded.
type Readiness interface {
	Ready() error
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	paths     config.PathsConfig
	predictor Readiness
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

const (
	statusReady    = "ready"
	statusNotReady = "not_ready"
)

// NewHealthService creates a health service. predictor may be nil, in which
// case the models check reports not ready.
func NewHealthService(version, buildTime string, paths config.PathsConfig, predictor Readiness, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "health_service"))
	logger.Info("health service initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
	)
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		paths:     paths,
		predictor: predictor,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
	hs.logger.DebugContext(ctx, "health check completed",
		slog.String("status", status.Status),
		slog.Duration("uptime", time.Since(hs.startTime)),
	)
	return status
}

// ReadinessCheck returns ready only when every dependency is ready.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    statusReady,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"models":     hs.checkModels(),
			"models_dir": checkDir(hs.paths.ModelsDir),
		},
	}
	for name, sh := range status.Services {
		if sh.Status != statusReady {
			status.Status = statusNotReady
			hs.logger.WarnContext(ctx, "dependency not ready",
				slog.String("service", name),
				slog.String("message", sh.Message),
			)
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

func (hs *HealthService) checkModels() ServiceHealth {
	if hs.predictor == nil {
		return ServiceHealth{Status: statusNotReady, Message: "prediction service not initialized"}
	}
	if err := hs.predictor.Ready(); err != nil {
		return ServiceHealth{Status: statusNotReady, Message: err.Error()}
	}
	return ServiceHealth{
		Status:  statusReady,
		Message: "instant classifier loaded",
		Uptime:  time.Since(hs.startTime).String(),
	}
}

func checkDir(dir string) ServiceHealth {
	info, err := os.Stat(dir)
	switch {
	case err != nil:
		return ServiceHealth{Status: statusNotReady, Message: fmt.Sprintf("directory unavailable: %v", err)}
	case !info.IsDir():
		return ServiceHealth{Status: statusNotReady, Message: fmt.Sprintf("%s is not a directory", dir)}
	}
	return ServiceHealth{Status: statusReady}
}
