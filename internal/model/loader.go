package model

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "udderwatch/internal/errors"
	"udderwatch/internal/files"
)

// LoadFile reads and builds one artifact.
func LoadFile(path string, defaultThreshold float64) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("read model %s", path), err)
	}
	a, err := ParseArtifact(data)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("parse model %s", path), err)
	}
	return FromArtifact(a, defaultThreshold)
}

// Directory loads classifiers from a models directory.
type Directory struct {
	discovery        *files.Discovery
	dir              string
	defaultThreshold float64
	logger           *slog.Logger
}

// NewDirectory creates a loader for dir.
func NewDirectory(dir string, defaultThreshold float64, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		discovery:        files.NewDiscovery(""),
		dir:              dir,
		defaultThreshold: defaultThreshold,
		logger:           logger.With(slog.String("component", "model_loader")),
	}
}

// LoadInstant loads the instant classifier. It is required, so failures are
// returned.
func (d *Directory) LoadInstant(ctx context.Context, name string) (Classifier, error) {
	m, err := LoadFile(filepath.Join(d.discovery.Resolve(d.dir), name), d.defaultThreshold)
	if err != nil {
		return nil, apperrors.NewClassifierUnavailableError("instant", err)
	}
	d.logger.InfoContext(ctx, "instant classifier loaded",
		slog.String("file", name),
		slog.Int("features", len(m.Schema())),
	)
	return m, nil
}

// LoadHorizons loads every available horizon classifier. Missing or invalid
// artifacts are logged and left out of the result; the inference stage emits
// placeholders for them.
func (d *Directory) LoadHorizons(ctx context.Context, keys []string) map[string]HorizonClassifier {
	found := d.discovery.FindHorizonModels(d.dir, keys)
	out := make(map[string]HorizonClassifier, len(found))
	for _, key := range keys {
		path, ok := found[key]
		if !ok {
			d.logger.WarnContext(ctx, "horizon classifier unavailable",
				slog.String("horizon", key),
				slog.String("file", files.HorizonModelName(key)),
			)
			continue
		}
		m, err := LoadFile(path, d.defaultThreshold)
		if err != nil {
			unavailable := apperrors.NewClassifierUnavailableError(key, err)
			d.logger.WarnContext(ctx, "horizon classifier unavailable",
				slog.String("horizon", key),
				slog.String("error", unavailable.Error()),
			)
			continue
		}
		out[key] = m
		d.logger.InfoContext(ctx, "horizon classifier loaded",
			slog.String("horizon", key),
			slog.Float64("threshold", m.Threshold()),
		)
	}
	return out
}
