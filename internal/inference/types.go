package inference

import (
	"fmt"
	"strings"

	"udderwatch/internal/frame"
	"udderwatch/internal/numeric"
	"udderwatch/internal/schema"
	"udderwatch/internal/temporal"
)

// Mode selects which stages a run executes.
type Mode string

const (
	// ModeCascade runs the instant stage, augmentation and every horizon.
	ModeCascade Mode = "cascade"
	// ModeInstant stops after the instant stage.
	ModeInstant Mode = "instant"
)

// ParseMode validates a configured mode. Empty means ModeCascade.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeCascade, ModeInstant:
		return m, nil
	case "":
		return ModeCascade, nil
	default:
		return "", fmt.Errorf("inference: unknown mode %q", s)
	}
}

// RawProductionColumn is the session production reading used for cascade
// production summaries.
const RawProductionColumn = "Producción (kg)"

// Config is the immutable configuration of one orchestrator.
type Config struct {
	Mode             Mode
	HorizonKeys      []string
	DefaultThreshold float64
	Workers          int
	Granularity      temporal.Granularity
	Policy           numeric.Policy
	Augment          temporal.AugmentConfig
	LagFeatures      []string
	LagDepth         int
	// Excluded columns are never passed to a classifier.
	Excluded []string
}

// DefaultConfig returns the production pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Mode:             ModeCascade,
		HorizonKeys:      []string{"t1", "t2", "t3", "next3"},
		DefaultThreshold: 0.5,
		Workers:          4,
		Granularity:      temporal.ByTimestamp,
		Policy:           numeric.DefaultPolicy(),
		Augment:          temporal.DefaultAugmentConfig(),
		LagFeatures:      schema.LagBaseFeatures(),
		LagDepth:         5,
		Excluded:         schema.ExcludedColumns(),
	}
}

// HorizonPrediction is one horizon classifier's verdict on the latest record.
type HorizonPrediction struct {
	Probability float64 `json:"probability"`
	Threshold   float64 `json:"threshold"`
	Decision    int     `json:"decision"`
	// Available is false for placeholders emitted without a classifier.
	Available bool `json:"available"`
}

// EntityResult is the per-entity output of a run.
type EntityResult struct {
	Entity          string                       `json:"entity_id"`
	Records         int                          `json:"total_records"`
	Dates           []string                     `json:"dates"`
	Probabilities   []float64                    `json:"probabilities"`
	LastProbability float64                      `json:"last_probability"`
	MeanProbability float64                      `json:"mean_probability"`
	AlarmLevel      string                       `json:"alarm_level"`
	RecordAlarms    []string                     `json:"record_alarms,omitempty"`
	ProductionTotal float64                      `json:"production_total"`
	ProductionMean  float64                      `json:"production_mean"`
	Horizons        map[string]HorizonPrediction `json:"horizons,omitempty"`
	Error           string                       `json:"error,omitempty"`

	// Features is the entity's augmented feature table.
	Features *frame.Frame `json:"-"`
}

// Failed reports whether the entity ended in an error result.
func (r EntityResult) Failed() bool { return r.Error != "" }

// Report is the result of one run.
type Report struct {
	Success        bool           `json:"success"`
	Mode           Mode           `json:"mode"`
	TotalRecords   int            `json:"total_records"`
	TotalEntities  int            `json:"total_entities"`
	FailedEntities int            `json:"failed_entities"`
	Entities       []EntityResult `json:"results"`
}
