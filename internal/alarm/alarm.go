// Package alarm maps probabilities and threshold-crossing counts to ordinal
// risk labels.
//
// Three independent policies coexist: count banding for
// the threshold report, the five-band Cascade policy used for cascade run
// results, and the six-band Terminal policy used in instant-only runs, which
// splits the top band at 0.90.
package alarm

import (
	"strconv"
)

// Count band labels.
const (
	CountVeryLow  = "verde (muy baja)"
	CountLow      = "amarillo (baja)"
	CountMedHigh  = "naranja (medio-alto)"
	CountHigh     = "rojo (alto)"
	CountVeryHigh = "rojo (muy alta)"
	CountError    = "error"
)

// ForCount bands a number of threshold crossings. Every integer maps to a
// band; CountError is unreachable for counts produced by ThresholdCounter.
func ForCount(n int) string {
	switch {
	case n <= 1:
		return CountVeryLow
	case n <= 3:
		return CountLow
	case n <= 5:
		return CountMedHigh
	case n <= 7:
		return CountHigh
	case n >= 8:
		return CountVeryHigh
	default:
		return CountError
	}
}

// Band is a half-open probability interval [previous Upper, Upper).
type Band struct {
	Upper float64
	Label string
}

// ProbabilityPolicy bands a single probability.
type ProbabilityPolicy struct {
	name  string
	bands []Band
	// top applies at or above the last band's upper bound.
	top string
}

// Probability band labels.
const (
	NoAlert     = "Sin alerta"
	Green       = "Verde"
	Yellow      = "Amarillo"
	Orange      = "Naranja"
	Red         = "Rojo"
	RedVeryHigh = "Rojo (muy alta)"
)

var (
	// Cascade is the five-band policy of cascade runs.
	Cascade = ProbabilityPolicy{
		name: "cascade",
		bands: []Band{
			{Upper: 0.10, Label: NoAlert},
			{Upper: 0.30, Label: Green},
			{Upper: 0.50, Label: Yellow},
			{Upper: 0.70, Label: Orange},
		},
		top: Red,
	}

	// Terminal is the six-band policy of instant-only runs.
	Terminal = ProbabilityPolicy{
		name: "terminal",
		bands: []Band{
			{Upper: 0.10, Label: NoAlert},
			{Upper: 0.30, Label: Green},
			{Upper: 0.50, Label: Yellow},
			{Upper: 0.70, Label: Orange},
			{Upper: 0.90, Label: Red},
		},
		top: RedVeryHigh,
	}
)

// Name identifies the policy in logs.
func (p ProbabilityPolicy) Name() string { return p.name }

// Classify returns the band label for prob.
func (p ProbabilityPolicy) Classify(prob float64) string {
	for _, b := range p.bands {
		if prob < b.Upper {
			return b.Label
		}
	}
	return p.top
}

// Labels lists the policy's labels from lowest to highest.
func (p ProbabilityPolicy) Labels() []string {
	out := make([]string, 0, len(p.bands)+1)
	for _, b := range p.bands {
		out = append(out, b.Label)
	}
	return append(out, p.top)
}

// DefaultThresholds are the report cut-points, highest first.
func DefaultThresholds() []float64 {
	return []float64{0.9, 0.8, 0.7, 0.6, 0.59, 0.38, 0.03, 0.01, 0.005, 0.001}
}

// Crossings is one probability evaluated against every cut-point.
type Crossings struct {
	Flags []int
	Total int
	Level string
}

// ThresholdCounter counts how many cut-points a probability reaches.
type ThresholdCounter struct {
	thresholds []float64
}

// NewThresholdCounter copies thresholds.
func NewThresholdCounter(thresholds []float64) *ThresholdCounter {
	return &ThresholdCounter{thresholds: append([]float64(nil), thresholds...)}
}

// Columns names the per-threshold flag columns, e.g. Pred_Thr_0.38.
func (c *ThresholdCounter) Columns() []string {
	out := make([]string, len(c.thresholds))
	for i, t := range c.thresholds {
		out[i] = ThresholdColumn(t)
	}
	return out
}

// ThresholdColumn formats a cut-point with the shortest exact decimal form.
func ThresholdColumn(t float64) string {
	return "Pred_Thr_" + strconv.FormatFloat(t, 'f', -1, 64)
}

// Evaluate flags each cut-point with prob >= t and bands the total.
func (c *ThresholdCounter) Evaluate(prob float64) Crossings {
	flags := make([]int, len(c.thresholds))
	total := 0
	for i, t := range c.thresholds {
		if prob >= t {
			flags[i] = 1
			total++
		}
	}
	return Crossings{Flags: flags, Total: total, Level: ForCount(total)}
}
