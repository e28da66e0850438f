package alarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForCount(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, CountVeryLow},
		{1, CountVeryLow},
		{2, CountLow},
		{3, CountLow},
		{4, CountMedHigh},
		{5, CountMedHigh},
		{6, CountHigh},
		{7, CountHigh},
		{8, CountVeryHigh},
		{10, CountVeryHigh},
		{1000, CountVeryHigh},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ForCount(tt.count))
		})
	}
}

func TestForCount_NoGaps(t *testing.T) {
	for n := 0; n <= 64; n++ {
		assert.NotEqual(t, CountError, ForCount(n), "count %d", n)
	}
}

func TestProbabilityPolicies(t *testing.T) {
	tests := []struct {
		prob         float64
		wantCascade  string
		wantTerminal string
	}{
		{0, NoAlert, NoAlert},
		{0.0999, NoAlert, NoAlert},
		{0.10, Green, Green},
		{0.2999, Green, Green},
		{0.30, Yellow, Yellow},
		{0.50, Orange, Orange},
		{0.6999, Orange, Orange},
		{0.70, Red, Red},
		{0.8999, Red, Red},
		{0.90, Red, RedVeryHigh},
		{1, Red, RedVeryHigh},
	}

	for _, tt := range tests {
		t.Run(Terminal.Classify(tt.prob), func(t *testing.T) {
			assert.Equal(t, tt.wantCascade, Cascade.Classify(tt.prob), "cascade %v", tt.prob)
			assert.Equal(t, tt.wantTerminal, Terminal.Classify(tt.prob), "terminal %v", tt.prob)
		})
	}

	assert.Len(t, Cascade.Labels(), 5)
	assert.Len(t, Terminal.Labels(), 6)
	assert.NotEqual(t, Cascade.Name(), Terminal.Name())
}

func TestThresholdCounter(t *testing.T) {
	c := NewThresholdCounter(DefaultThresholds())

	assert.Equal(t, []string{
		"Pred_Thr_0.9", "Pred_Thr_0.8", "Pred_Thr_0.7", "Pred_Thr_0.6", "Pred_Thr_0.59",
		"Pred_Thr_0.38", "Pred_Thr_0.03", "Pred_Thr_0.01", "Pred_Thr_0.005", "Pred_Thr_0.001",
	}, c.Columns())

	tests := []struct {
		name      string
		prob      float64
		wantTotal int
		wantLevel string
	}{
		{name: "below all", prob: 0.0005, wantTotal: 0, wantLevel: CountVeryLow},
		{name: "exactly lowest", prob: 0.001, wantTotal: 1, wantLevel: CountVeryLow},
		{name: "low", prob: 0.02, wantTotal: 3, wantLevel: CountLow},
		{name: "mid", prob: 0.4, wantTotal: 5, wantLevel: CountMedHigh},
		{name: "high", prob: 0.65, wantTotal: 7, wantLevel: CountHigh},
		{name: "very high", prob: 0.85, wantTotal: 9, wantLevel: CountVeryHigh},
		{name: "all", prob: 1, wantTotal: 10, wantLevel: CountVeryHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Evaluate(tt.prob)
			assert.Equal(t, tt.wantTotal, got.Total)
			assert.Equal(t, tt.wantLevel, got.Level)

			sum := 0
			for _, f := range got.Flags {
				sum += f
			}
			assert.Equal(t, got.Total, sum)
		})
	}
}
