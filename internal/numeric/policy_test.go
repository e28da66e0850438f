package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Div(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name string
		num  float64
		den  float64
		want float64
	}{
		{name: "regular ratio", num: 10, den: 5, want: 10 / (5 + DefaultEpsilon)},
		{name: "zero denominator stays finite", num: 3, den: 0, want: 3 / DefaultEpsilon},
		{name: "zero over zero", num: 0, den: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Div(tt.num, tt.den)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.True(t, IsFinite(got))
		})
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, 0.0, Clean(math.Inf(1)))
	assert.Equal(t, 0.0, Clean(math.Inf(-1)))
	assert.Equal(t, 0.0, Clean(math.NaN()))
	assert.Equal(t, 1.5, Clean(1.5))
}

func TestCleanSlice(t *testing.T) {
	values := []float64{1, math.NaN(), math.Inf(1), -2, math.Inf(-1)}
	replaced := CleanSlice(values)

	assert.Equal(t, 3, replaced)
	assert.Equal(t, []float64{1, 0, 0, -2, 0}, values)
}

func TestAggregates(t *testing.T) {
	xs := []float64{2, 4, 4, 6}

	assert.InDelta(t, 4.0, Mean(xs), 1e-12)
	// sample deviation: sqrt(8/3)
	assert.InDelta(t, math.Sqrt(8.0/3.0), StdDev(xs), 1e-12)
	assert.Equal(t, 16.0, Sum(xs))
	assert.Equal(t, 6.0, Max(xs))
	assert.Equal(t, 2.0, Min(xs))
	assert.Equal(t, 4.0, Range(xs))
}

func TestAggregates_Degenerate(t *testing.T) {
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(StdDev([]float64{1})))
	assert.Equal(t, 0.0, StdDev([]float64{5, 5, 5, 5}))
	assert.Equal(t, 0.0, Sum(nil))
}
