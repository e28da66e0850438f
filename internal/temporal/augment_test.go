package temporal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"udderwatch/internal/shared/testutil"
)

func TestAugmenter_Predecessors(t *testing.T) {
	f := testutil.NewSessionFrame(t,
		testutil.Session{Entity: "5", Time: testutil.Day(0, 6), Values: map[string]float64{"Produccion_promedio": 2}},
		testutil.Session{Entity: "5", Time: testutil.Day(0, 18), Values: map[string]float64{"Produccion_promedio": 3}},
		testutil.Session{Entity: "6", Time: testutil.Day(0, 6), Values: map[string]float64{"Produccion_promedio": 10}},
		testutil.Session{Entity: "5", Time: testutil.Day(1, 6), Values: map[string]float64{"Produccion_promedio": 0}},
		testutil.Session{Entity: "5", Time: testutil.Day(1, 18), Values: map[string]float64{"Produccion_promedio": 4}},
	)
	seq := NewOrderer(ByTimestamp).Order(f)
	logger, _ := testutil.NewTestLogger(t)

	require.NoError(t, NewAugmenter(DefaultAugmentConfig(), logger).Predecessors(context.Background(), seq))

	// entity 5 rows then entity 6
	assert.Equal(t, []float64{0, 2, 3, 0, 0}, seqValues(t, seq, "Produccion_promedio_prev"))
	assert.Equal(t, []float64{0, 1, -3, 4, 0}, seqValues(t, seq, "delta_produccion_promedio"))

	rate := seqValues(t, seq, "tasa_cambio_produccion")
	assert.InDelta(t, 0.5, rate[1], 1e-6)
	assert.InDelta(t, -1.0, rate[2], 1e-6)
	assert.InDelta(t, 4e6, rate[3], 1)
	assert.Equal(t, 0.0, rate[4])

	// conductivity source absent: skipped
	assert.False(t, seq.Frame().Has("Conductividad_promedio_prev"))
}

func TestAugmenter_RollingProbability(t *testing.T) {
	probs := []float64{0.1, 0.5, 0.3, 0.9, 0.2, 0.4}
	var sessions []testutil.Session
	for i, p := range probs {
		sessions = append(sessions, testutil.Session{Entity: "1", Time: testutil.Day(i, 6), Values: map[string]float64{"prob_xgb": p}})
	}
	sessions = append(sessions, testutil.Session{Entity: "2", Time: testutil.Day(0, 6), Values: map[string]float64{"prob_xgb": 0.7}})
	seq := NewOrderer(ByTimestamp).Order(testutil.NewSessionFrame(t, sessions...))

	ok, err := NewAugmenter(DefaultAugmentConfig(), nil).RollingProbability(context.Background(), seq)
	require.NoError(t, err)
	require.True(t, ok)

	tests := []struct {
		column string
		want   []float64
	}{
		{column: "prob_roll3_mean", want: []float64{0.1, 0.3, 0.3, 1.7 / 3, 1.4 / 3, 0.5, 0.7}},
		{column: "prob_roll5_mean", want: []float64{0.1, 0.3, 0.3, 0.45, 0.4, 2.3 / 5, 0.7}},
		{column: "prob_roll5_max", want: []float64{0.1, 0.5, 0.5, 0.9, 0.9, 0.9, 0.7}},
		{column: "prob_roll5_min", want: []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.2, 0.7}},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.InDeltaSlice(t, tt.want, seqValues(t, seq, tt.column), 1e-12)
		})
	}
}

func TestAugmenter_RollingWithoutProbability(t *testing.T) {
	seq := NewOrderer(ByTimestamp).Order(testutil.NewSessionFrame(t,
		testutil.Session{Entity: "1", Time: testutil.Day(0, 6), Values: map[string]float64{"x": 1}},
	))
	logger, logs := testutil.NewTestLogger(t)

	ok, err := NewAugmenter(DefaultAugmentConfig(), logger).RollingProbability(context.Background(), seq)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, seq.Frame().Has("prob_roll3_mean"))
	assert.True(t, logs.ContainsMessage("rolling statistics skipped"))
}

func TestAugmenter_SingleRecordEntity(t *testing.T) {
	seq := NewOrderer(ByTimestamp).Order(testutil.NewSessionFrame(t,
		testutil.Session{Entity: "3", Time: testutil.Day(0, 6), Values: map[string]float64{
			"Produccion_promedio":    7,
			"Conductividad_promedio": 4,
			"prob_xgb":               0.42,
		}},
	))

	require.NoError(t, NewAugmenter(DefaultAugmentConfig(), nil).Augment(context.Background(), seq))
	absent, err := NewLagExpander([]string{"Produccion_promedio", "prob_xgb", "Conductividad_promedio_prev"}, 5).Expand(seq)
	require.NoError(t, err)
	assert.Empty(t, absent)

	f := seq.Frame()
	for _, name := range []string{
		"Produccion_promedio_prev", "delta_produccion_promedio", "tasa_cambio_produccion",
		"Conductividad_promedio_prev", "delta_conductividad_promedio", "tasa_cambio_conductividad",
	} {
		assert.Equal(t, 0.0, f.Value(name, 0), name)
	}
	for _, name := range []string{"prob_roll3_mean", "prob_roll5_mean", "prob_roll5_max", "prob_roll5_min"} {
		assert.Equal(t, 0.42, f.Value(name, 0), name)
	}
	for k := 1; k <= 5; k++ {
		assert.Equal(t, 0.0, f.Value(LagName("prob_xgb", k), 0))
		assert.Equal(t, 0.0, f.Value(LagName("Produccion_promedio", k), 0))
		assert.Equal(t, 0.0, f.Value(LagName("Conductividad_promedio_prev", k), 0))
	}
}
