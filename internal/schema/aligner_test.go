package schema

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"udderwatch/internal/frame"
	"udderwatch/internal/shared/testutil"
)

func sampleFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f := testutil.NewSessionFrame(t,
		testutil.Session{Entity: "1", Time: testutil.Day(0, 6), Values: map[string]float64{"a": 1, "b": math.Inf(1), "extra": 9, "EOPO_ID": 2}},
		testutil.Session{Entity: "1", Time: testutil.Day(1, 6), Values: map[string]float64{"a": math.NaN(), "b": 4, "extra": 9, "EOPO_ID": 1}},
	)
	require.NoError(t, f.SetText("Hora de inicio", []string{"x", "y"}))
	return f
}

func TestAligner_Align(t *testing.T) {
	tests := []struct {
		name        string
		columns     []string
		want        map[string][]float64
		wantMissing []string
	}{
		{
			name:    "reorders and cleans",
			columns: []string{"b", "a"},
			want:    map[string][]float64{"b": {0, 4}, "a": {1, 0}},
		},
		{
			name:        "zero fills absent",
			columns:     []string{"a", "zzz"},
			want:        map[string][]float64{"a": {1, 0}, "zzz": {0, 0}},
			wantMissing: []string{"zzz"},
		},
		{
			name:        "excluded column treated as absent",
			columns:     []string{"EOPO_ID", "a"},
			want:        map[string][]float64{"EOPO_ID": {0, 0}, "a": {1, 0}},
			wantMissing: []string{"EOPO_ID"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := sampleFrame(t)
			aligned, missing := NewAligner(ExcludedColumns()...).Align(f, tt.columns)

			if diff := cmp.Diff(tt.columns, aligned.Names()); diff != "" {
				t.Errorf("column order mismatch (-want +got):\n%s", diff)
			}
			assert.Empty(t, aligned.TextNames())
			assert.Equal(t, tt.wantMissing, missing)
			for name, want := range tt.want {
				got, _ := aligned.Column(name)
				assert.Equal(t, want, got, name)
			}

			// source untouched
			assert.True(t, math.IsInf(f.Value("b", 0), 1))
		})
	}
}

func TestAligner_Idempotent(t *testing.T) {
	a := NewAligner(ExcludedColumns()...)
	cols := []string{"extra", "a", "missing", "b"}

	once, _ := a.Align(sampleFrame(t), cols)
	twice, missing := a.Align(once, cols)

	assert.Empty(t, missing)
	assert.Equal(t, once.Names(), twice.Names())
	assert.Equal(t, Rows(once), Rows(twice))
}

func TestAligner_Vector(t *testing.T) {
	a := NewAligner(ExcludedColumns()...)
	f := sampleFrame(t)
	cols := []string{"b", "nope", "a", "EOPO_ID"}

	assert.Equal(t, []float64{0, 0, 1, 0}, a.Vector(f, cols, 0))
	assert.Equal(t, []float64{4, 0, 0, 0}, a.Vector(f, cols, 1))
	assert.Equal(t, []string{"nope", "EOPO_ID"}, a.Missing(f, cols))

	aligned, _ := a.Align(f, cols)
	assert.Equal(t, Rows(aligned)[1], a.Vector(f, cols, 1))
}

func TestDefaultColumnLists(t *testing.T) {
	assert.Len(t, InstantColumns(), 65)
	assert.Len(t, LagBaseFeatures(), 62)

	seen := map[string]bool{}
	for _, c := range InstantColumns() {
		assert.False(t, seen[c], "duplicate %s", c)
		seen[c] = true
	}

	cols := InstantColumns()
	cols[0] = "mutated"
	assert.Equal(t, "Producción (kg)", InstantColumns()[0])
	assert.Contains(t, LagBaseFeatures(), "prob_xgb")
}
