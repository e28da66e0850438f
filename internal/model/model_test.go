package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "udderwatch/internal/errors"
	"udderwatch/internal/files"
	"udderwatch/internal/shared/testutil"
)

const logisticJSON = `{
  "name": "instant",
  "kind": "logistic",
  "features": ["a", "b"],
  "intercept": -1,
  "weights": [2, 0.5]
}`

const treeJSON = `{
  "name": "t1",
  "kind": "tree_ensemble",
  "features": ["x", "y"],
  "threshold": 0.38,
  "base_score": 0.1,
  "trees": [
    {"nodes": [
      {"feature": 0, "split": 1.5, "yes": 1, "no": 2},
      {"leaf": -0.4},
      {"feature": 1, "split": 0, "yes": 3, "no": 4},
      {"leaf": 0.2},
      {"leaf": 0.9}
    ]},
    {"nodes": [{"leaf": 0.3}]}
  ]
}`

func TestParseArtifact_Valid(t *testing.T) {
	tests := []struct {
		name          string
		doc           string
		x             []float64
		wantProb      float64
		wantThreshold float64
	}{
		{
			name:          "logistic",
			doc:           logisticJSON,
			x:             []float64{1, 2},
			wantProb:      sigmoid(-1 + 2 + 1),
			wantThreshold: 0.5,
		},
		{
			name:          "tree left branch",
			doc:           treeJSON,
			x:             []float64{1, 5},
			wantProb:      sigmoid(0.1 - 0.4 + 0.3),
			wantThreshold: 0.38,
		},
		{
			name:          "tree right right",
			doc:           treeJSON,
			x:             []float64{2, 0},
			wantProb:      sigmoid(0.1 + 0.9 + 0.3),
			wantThreshold: 0.38,
		},
		{
			name:          "tree right left",
			doc:           treeJSON,
			x:             []float64{1.5, -1},
			wantProb:      sigmoid(0.1 + 0.2 + 0.3),
			wantThreshold: 0.38,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseArtifact([]byte(tt.doc))
			require.NoError(t, err)
			m, err := FromArtifact(a, 0.5)
			require.NoError(t, err)

			p, err := m.PredictProbability(tt.x)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantProb, p, 1e-12)
			assert.Equal(t, tt.wantThreshold, m.Threshold())
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
		})
	}
}

func TestParseArtifact_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `{`},
		{name: "unknown kind", doc: `{"kind":"svm","features":["a"]}`},
		{name: "no features", doc: `{"kind":"logistic","features":[],"weights":[]}`},
		{name: "duplicate features", doc: `{"kind":"logistic","features":["a","a"],"weights":[1,1]}`},
		{name: "logistic without weights", doc: `{"kind":"logistic","features":["a"]}`},
		{name: "weight count mismatch", doc: `{"kind":"logistic","features":["a","b"],"weights":[1]}`},
		{name: "threshold above one", doc: `{"kind":"logistic","features":["a"],"weights":[1],"threshold":1.2}`},
		{name: "ensemble without trees", doc: `{"kind":"tree_ensemble","features":["a"],"trees":[]}`},
		{name: "split feature out of range", doc: `{"kind":"tree_ensemble","features":["a"],"trees":[{"nodes":[{"feature":3,"split":1,"yes":1,"no":2},{"leaf":0},{"leaf":1}]}]}`},
		{name: "backward child", doc: `{"kind":"tree_ensemble","features":["a"],"trees":[{"nodes":[{"leaf":0},{"feature":0,"split":1,"yes":1,"no":2},{"leaf":1}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArtifact([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestModel_PredictProbabilityLengthMismatch(t *testing.T) {
	a, err := ParseArtifact([]byte(logisticJSON))
	require.NoError(t, err)
	m, err := FromArtifact(a, 0.5)
	require.NoError(t, err)

	_, err = m.PredictProbability([]float64{1})
	assert.Error(t, err)

	schema := m.Schema()
	schema[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, m.Schema())
}

func writeModel(t *testing.T, dir, name, doc string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644))
}

func TestDirectory_LoadHorizons(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, files.HorizonModelName("t1"), treeJSON)
	writeModel(t, dir, files.HorizonModelName("t3"), `{"kind":"nope"}`)
	writeModel(t, dir, files.HorizonModelName("next3"), logisticJSON)

	logger, logs := testutil.NewTestLogger(t)
	loaded := NewDirectory(dir, 0.5, logger).LoadHorizons(context.Background(), []string{"t1", "t2", "t3", "next3"})

	require.Len(t, loaded, 2)
	assert.Contains(t, loaded, "t1")
	assert.Contains(t, loaded, "next3")
	assert.Equal(t, 0.38, loaded["t1"].Threshold())
	assert.Equal(t, 0.5, loaded["next3"].Threshold())
	assert.True(t, logs.ContainsAttr("horizon", "t2"))
	assert.True(t, logs.ContainsAttr("horizon", "t3"))
}

func TestDirectory_LoadInstant(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "instant.json", logisticJSON)

	d := NewDirectory(dir, 0.5, nil)
	m, err := d.LoadInstant(context.Background(), "instant.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.Schema())

	_, err = d.LoadInstant(context.Background(), "missing.json")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeClassifierUnavailable))
}
