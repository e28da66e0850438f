// Package model defines the classifier contract consumed by the inference
// pipeline and a runtime for JSON classifier artifacts.
package model

import (
	"fmt"
	"math"
)

// Classifier maps an ordered feature vector to a positive-class probability.
// Implementations must be safe for concurrent use.
type Classifier interface {
	// Schema is the ordered list of input feature names.
	Schema() []string
	PredictProbability(x []float64) (float64, error)
}

// HorizonClassifier is a classifier with its own decision threshold.
type HorizonClassifier interface {
	Classifier
	Threshold() float64
}

// Model is an immutable classifier built from an Artifact.
type Model struct {
	name      string
	features  []string
	threshold float64
	score     func(x []float64) float64
}

var _ HorizonClassifier = (*Model)(nil)

// FromArtifact builds a model. defaultThreshold applies when the artifact
// declares none.
func FromArtifact(a *Artifact, defaultThreshold float64) (*Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	m := &Model{
		name:      a.Name,
		features:  append([]string(nil), a.Features...),
		threshold: defaultThreshold,
	}
	if a.Threshold != nil {
		m.threshold = *a.Threshold
	}

	switch a.Kind {
	case KindLogistic:
		m.score = logistic(a.Intercept, append([]float64(nil), a.Weights...))
	case KindTreeEnsemble:
		m.score = treeEnsemble(a.BaseScore, a.Trees)
	default:
		return nil, fmt.Errorf("unsupported artifact kind %q", a.Kind)
	}
	return m, nil
}

// Name is the artifact's declared name.
func (m *Model) Name() string { return m.name }

// Schema returns a copy of the model's input order.
func (m *Model) Schema() []string { return append([]string(nil), m.features...) }

// Threshold is the decision threshold.
func (m *Model) Threshold() float64 { return m.threshold }

// PredictProbability scores x, which must match Schema in length.
func (m *Model) PredictProbability(x []float64) (float64, error) {
	if len(x) != len(m.features) {
		return 0, fmt.Errorf("model %s: got %d features, want %d", m.name, len(x), len(m.features))
	}
	p := m.score(x)
	if math.IsNaN(p) {
		return 0, fmt.Errorf("model %s: probability is NaN", m.name)
	}
	return p, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func logistic(intercept float64, weights []float64) func([]float64) float64 {
	return func(x []float64) float64 {
		z := intercept
		for i, w := range weights {
			z += w * x[i]
		}
		return sigmoid(z)
	}
}

func treeEnsemble(base float64, trees []Tree) func([]float64) float64 {
	trees = append([]Tree(nil), trees...)
	return func(x []float64) float64 {
		margin := base
		for _, t := range trees {
			margin += t.eval(x)
		}
		return sigmoid(margin)
	}
}

// eval walks from the root; validated trees only point forward so the walk
// terminates.
func (t Tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf != nil {
			return *n.Leaf
		}
		if x[n.Feature] < n.Split {
			i = n.Yes
		} else {
			i = n.No
		}
	}
}
