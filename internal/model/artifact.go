package model

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Kind selects the scoring runtime of an artifact.
type Kind string

const (
	KindLogistic     Kind = "logistic"
	KindTreeEnsemble Kind = "tree_ensemble"
)

// Node is one node of a regression tree. Leaf nodes set Leaf; split nodes
// send x[Feature] < Split to Yes and everything else to No. Child indices
// always point forward in the node list.
type Node struct {
	Feature int      `json:"feature" validate:"gte=0"`
	Split   float64  `json:"split"`
	Yes     int      `json:"yes"`
	No      int      `json:"no"`
	Leaf    *float64 `json:"leaf,omitempty"`
}

// Tree is an additive regression tree; node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes" validate:"required,min=1,dive"`
}

// Artifact is the on-disk form of a trained classifier.
type Artifact struct {
	Name      string    `json:"name,omitempty"`
	Kind      Kind      `json:"kind" validate:"required,oneof=logistic tree_ensemble"`
	Features  []string  `json:"features" validate:"required,min=1,unique,dive,required"`
	Threshold *float64  `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	Intercept float64   `json:"intercept,omitempty"`
	Weights   []float64 `json:"weights,omitempty"`
	// BaseScore is the ensemble's initial margin, before the sigmoid.
	BaseScore float64 `json:"base_score,omitempty"`
	Trees     []Tree  `json:"trees,omitempty" validate:"dive"`
}

//go:embed schemas/artifact.schema.json
var artifactSchemaJSON []byte

const artifactSchemaURL = "https://udderwatch.local/schemas/artifact.schema.json"

var (
	schemaOnce     sync.Once
	artifactSchema *jsonschema.Schema
	schemaErr      error

	validate = validator.New()
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(artifactSchemaURL, bytes.NewReader(artifactSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add artifact schema: %w", err)
			return
		}
		artifactSchema, schemaErr = compiler.Compile(artifactSchemaURL)
	})
	return artifactSchema, schemaErr
}

// ParseArtifact decodes and validates an artifact document.
func ParseArtifact(data []byte) (*Artifact, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("artifact schema: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks struct constraints and the cross-field rules the JSON
// schema cannot express.
func (a *Artifact) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("artifact fields: %w", err)
	}
	switch a.Kind {
	case KindLogistic:
		if len(a.Weights) != len(a.Features) {
			return fmt.Errorf("logistic artifact has %d weights for %d features", len(a.Weights), len(a.Features))
		}
	case KindTreeEnsemble:
		if len(a.Trees) == 0 {
			return fmt.Errorf("tree ensemble has no trees")
		}
		for t, tree := range a.Trees {
			if err := tree.check(len(a.Features)); err != nil {
				return fmt.Errorf("tree %d: %w", t, err)
			}
		}
	}
	return nil
}

func (t Tree) check(features int) error {
	for i, n := range t.Nodes {
		if n.Leaf != nil {
			continue
		}
		if n.Feature >= features {
			return fmt.Errorf("node %d splits on feature %d of %d", i, n.Feature, features)
		}
		for _, child := range []int{n.Yes, n.No} {
			if child <= i || child >= len(t.Nodes) {
				return fmt.Errorf("node %d has invalid child %d", i, child)
			}
		}
	}
	return nil
}
