package operations

import (
	"context"
	"sync"
	"time"
)

// Step is one stage of a pipeline run. Steps read what earlier steps stored
// in the OperationState context and store their own results there.
type Step interface {
	ID() string
	Name() string

	// Execute runs the step. A returned error fails the run.
	Execute(ctx context.Context, state *OperationState) error

	// Validate reports whether the inputs the step needs are present. A
	// failing step is skipped instead of executed.
	Validate(state *OperationState) error

	// GetDependencies returns the IDs of steps that must complete first.
	GetDependencies() []string
}

// StepStatus is the status of one step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState is the runtime state of a step. Metadata holds the step's
// counters (files read, rows labeled, files written).
type StepState struct {
	mu        sync.RWMutex
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Status    StepStatus             `json:"status"`
	StartTime *time.Time             `json:"start_time,omitempty"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Error     error                  `json:"-"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewStepState creates a pending step state
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:       id,
		Name:     name,
		Status:   StepStatusPending,
		Metadata: make(map[string]interface{}),
	}
}

// Start marks the step as active
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
}

func (s *StepState) finish(status StepStatus, err error, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = status
	s.Error = err
	if message != "" {
		s.Message = message
	}
}

// Complete marks the step as completed
func (s *StepState) Complete() { s.finish(StepStatusCompleted, nil, "") }

// Fail marks the step as failed
func (s *StepState) Fail(err error) { s.finish(StepStatusFailed, err, "") }

// Skip marks the step as skipped for reason
func (s *StepState) Skip(reason string) { s.finish(StepStatusSkipped, nil, reason) }

// GetStatus returns the step status.
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// SetMetadata records a step counter.
func (s *StepState) SetMetadata(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Metadata[key] = value
}

// Duration is zero for a step that never started.
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.StartTime == nil:
		return 0
	case s.EndTime != nil:
		return s.EndTime.Sub(*s.StartTime)
	default:
		return time.Since(*s.StartTime)
	}
}

// BaseStep carries the identity and dependencies of a step. Embedders
// supply Execute and usually Validate.
type BaseStep struct {
	id           string
	name         string
	dependencies []string
}

// NewBaseStep creates a base step
func NewBaseStep(id, name string, dependencies []string) BaseStep {
	if dependencies == nil {
		dependencies = []string{}
	}
	return BaseStep{id: id, name: name, dependencies: dependencies}
}

// ID implements Step.
func (b *BaseStep) ID() string { return b.id }

// Name implements Step.
func (b *BaseStep) Name() string { return b.name }

// GetDependencies implements Step.
func (b *BaseStep) GetDependencies() []string { return b.dependencies }

// Validate accepts every state.
func (b *BaseStep) Validate(*OperationState) error { return nil }
