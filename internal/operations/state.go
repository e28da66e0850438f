package operations

import (
	"sort"
	"sync"
	"time"
)

// OperationStatus is the overall status of one run
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
)

// Context keys shared by the pipeline steps.
const (
	ContextKeySources   = "sources"   // []*ingest.Source
	ContextKeyLabeled   = "labeled"   // int, sessions marked positive
	ContextKeyReport    = "report"    // *inference.Report
	ContextKeySummaries = "summaries" // []exporter.FileSummary
	ContextKeyOutputs   = "outputs"   // []string, written files
)

// OperationState is the state of one run: its step states and the values
// the steps hand to each other.
type OperationState struct {
	mu sync.RWMutex

	ID        string          `json:"id"`
	Status    OperationStatus `json:"status"`
	StartTime time.Time       `json:"start_time"`
	EndTime   *time.Time      `json:"end_time,omitempty"`

	Steps map[string]*StepState `json:"steps"`

	Context map[string]interface{} `json:"-"`
	Error   error                  `json:"-"`
}

// NewOperationState creates a pending run
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		Context:   make(map[string]interface{}),
	}
}

// Start marks the run as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

func (p *OperationState) finish(status OperationStatus, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = status
	p.Error = err
}

// Complete marks the run as completed
func (p *OperationState) Complete() { p.finish(OperationStatusCompleted, nil) }

// Fail marks the run as failed
func (p *OperationState) Fail(err error) { p.finish(OperationStatusFailed, err) }

// Cancel marks the run as cancelled
func (p *OperationState) Cancel(err error) { p.finish(OperationStatusCancelled, err) }

// GetStatus returns the run status.
func (p *OperationState) GetStatus() OperationStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// GetStep returns the state of a step, or nil.
func (p *OperationState) GetStep(stepID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stepID]
}

// SetStep sets the state of a step
func (p *OperationState) SetStep(stepID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Steps[stepID] = state
}

// GetContext returns a value stored by an earlier step.
func (p *OperationState) GetContext(key string) (interface{}, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	val, ok := p.Context[key]
	return val, ok
}

// SetContext stores a value for later steps.
func (p *OperationState) SetContext(key string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Context[key] = value
}

// Duration is the run's wall time so far.
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// StepStatuses returns "id=status" for every step, sorted by step ID.
func (p *OperationState) StepStatuses() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.Steps))
	for id, st := range p.Steps {
		out = append(out, id+"="+string(st.GetStatus()))
	}
	sort.Strings(out)
	return out
}

// contextValue returns the typed context value stored under key.
func contextValue[T any](state *OperationState, key string) (T, bool) {
	var zero T
	raw, ok := state.GetContext(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	return v, ok
}
