package operations

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"udderwatch/internal/shared/testutil"
)

type fakeStep struct {
	BaseStep
	run      func(ctx context.Context, state *OperationState) error
	validate error

	mu    sync.Mutex
	calls int
}

func newFakeStep(id string, deps []string, run func(context.Context, *OperationState) error) *fakeStep {
	return &fakeStep{BaseStep: NewBaseStep(id, id, deps), run: run}
}

func (s *fakeStep) Validate(*OperationState) error { return s.validate }

func (s *fakeStep) Execute(ctx context.Context, state *OperationState) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.run == nil {
		return nil
	}
	return s.run(ctx, state)
}

func (s *fakeStep) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newManager(t *testing.T, cfg *Config, steps ...Step) *Manager {
	logger, _ := testutil.NewTestLogger(t)
	m := NewManager(NewRegistry(), cfg, logger)
	for _, s := range steps {
		require.NoError(t, m.RegisterStep(s))
	}
	return m
}

func TestRegistry_DependencyOrder(t *testing.T) {
	tests := []struct {
		name    string
		steps   []Step
		want    []string
		wantErr ErrorType
	}{
		{
			name: "registration order without dependencies",
			steps: []Step{
				newFakeStep("a", nil, nil),
				newFakeStep("b", nil, nil),
			},
			want: []string{"a", "b"},
		},
		{
			name: "dependencies first",
			steps: []Step{
				newFakeStep("report", []string{"predict"}, nil),
				newFakeStep("predict", []string{"ingest"}, nil),
				newFakeStep("ingest", nil, nil),
			},
			want: []string{"ingest", "predict", "report"},
		},
		{
			name: "unknown dependency",
			steps: []Step{
				newFakeStep("predict", []string{"ingest"}, nil),
			},
			wantErr: ErrorTypeDependency,
		},
		{
			name: "cycle",
			steps: []Step{
				newFakeStep("a", []string{"b"}, nil),
				newFakeStep("b", []string{"a"}, nil),
			},
			wantErr: ErrorTypeFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			for _, s := range tt.steps {
				require.NoError(t, r.Register(s))
			}
			ordered, err := r.GetDependencyOrder()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, GetErrorType(err))
				return
			}
			require.NoError(t, err)
			ids := make([]string, len(ordered))
			for i, s := range ordered {
				ids[i] = s.ID()
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(newFakeStep("", nil, nil)))
	require.NoError(t, r.Register(newFakeStep("a", nil, nil)))
	assert.Error(t, r.Register(newFakeStep("a", nil, nil)))

	_, err := r.Get("missing")
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(err))
	assert.True(t, r.Has("a"))
	assert.Equal(t, 1, r.Count())
}

func TestManager_PassesContextBetweenSteps(t *testing.T) {
	producer := newFakeStep("produce", nil, func(_ context.Context, s *OperationState) error {
		s.SetContext("value", 42)
		return nil
	})
	var seen int
	consumer := newFakeStep("consume", []string{"produce"}, func(_ context.Context, s *OperationState) error {
		seen, _ = contextValue[int](s, "value")
		return nil
	})

	state, err := newManager(t, nil, consumer, producer).Execute(context.Background(), "op-1")
	require.NoError(t, err)
	assert.Equal(t, OperationStatusCompleted, state.GetStatus())
	assert.Equal(t, 42, seen)
	assert.Equal(t, StepStatusCompleted, state.GetStep("consume").GetStatus())
}

func TestManager_FailureSkipsDependents(t *testing.T) {
	boom := errors.New("boom")
	failing := newFakeStep("ingest", nil, func(context.Context, *OperationState) error { return boom })
	middle := newFakeStep("predict", []string{"ingest"}, nil)
	last := newFakeStep("report", []string{"predict"}, nil)

	t.Run("stop on error", func(t *testing.T) {
		state, err := newManager(t, nil, failing, middle, last).Execute(context.Background(), "")
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, ErrorTypeExecution, GetErrorType(err))
		assert.Equal(t, OperationStatusFailed, state.GetStatus())
		assert.Equal(t, StepStatusFailed, state.GetStep("ingest").GetStatus())
		assert.Equal(t, StepStatusSkipped, state.GetStep("predict").GetStatus())
		assert.Equal(t, StepStatusSkipped, state.GetStep("report").GetStatus())
		assert.Equal(t, []string{"ingest=failed", "predict=skipped", "report=skipped"}, state.StepStatuses())
		assert.Zero(t, middle.Calls())
	})

	t.Run("continue on error runs independent steps", func(t *testing.T) {
		cfg := NewConfig()
		cfg.ContinueOnError = true
		failing := newFakeStep("ingest", nil, func(context.Context, *OperationState) error { return boom })
		middle := newFakeStep("predict", []string{"ingest"}, nil)
		other := newFakeStep("other", nil, nil)

		state, err := newManager(t, cfg, failing, middle, other).Execute(context.Background(), "")
		require.Error(t, err)
		assert.Equal(t, StepStatusSkipped, state.GetStep("predict").GetStatus())
		assert.Equal(t, StepStatusCompleted, state.GetStep("other").GetStatus())
		assert.Equal(t, 1, other.Calls())
		assert.Zero(t, middle.Calls())
	})
}

func TestManager_ValidationFailure(t *testing.T) {
	step := newFakeStep("ingest", nil, nil)
	step.validate = errors.New("no input directory")

	state, err := newManager(t, nil, step).Execute(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
	assert.Equal(t, StepStatusSkipped, state.GetStep("ingest").GetStatus())
	assert.Zero(t, step.Calls())
}

func TestManager_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := newFakeStep("first", nil, func(context.Context, *OperationState) error {
		cancel()
		return nil
	})
	second := newFakeStep("second", nil, nil)

	state, err := newManager(t, nil, first, second).Execute(ctx, "")
	require.Error(t, err)
	assert.Equal(t, ErrorTypeCancellation, GetErrorType(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OperationStatusCancelled, state.GetStatus())
	assert.Zero(t, second.Calls())
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "x"))

	plain := WrapError(errors.New("disk full"), "export")
	assert.Equal(t, ErrorTypeExecution, plain.Type)
	assert.Equal(t, "export", plain.Step)
	assert.Contains(t, plain.Error(), "disk full")

	typed := WrapError(NewValidationError("", "bad"), "label")
	assert.Equal(t, ErrorTypeValidation, typed.Type)
	assert.Equal(t, "label", typed.Step)
}
