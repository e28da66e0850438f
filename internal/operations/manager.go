package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"udderwatch/internal/infrastructure"
)

// Manager runs registered steps in dependency order, one at a time.
type Manager struct {
	registry *Registry
	config   *Config
	logger   *slog.Logger
}

// NewManager creates a new operation manager
func NewManager(registry *Registry, config *Config, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		config:   config,
		logger:   logger.With(slog.String("component", "operations")),
	}
}

// RegisterStep adds a step to the manager's registry
func (m *Manager) RegisterStep(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the step registry
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// Execute runs every registered step. The returned state is populated even
// when an error is returned.
func (m *Manager) Execute(ctx context.Context, id string) (*OperationState, error) {
	if id == "" {
		id = fmt.Sprintf("operation-%d", time.Now().Unix())
	}
	ctx = infrastructure.EnsureTraceID(ctx)
	state := NewOperationState(id)

	steps, err := m.registry.GetDependencyOrder()
	if err != nil {
		m.logOperationError(ctx, id, err)
		state.Fail(err)
		return state, err
	}
	for _, step := range steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	m.logger.InfoContext(ctx, "operation started",
		slog.String("operation_id", id),
		slog.Int("step_count", len(steps)))
	state.Start()

	if err := m.executeSequential(ctx, state, steps); err != nil {
		if GetErrorType(err) == ErrorTypeCancellation {
			state.Cancel(err)
		} else {
			state.Fail(err)
		}
		m.logOperationError(ctx, id, err)
		return state, err
	}

	state.Complete()
	m.logger.InfoContext(ctx, "operation completed",
		slog.String("operation_id", id),
		slog.Any("steps", state.StepStatuses()),
		slog.Duration("duration", state.Duration()))
	return state, nil
}

func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	var firstErr error
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.logger.WarnContext(ctx, "operation cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			return NewCancellationError(step.ID(), err)
		}

		stepState := state.GetStep(step.ID())
		if stepState.GetStatus() == StepStatusSkipped {
			m.logger.InfoContext(ctx, "step skipped",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("reason", stepState.Message))
			continue
		}

		m.logger.InfoContext(ctx, "executing step",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStep(ctx, state, step); err != nil {
			m.logStepError(ctx, state.ID, step.ID(), err)
			m.skipDependentSteps(state, steps, step.ID())
			if !m.config.ContinueOnError || GetErrorType(err) == ErrorTypeCancellation {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStep(step.ID())

	if err := m.checkDependencies(state, step); err != nil {
		stepState.Skip(err.Error())
		return err
	}

	if err := step.Validate(state); err != nil {
		stepState.Skip(fmt.Sprintf("validation failed: %v", err))
		return NewValidationError(step.ID(), err.Error())
	}

	stepCtx, cancel := context.WithTimeout(ctx, m.config.GetStepTimeout(step.ID()))
	defer cancel()

	stepState.Start()
	start := time.Now()
	err := step.Execute(stepCtx, state)
	duration := time.Since(start)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			err = NewCancellationError(step.ID(), err)
		}
		stepState.Fail(err)
		return WrapError(err, step.ID())
	}

	stepState.Complete()
	m.logger.InfoContext(ctx, "step completed",
		slog.String("operation_id", state.ID),
		slog.String("step", step.ID()),
		slog.Duration("duration", duration))
	return nil
}

// skipDependentSteps marks every pending step downstream of failed as skipped.
func (m *Manager) skipDependentSteps(state *OperationState, steps []Step, failed string) {
	for _, step := range steps {
		for _, dep := range step.GetDependencies() {
			if dep != failed {
				continue
			}
			st := state.GetStep(step.ID())
			if st != nil && st.GetStatus() == StepStatusPending {
				st.Skip(fmt.Sprintf("dependency %s failed", failed))
				m.skipDependentSteps(state, steps, step.ID())
			}
			break
		}
	}
}

func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStep(dep)
		if depState == nil {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s not found", dep))
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep,
				fmt.Sprintf("dependency %s not completed (status: %s)", dep, status))
		}
	}
	return nil
}

func (m *Manager) logOperationError(ctx context.Context, operationID string, err error) {
	m.logger.ErrorContext(ctx, "operation failed",
		slog.String("operation_id", operationID),
		slog.String("error", err.Error()))
}

func (m *Manager) logStepError(ctx context.Context, operationID, stepID string, err error) {
	m.logger.ErrorContext(ctx, "step failed",
		slog.String("operation_id", operationID),
		slog.String("step", stepID),
		slog.String("error_type", string(GetErrorType(err))),
		slog.String("error", err.Error()))
}
