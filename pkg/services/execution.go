package services

import (
	"context"
	"fmt"

	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/persistence"
	"github.com/meridianhq/flowline/pkg/workflow"
)

// Execution exposes execution start and inspection to the web layer.
type Execution struct {
	persistence persistence.Persistence
	executor    *workflow.Executor
	dispatcher  *workflow.TriggerDispatcher
}

func NewExecution(p persistence.Persistence, executor *workflow.Executor, dispatcher *workflow.TriggerDispatcher) *Execution {
	return &Execution{
		persistence: p,
		executor:    executor,
		dispatcher:  dispatcher,
	}
}

// Start runs one workflow directly, bypassing trigger matching. Used by the
// manual execute endpoint.
func (s *Execution) Start(ctx context.Context, workflowID string, triggerData map[string]any) (*models.Execution, error) {
	return s.executor.Execute(ctx, workflowID, triggerData)
}

// Trigger fans an external event out to every matching workflow.
func (s *Execution) Trigger(ctx context.Context, organizationID string, triggerType models.TriggerType, triggerData map[string]any) ([]*models.Execution, error) {
	if organizationID == "" {
		return nil, ErrOrganizationMissing
	}

	if !models.KnownTriggerType(triggerType) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTriggerType, triggerType)
	}

	return s.dispatcher.Dispatch(ctx, organizationID, triggerType, triggerData)
}

func (s *Execution) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	return s.persistence.ExecutionByID(ctx, id)
}

func (s *Execution) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	return s.persistence.ExecutionsByWorkflow(ctx, workflowID)
}

func (s *Execution) Steps(ctx context.Context, executionID string) ([]*models.ExecutionStep, error) {
	// Surface not-found for the execution itself rather than an empty list.
	_, err := s.persistence.ExecutionByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	return s.persistence.ExecutionSteps(ctx, executionID)
}
