// Package persistence provides the storage abstraction for workflows,
// executions, and execution step history.
package persistence

import (
	"context"
	"time"

	"github.com/meridianhq/flowline/pkg/models"
)

type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowsByOrganization(ctx context.Context, organizationID string) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error

	SaveExecution(ctx context.Context, execution *models.Execution) error
	UpdateExecution(ctx context.Context, execution *models.Execution) error
	ExecutionByID(ctx context.Context, id string) (*models.Execution, error)
	ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error)

	AppendExecutionStep(ctx context.Context, step *models.ExecutionStep) error
	ExecutionSteps(ctx context.Context, executionID string) ([]*models.ExecutionStep, error)

	// RefreshWorkflowStats recomputes a workflow's execution count, success
	// rate, and last-executed timestamp from its finished executions. Safe to
	// call concurrently for the same workflow.
	RefreshWorkflowStats(ctx context.Context, workflowID string, at time.Time) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
