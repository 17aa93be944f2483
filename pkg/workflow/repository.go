package workflow

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/persistence"
	"github.com/meridianhq/flowline/pkg/registry"
)

// Repository validates and stores workflow definitions. Graph validation
// happens here, at creation time, so a workflow that saves is a workflow
// that can run.
type Repository struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	validator   *validator.Validate
}

func NewRepository(p persistence.Persistence, r *registry.Registry) *Repository {
	return &Repository{
		persistence: p,
		registry:    r,
		validator:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (r *Repository) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := r.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (r *Repository) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow.ID == "" {
		workflow.ID = models.NewID("wf")
	}

	now := time.Now().UTC()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if workflow.Version == 0 {
		workflow.Version = 1
	}

	err := r.validator.Struct(workflow)
	if err != nil {
		return nil, err
	}

	err = workflow.ValidateGraph()
	if err != nil {
		return nil, err
	}

	if r.registry != nil {
		err = r.registry.ValidateWorkflowActions(workflow)
		if err != nil {
			return nil, err
		}
	}

	err = r.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// WorkflowUpdate carries the fields an update may change. Nil fields are
// left untouched.
type WorkflowUpdate struct {
	Name        *string
	Description *string
	Trigger     *models.Node
	Nodes       []*models.Node
	Metadata    map[string]any
}

// Update applies update to the stored workflow, re-validates the result and
// bumps the version. The stored definition is untouched when validation
// fails.
func (r *Repository) Update(ctx context.Context, id string, update WorkflowUpdate) (*models.Workflow, error) {
	workflow, err := r.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		workflow.Name = *update.Name
	}

	if update.Description != nil {
		workflow.Description = *update.Description
	}

	if update.Trigger != nil {
		workflow.Trigger = update.Trigger
	}

	if update.Nodes != nil {
		workflow.Nodes = update.Nodes
	}

	if update.Metadata != nil {
		workflow.Metadata = update.Metadata
	}

	workflow.Version++
	workflow.UpdatedAt = time.Now().UTC()

	err = r.validator.Struct(workflow)
	if err != nil {
		return nil, err
	}

	err = workflow.ValidateGraph()
	if err != nil {
		return nil, err
	}

	if r.registry != nil {
		err = r.registry.ValidateWorkflowActions(workflow)
		if err != nil {
			return nil, err
		}
	}

	err = r.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

func (r *Repository) FetchAll(ctx context.Context) ([]*models.Workflow, error) {
	return r.persistence.Workflows(ctx)
}

func (r *Repository) FetchByOrganization(ctx context.Context, organizationID string) ([]*models.Workflow, error) {
	return r.persistence.WorkflowsByOrganization(ctx, organizationID)
}

func (r *Repository) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return r.persistence.WorkflowByID(ctx, id)
}

func (r *Repository) setActive(ctx context.Context, id string, active bool) (*models.Workflow, error) {
	workflow, err := r.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow.Active == active {
		return workflow, nil
	}

	workflow.Active = active
	workflow.UpdatedAt = time.Now().UTC()

	err = r.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

func (r *Repository) Activate(ctx context.Context, id string) (*models.Workflow, error) {
	return r.setActive(ctx, id, true)
}

func (r *Repository) Deactivate(ctx context.Context, id string) (*models.Workflow, error) {
	return r.setActive(ctx, id, false)
}
