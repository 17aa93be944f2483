package services

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/workflow"
)

// Workflow exposes workflow definition management to the web layer.
type Workflow struct {
	repository *workflow.Repository
}

func NewWorkflow(repository *workflow.Repository) *Workflow {
	return &Workflow{repository: repository}
}

func (s *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	return s.repository.HealthCheck(ctx)
}

func (s *Workflow) Create(ctx context.Context, wf *models.Workflow) (*models.Workflow, error) {
	if wf == nil {
		return nil, ErrWorkflowNil
	}

	if wf.OrganizationID == "" {
		return nil, ErrOrganizationMissing
	}

	return s.repository.Create(ctx, wf)
}

func (s *Workflow) Update(ctx context.Context, id string, update workflow.WorkflowUpdate) (*models.Workflow, error) {
	return s.repository.Update(ctx, id, update)
}

func (s *Workflow) List(ctx context.Context, organizationID string) ([]*models.Workflow, error) {
	if organizationID == "" {
		return s.repository.FetchAll(ctx)
	}

	return s.repository.FetchByOrganization(ctx, organizationID)
}

func (s *Workflow) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	return s.repository.FetchByID(ctx, id)
}

func (s *Workflow) Activate(ctx context.Context, id string) (*models.Workflow, error) {
	return s.repository.Activate(ctx, id)
}

func (s *Workflow) Deactivate(ctx context.Context, id string) (*models.Workflow, error) {
	return s.repository.Deactivate(ctx, id)
}

// IsStructValidation reports whether err comes from struct tag validation.
func IsStructValidation(err error) bool {
	var verrs validator.ValidationErrors

	return asValidatorErrors(err, &verrs)
}

func asValidatorErrors(err error, target *validator.ValidationErrors) bool {
	if err == nil {
		return false
	}

	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}

	return ok
}
