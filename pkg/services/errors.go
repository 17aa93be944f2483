// Package services holds the application layer between HTTP handlers and the
// workflow engine.
package services

import (
	"errors"

	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/persistence"
	"github.com/meridianhq/flowline/pkg/workflow"
)

// Client errors map to 4xx responses in the web layer.
var (
	ErrWorkflowNotFound  = persistence.ErrWorkflowNotFound
	ErrExecutionNotFound = persistence.ErrExecutionNotFound
	ErrWorkflowInactive  = workflow.ErrWorkflowInactive

	ErrWorkflowNil         = errors.New("workflow cannot be nil")
	ErrUnknownTriggerType  = errors.New("unknown trigger type")
	ErrOrganizationMissing = errors.New("organization ID is required")
)

// IsValidationError reports whether err should map to HTTP 400.
func IsValidationError(err error) bool {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return true
	}

	return errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrUnknownTriggerType) ||
		errors.Is(err, ErrOrganizationMissing)
}

// IsNotFoundError reports whether err should map to HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrExecutionNotFound)
}

// IsConflictError reports whether err should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWorkflowInactive)
}
