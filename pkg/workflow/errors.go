package workflow

import "errors"

var (
	// ErrWorkflowInactive indicates a trigger or manual run targeted a
	// deactivated workflow.
	ErrWorkflowInactive = errors.New("workflow is not active")
)
