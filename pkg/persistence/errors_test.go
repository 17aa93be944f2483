package persistence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkflowError_Unwrapping(t *testing.T) {
	err := NewWorkflowError("WorkflowByID", "wf-1", ErrWorkflowNotFound)

	assert.True(t, errors.Is(err, ErrWorkflowNotFound))
	assert.True(t, IsWorkflowNotFound(err))
	assert.Contains(t, err.Error(), "WorkflowByID")
	assert.Contains(t, err.Error(), "wf-1")
}

func TestExecutionError_Unwrapping(t *testing.T) {
	err := NewExecutionError("ExecutionByID", "exec-1", ErrExecutionNotFound)

	assert.True(t, errors.Is(err, ErrExecutionNotFound))
	assert.True(t, IsExecutionNotFound(err))
	assert.False(t, IsWorkflowNotFound(err))
}

func TestIsHelpers_PlainErrors(t *testing.T) {
	assert.False(t, IsWorkflowNotFound(errors.New("boom")))
	assert.False(t, IsExecutionNotFound(nil))
}
