// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/meridianhq/flowline/pkg/models"

// CreateWorkflowRequest is the body for creating a workflow definition.
type CreateWorkflowRequest struct {
	Name           string         `json:"name"            validate:"required,min=3"`
	Description    string         `json:"description"`
	OrganizationID string         `json:"organization_id" validate:"required"`
	Trigger        *models.Node   `json:"trigger"         validate:"required"`
	Nodes          []*models.Node `json:"nodes"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// UpdateWorkflowRequest is the body for patching a workflow. Absent fields
// keep their stored values.
type UpdateWorkflowRequest struct {
	Name        *string        `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string        `json:"description,omitempty"`
	Trigger     *models.Node   `json:"trigger,omitempty"`
	Nodes       []*models.Node `json:"nodes,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ExecuteWorkflowRequest is the body for the manual execute endpoint.
type ExecuteWorkflowRequest struct {
	TriggerData map[string]any `json:"trigger_data"`
}

// TriggerRequest is the body for the external trigger endpoint.
type TriggerRequest struct {
	OrganizationID string         `json:"organization_id" validate:"required"`
	Data           map[string]any `json:"data"`
}

// TriggerResponse reports the executions a trigger started.
type TriggerResponse struct {
	Matched    int                 `json:"matched"`
	Executions []*models.Execution `json:"executions"`
}
