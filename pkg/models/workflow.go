// Package models defines the core domain models for node-based workflow automation
package models

import "time"

// Workflow is a node graph owned by an organization. It carries exactly one
// trigger node plus an ordered collection of action/condition/delay nodes.
// Workflows are never hard-deleted; deactivation flips the Active flag.
type Workflow struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"            validate:"required,min=3"`
	Description    string         `json:"description"`
	OrganizationID string         `json:"organization_id" validate:"required"`
	Active         bool           `json:"active"`
	Trigger        *Node          `json:"trigger"`
	Nodes          []*Node        `json:"nodes"`
	Version        int            `json:"version"`
	Stats          WorkflowStats  `json:"stats"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// WorkflowStats is recomputed from execution history after every run.
type WorkflowStats struct {
	ExecutionCount int64      `json:"execution_count"`
	SuccessRate    float64    `json:"success_rate"` // percentage of completed executions
	LastExecutedAt *time.Time `json:"last_executed_at,omitempty"`
}

// FindNode resolves a node ID against the trigger and the node collection.
// Returns nil when the ID is empty or unknown; the execution loop treats that
// as normal termination.
func (w *Workflow) FindNode(id string) *Node {
	if id == "" {
		return nil
	}

	if w.Trigger != nil && w.Trigger.ID == id {
		return w.Trigger
	}

	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}
