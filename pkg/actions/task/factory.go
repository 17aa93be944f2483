// Package task implements the create_task workflow action.
package task

import "github.com/meridianhq/flowline/pkg/protocol"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "create_task"
}

func (f *Factory) Create(parameters map[string]any) (protocol.Action, error) {
	if parameters == nil {
		parameters = map[string]any{}
	}

	return &Action{parameters: parameters}, nil
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Task title. Supports templating.",
			},
			"description": map[string]any{
				"type": "string",
			},
			"assignee": map[string]any{
				"type":        "string",
				"description": "User the task is assigned to.",
			},
			"due_in_days": map[string]any{
				"type":        "number",
				"description": "Days from now until the task is due.",
			},
		},
		"required": []any{"title"},
	}
}
