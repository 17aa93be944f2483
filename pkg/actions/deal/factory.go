// Package deal implements the create_deal workflow action.
package deal

import "github.com/meridianhq/flowline/pkg/protocol"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "create_deal"
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
			"name": map[string]any{
				"type":        "string",
				"description": "Deal name. Supports templating.",
			},
			"amount": map[string]any{
				"type":        "number",
				"description": "Deal value.",
			},
			"stage": map[string]any{
				"type":        "string",
				"description": "Pipeline stage the deal starts in.",
			},
			"contact_id": map[string]any{
				"type":        "string",
				"description": "Contact the deal is attached to. Supports templating.",
			},
		},
		"required": []any{"name"},
	}
}
