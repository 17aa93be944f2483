// Package crmsync implements the crm_sync workflow action.
package crmsync

import (
	"github.com/meridianhq/flowline/pkg/config"
	"github.com/meridianhq/flowline/pkg/protocol"
)

type Factory struct {
	provider config.CRMProvider
}

func NewFactory(provider config.CRMProvider) *Factory {
	return &Factory{provider: provider}
}

func (*Factory) ID() string {
	return "crm_sync"
}

func (f *Factory) Create(parameters map[string]any) (protocol.Action, error) {
	if parameters == nil {
		parameters = map[string]any{}
	}

	return &Action{parameters: parameters, provider: f.provider}, nil
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"record_type": map[string]any{
				"type":        "string",
				"description": "CRM record type to synchronize, e.g. contact or company.",
			},
			"record_id": map[string]any{
				"type":        "string",
				"description": "Identifier of the record. Supports templating.",
			},
			"fields": map[string]any{
				"type":        "object",
				"description": "Field values pushed to the CRM.",
			},
		},
		"required": []any{"record_type", "record_id"},
	}
}
