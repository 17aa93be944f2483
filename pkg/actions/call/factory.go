// Package call implements the make_call workflow action (outbound voice).
package call

import (
	"github.com/meridianhq/flowline/pkg/config"
	"github.com/meridianhq/flowline/pkg/protocol"
)

type Factory struct {
	provider config.VoiceProvider
}

func NewFactory(provider config.VoiceProvider) *Factory {
	return &Factory{provider: provider}
}

func (*Factory) ID() string {
	return "make_call"
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
			"to": map[string]any{
				"type":        "string",
				"description": "Number to dial in E.164 form. Supports templating.",
			},
			"agent_id": map[string]any{
				"type":        "string",
				"description": "Voice agent to place the call with. Defaults to the configured agent.",
			},
		},
		"required": []any{"to"},
	}
}
