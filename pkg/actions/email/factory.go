// Package email implements the send_email workflow action.
package email

import (
	"github.com/meridianhq/flowline/pkg/config"
	"github.com/meridianhq/flowline/pkg/protocol"
)

type Factory struct {
	provider config.EmailProvider
}

func NewFactory(provider config.EmailProvider) *Factory {
	return &Factory{provider: provider}
}

func (*Factory) ID() string {
	return "send_email"
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
				"description": "Recipient address. Supports templating, e.g. {{.context.contact_email}}.",
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Subject line. Supports templating.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Message body. Supports templating.",
			},
			"template_id": map[string]any{
				"type":        "string",
				"description": "Optional transactional template identifier.",
			},
		},
		"required": []any{"to"},
	}
}
