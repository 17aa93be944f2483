// Package sms implements the send_sms workflow action.
package sms

import (
	"github.com/meridianhq/flowline/pkg/config"
	"github.com/meridianhq/flowline/pkg/protocol"
)

type Factory struct {
	provider config.SMSProvider
}

func NewFactory(provider config.SMSProvider) *Factory {
	return &Factory{provider: provider}
}

func (*Factory) ID() string {
	return "send_sms"
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
				"description": "Recipient phone number in E.164 form. Supports templating.",
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Message text. Supports templating.",
			},
		},
		"required": []any{"to", "message"},
	}
}
