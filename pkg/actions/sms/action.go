package sms

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/meridianhq/flowline/pkg/config"
	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/template"
)

type Action struct {
	parameters map[string]any
	provider   config.SMSProvider
}

func (a *Action) Execute(ctx context.Context, execution models.Execution, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "send_sms")

	params, err := template.RenderParameters(a.parameters, execution)
	if err != nil {
		return nil, err
	}

	to, _ := params["to"].(string)
	message, _ := params["message"].(string)

	if to == "" || message == "" {
		return nil, errors.New("send_sms requires \"to\" and \"message\" parameters")
	}

	logger.InfoContext(ctx, "Sending SMS", "to", to, "from", a.provider.FromNumber)

	return map[string]any{
		"sms_sent":    true,
		"sms_sent_at": time.Now().UTC().Format(time.RFC3339),
		"sms_to":      to,
	}, nil
}
