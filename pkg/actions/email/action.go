package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/meridianhq/flowline/pkg/config"
	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/template"
)

// Action sends a transactional email. The delivery call is simulated; the
// returned delta records the send in the execution context.
type Action struct {
	parameters map[string]any
	provider   config.EmailProvider
}

func (a *Action) Execute(ctx context.Context, execution models.Execution, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "send_email")

	params, err := template.RenderParameters(a.parameters, execution)
	if err != nil {
		return nil, err
	}

	to, _ := params["to"].(string)
	if to == "" {
		return nil, errors.New("send_email requires a \"to\" parameter")
	}

	subject, _ := params["subject"].(string)

	logger.InfoContext(ctx, "Sending transactional email",
		"to", to,
		"from", a.provider.FromAddress,
		"subject", subject,
	)

	return map[string]any{
		"email_sent":    true,
		"email_sent_at": time.Now().UTC().Format(time.RFC3339),
		"email_to":      to,
	}, nil
}
