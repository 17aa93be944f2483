package call

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
	provider   config.VoiceProvider
}

func (a *Action) Execute(ctx context.Context, execution models.Execution, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "make_call")

	params, err := template.RenderParameters(a.parameters, execution)
	if err != nil {
		return nil, err
	}

	to, _ := params["to"].(string)
	if to == "" {
		return nil, errors.New("make_call requires a \"to\" parameter")
	}

	agentID, _ := params["agent_id"].(string)
	if agentID == "" {
		agentID = a.provider.AgentID
	}

	callID := models.NewID("call")

	logger.InfoContext(ctx, "Placing outbound call",
		"call_id", callID,
		"to", to,
		"caller_id", a.provider.CallerID,
		"agent_id", agentID,
	)

	return map[string]any{
		"call_placed":    true,
		"call_id":        callID,
		"call_placed_at": time.Now().UTC().Format(time.RFC3339),
	}, nil
}
