package deal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/template"
)

type Action struct {
	parameters map[string]any
}

func (a *Action) Execute(ctx context.Context, execution models.Execution, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "create_deal")

	params, err := template.RenderParameters(a.parameters, execution)
	if err != nil {
		return nil, err
	}

	name, _ := params["name"].(string)
	if name == "" {
		return nil, errors.New("create_deal requires a \"name\" parameter")
	}

	dealID := models.NewID("deal")
	stage, _ := params["stage"].(string)

	logger.InfoContext(ctx, "Creating deal", "deal_id", dealID, "name", name, "stage", stage)

	return map[string]any{
		"deal_created":    true,
		"deal_id":         dealID,
		"deal_created_at": time.Now().UTC().Format(time.RFC3339),
	}, nil
}
