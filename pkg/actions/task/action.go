package task

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
	logger = logger.With("action_type", "create_task")

	params, err := template.RenderParameters(a.parameters, execution)
	if err != nil {
		return nil, err
	}

	title, _ := params["title"].(string)
	if title == "" {
		return nil, errors.New("create_task requires a \"title\" parameter")
	}

	assignee, _ := params["assignee"].(string)
	taskID := models.NewID("task")

	logger.InfoContext(ctx, "Creating task", "task_id", taskID, "title", title, "assignee", assignee)

	return map[string]any{
		"task_created":    true,
		"task_id":         taskID,
		"task_created_at": time.Now().UTC().Format(time.RFC3339),
	}, nil
}
