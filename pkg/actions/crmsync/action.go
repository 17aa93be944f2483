package crmsync

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
	provider   config.CRMProvider
}

func (a *Action) Execute(ctx context.Context, execution models.Execution, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "crm_sync")

	params, err := template.RenderParameters(a.parameters, execution)
	if err != nil {
		return nil, err
	}

	recordType, _ := params["record_type"].(string)
	recordID, _ := params["record_id"].(string)

	if recordType == "" || recordID == "" {
		return nil, errors.New("crm_sync requires \"record_type\" and \"record_id\" parameters")
	}

	logger.InfoContext(ctx, "Synchronizing CRM record",
		"provider", a.provider.Provider,
		"record_type", recordType,
		"record_id", recordID,
	)

	return map[string]any{
		"crm_synced":    true,
		"crm_synced_at": time.Now().UTC().Format(time.RFC3339),
		"crm_record_id": recordID,
	}, nil
}
