package scheduler

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/meridianhq/flowline/pkg/config"
	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/persistence"
	"github.com/meridianhq/flowline/pkg/persistence/file"
	"github.com/meridianhq/flowline/pkg/registry"
	"github.com/meridianhq/flowline/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) (*Scheduler, persistence.Persistence) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	p, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	reg := registry.NewRegistry(logger)
	registry.RegisterDefaults(reg, config.DefaultProviders())

	executor := workflow.NewExecutor(logger, p, reg)

	return NewScheduler(logger, p, executor), p
}

func scheduledWorkflow(id, expr string, active bool) *models.Workflow {
	now := time.Now().UTC()

	return &models.Workflow{
		ID:             id,
		Name:           "Nightly digest",
		OrganizationID: "org-1",
		Active:         active,
		Trigger: &models.Node{
			ID:   "trigger-1",
			Type: models.NodeTypeTrigger,
			Trigger: &models.TriggerConfig{
				TriggerType: models.TriggerTypeScheduled,
				Settings:    map[string]any{"cron": expr},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCronExpression(t *testing.T) {
	wf := scheduledWorkflow("wf-1", "0 9 * * *", true)

	expr, err := CronExpression(wf)
	require.NoError(t, err)
	assert.Equal(t, "0 9 * * *", expr)
}

func TestCronExpression_Invalid(t *testing.T) {
	_, err := CronExpression(scheduledWorkflow("wf-1", "not a cron", true))
	require.Error(t, err)

	wf := scheduledWorkflow("wf-2", "0 9 * * *", true)
	wf.Trigger.Trigger.TriggerType = models.TriggerTypeManual

	_, err = CronExpression(wf)
	require.Error(t, err)

	wf = scheduledWorkflow("wf-3", "0 9 * * *", true)
	wf.Trigger.Trigger.Settings = nil

	_, err = CronExpression(wf)
	require.Error(t, err)
}

func TestSync_AddAndRemoveEntries(t *testing.T) {
	s, p := newTestScheduler(t)
	ctx := context.Background()

	require.NoError(t, p.SaveWorkflow(ctx, scheduledWorkflow("wf-active", "0 9 * * *", true)))
	require.NoError(t, p.SaveWorkflow(ctx, scheduledWorkflow("wf-inactive", "0 9 * * *", false)))
	require.NoError(t, p.SaveWorkflow(ctx, scheduledWorkflow("wf-bad-expr", "banana", true)))

	require.NoError(t, s.Sync(ctx))
	assert.Equal(t, 1, s.ScheduledCount())

	// Deactivation drops the entry on the next sync.
	wf, err := p.WorkflowByID(ctx, "wf-active")
	require.NoError(t, err)
	wf.Active = false
	require.NoError(t, p.SaveWorkflow(ctx, wf))

	require.NoError(t, s.Sync(ctx))
	assert.Equal(t, 0, s.ScheduledCount())
}

func TestSync_RescheduleOnExpressionChange(t *testing.T) {
	s, p := newTestScheduler(t)
	ctx := context.Background()

	require.NoError(t, p.SaveWorkflow(ctx, scheduledWorkflow("wf-1", "0 9 * * *", true)))
	require.NoError(t, s.Sync(ctx))
	require.Equal(t, 1, s.ScheduledCount())

	wf, err := p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	wf.Trigger.Trigger.Settings["cron"] = "30 18 * * *"
	require.NoError(t, p.SaveWorkflow(ctx, wf))

	require.NoError(t, s.Sync(ctx))
	assert.Equal(t, 1, s.ScheduledCount())
}
