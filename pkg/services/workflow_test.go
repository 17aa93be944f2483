package services

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

type testEnv struct {
	persistence persistence.Persistence
	workflows   *Workflow
	executions  *Execution
	executor    *workflow.Executor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	p, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	reg := registry.NewRegistry(logger)
	registry.RegisterDefaults(reg, config.DefaultProviders())

	repo := workflow.NewRepository(p, reg)
	executor := workflow.NewExecutor(logger, p, reg, workflow.WithMaxDelay(10*time.Millisecond))
	dispatcher := workflow.NewTriggerDispatcher(logger, p, executor)

	return &testEnv{
		persistence: p,
		workflows:   NewWorkflow(repo),
		executions:  NewExecution(p, executor, dispatcher),
		executor:    executor,
	}
}

func serviceWorkflow() *models.Workflow {
	return &models.Workflow{
		Name:           "Welcome sequence",
		OrganizationID: "org-1",
		Trigger: &models.Node{
			ID:          "trigger-1",
			Type:        models.NodeTypeTrigger,
			Connections: []string{"action-1"},
			Trigger:     &models.TriggerConfig{TriggerType: models.TriggerTypeContactAdded},
		},
		Nodes: []*models.Node{
			{
				ID:   "action-1",
				Type: models.NodeTypeAction,
				Action: &models.ActionConfig{
					ActionType: "create_task",
					Parameters: map[string]any{"title": "Say hello"},
				},
			},
		},
	}
}

func TestWorkflowService_CreateAndFetch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.workflows.Create(ctx, serviceWorkflow())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	loaded, err := env.workflows.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)

	listed, err := env.workflows.List(ctx, "org-1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestWorkflowService_CreateNil(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.workflows.Create(context.Background(), nil)
	require.ErrorIs(t, err, ErrWorkflowNil)
	assert.True(t, IsValidationError(err))
}

func TestWorkflowService_CreateMissingOrganization(t *testing.T) {
	env := newTestEnv(t)

	wf := serviceWorkflow()
	wf.OrganizationID = ""

	_, err := env.workflows.Create(context.Background(), wf)
	require.ErrorIs(t, err, ErrOrganizationMissing)
}

func TestExecutionService_StartInactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.workflows.Create(ctx, serviceWorkflow())
	require.NoError(t, err)

	_, err = env.executions.Start(ctx, created.ID, nil)
	require.ErrorIs(t, err, ErrWorkflowInactive)
	assert.True(t, IsConflictError(err))
}

func TestExecutionService_StartAndInspect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.workflows.Create(ctx, serviceWorkflow())
	require.NoError(t, err)

	_, err = env.workflows.Activate(ctx, created.ID)
	require.NoError(t, err)

	execution, err := env.executions.Start(ctx, created.ID, map[string]any{"contact_id": "c-1"})
	require.NoError(t, err)

	env.executor.Wait()

	final, err := env.executions.GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)

	steps, err := env.executions.Steps(ctx, execution.ID)
	require.NoError(t, err)
	assert.Len(t, steps, 2)

	list, err := env.executions.ListByWorkflow(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestExecutionService_TriggerValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.executions.Trigger(ctx, "", models.TriggerTypeContactAdded, nil)
	require.ErrorIs(t, err, ErrOrganizationMissing)

	_, err = env.executions.Trigger(ctx, "org-1", "meteor_strike", nil)
	require.ErrorIs(t, err, ErrUnknownTriggerType)
	assert.True(t, IsValidationError(err))
}

func TestExecutionService_StepsNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.executions.Steps(context.Background(), "exec-ghost")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}
