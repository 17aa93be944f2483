package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// faultyPersistence fails SaveExecution for one workflow to exercise dispatch
// isolation.
type faultyPersistence struct {
	persistence.Persistence

	failWorkflowID string
}

func (f *faultyPersistence) SaveExecution(ctx context.Context, execution *models.Execution) error {
	if execution.WorkflowID == f.failWorkflowID {
		return errors.New("disk full")
	}

	return f.Persistence.SaveExecution(ctx, execution)
}

func dispatchWorkflow(id string, triggerType models.TriggerType, active bool) *models.Workflow {
	return &models.Workflow{
		ID:             id,
		Name:           "Workflow " + id,
		OrganizationID: "org-1",
		Active:         active,
		Trigger: &models.Node{
			ID:          "trigger-1",
			Type:        models.NodeTypeTrigger,
			Connections: []string{"action-1"},
			Trigger:     &models.TriggerConfig{TriggerType: triggerType},
		},
		Nodes: []*models.Node{
			actionNode("action-1", "create_task", map[string]any{"title": "from " + id}),
		},
	}
}

func TestDispatch_MatchesTriggerTypeAndActive(t *testing.T) {
	p := newTestPersistence(t)
	executor := newTestExecutor(t, p)
	dispatcher := NewTriggerDispatcher(testLogger(), p, executor)
	ctx := context.Background()

	saveWorkflow(t, p, dispatchWorkflow("wf-match", models.TriggerTypeContactAdded, true))
	saveWorkflow(t, p, dispatchWorkflow("wf-other-type", models.TriggerTypeCallCompleted, true))
	saveWorkflow(t, p, dispatchWorkflow("wf-inactive", models.TriggerTypeContactAdded, false))

	executions, err := dispatcher.Dispatch(ctx, "org-1", models.TriggerTypeContactAdded, map[string]any{"contact_id": "c-1"})
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, "wf-match", executions[0].WorkflowID)

	executor.Wait()

	final, err := p.ExecutionByID(ctx, executions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	assert.Equal(t, "c-1", final.Context["contact_id"])
}

func TestDispatch_OtherOrganizationUntouched(t *testing.T) {
	p := newTestPersistence(t)
	executor := newTestExecutor(t, p)
	dispatcher := NewTriggerDispatcher(testLogger(), p, executor)

	saveWorkflow(t, p, dispatchWorkflow("wf-1", models.TriggerTypeContactAdded, true))

	executions, err := dispatcher.Dispatch(context.Background(), "org-2", models.TriggerTypeContactAdded, nil)
	require.NoError(t, err)
	assert.Empty(t, executions)
}

func TestDispatch_OneFailureDoesNotBlockOthers(t *testing.T) {
	base := newTestPersistence(t)
	p := &faultyPersistence{Persistence: base, failWorkflowID: "wf-broken"}
	executor := newTestExecutor(t, p)
	dispatcher := NewTriggerDispatcher(testLogger(), p, executor)
	ctx := context.Background()

	saveWorkflow(t, base, dispatchWorkflow("wf-broken", models.TriggerTypeContactAdded, true))
	saveWorkflow(t, base, dispatchWorkflow("wf-healthy", models.TriggerTypeContactAdded, true))

	executions, err := dispatcher.Dispatch(ctx, "org-1", models.TriggerTypeContactAdded, nil)
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, "wf-healthy", executions[0].WorkflowID)

	executor.Wait()

	final, err := base.ExecutionByID(ctx, executions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
}
