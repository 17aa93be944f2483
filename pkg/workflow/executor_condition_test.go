package workflow

import (
	"context"
	"testing"

	"github.com/meridianhq/flowline/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conditionWorkflow(rules []models.Rule, combinator models.Combinator) *models.Workflow {
	return &models.Workflow{
		ID:             "wf-1",
		Name:           "Branching flow",
		OrganizationID: "org-1",
		Active:         true,
		Trigger:        triggerNode("condition-1"),
		Nodes: []*models.Node{
			{
				ID:   "condition-1",
				Type: models.NodeTypeCondition,
				Condition: &models.ConditionConfig{
					Combinator: combinator,
					Rules:      rules,
					TruePath:   []string{"action-true"},
					FalsePath:  []string{"action-false"},
				},
			},
			actionNode("action-true", "create_task", map[string]any{"title": "hot lead"}),
			actionNode("action-false", "create_task", map[string]any{"title": "cold lead"}),
		},
	}
}

func runToCompletion(t *testing.T, workflow *models.Workflow, triggerData map[string]any) *models.Execution {
	t.Helper()

	p := newTestPersistence(t)
	executor := newTestExecutor(t, p)
	ctx := context.Background()

	saveWorkflow(t, p, workflow)

	execution, err := executor.Execute(ctx, workflow.ID, triggerData)
	require.NoError(t, err)

	executor.Wait()

	final, err := p.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)

	return final
}

func TestCondition_TruePathTaken(t *testing.T) {
	rules := []models.Rule{
		{Field: "lead_score", Operator: models.OperatorGreaterThan, Value: 50},
	}

	final := runToCompletion(t, conditionWorkflow(rules, models.CombinatorAnd), map[string]any{"lead_score": 80})

	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	assert.Equal(t, []string{"trigger-1", "condition-1", "action-true"}, final.Path)
}

func TestCondition_FalsePathTaken(t *testing.T) {
	rules := []models.Rule{
		{Field: "lead_score", Operator: models.OperatorGreaterThan, Value: 50},
	}

	final := runToCompletion(t, conditionWorkflow(rules, models.CombinatorAnd), map[string]any{"lead_score": 10})

	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	assert.Equal(t, []string{"trigger-1", "condition-1", "action-false"}, final.Path)
}

func TestCondition_AndRequiresAllRules(t *testing.T) {
	rules := []models.Rule{
		{Field: "lead_score", Operator: models.OperatorGreaterThan, Value: 50},
		{Field: "region", Operator: models.OperatorEquals, Value: "emea"},
	}

	final := runToCompletion(t, conditionWorkflow(rules, models.CombinatorAnd), map[string]any{
		"lead_score": 80,
		"region":     "apac",
	})

	assert.Equal(t, []string{"trigger-1", "condition-1", "action-false"}, final.Path)
}

func TestCondition_UnknownOperatorTakesFalsePath(t *testing.T) {
	rules := []models.Rule{
		{Field: "lead_score", Operator: "resembles", Value: 50},
	}

	final := runToCompletion(t, conditionWorkflow(rules, models.CombinatorAnd), map[string]any{"lead_score": 50})

	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	assert.Equal(t, []string{"trigger-1", "condition-1", "action-false"}, final.Path)
}

func TestCondition_EmptyTruePathEndsExecution(t *testing.T) {
	workflow := conditionWorkflow([]models.Rule{
		{Field: "vip", Operator: models.OperatorEquals, Value: true},
	}, models.CombinatorAnd)
	workflow.Nodes[0].Condition.TruePath = []string{}

	final := runToCompletion(t, workflow, map[string]any{"vip": true})

	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	assert.Equal(t, []string{"trigger-1", "condition-1"}, final.Path)
	assert.Empty(t, final.ErrorMessage)
}
