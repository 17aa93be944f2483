package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validWorkflow() *Workflow {
	return &Workflow{
		ID:             "wf-1",
		Name:           "Lead follow-up",
		OrganizationID: "org-1",
		Active:         true,
		Trigger: &Node{
			ID:          "trigger-1",
			Type:        NodeTypeTrigger,
			Trigger:     &TriggerConfig{TriggerType: TriggerTypeContactAdded},
			Connections: []string{"action-1"},
		},
		Nodes: []*Node{
			{
				ID:   "action-1",
				Type: NodeTypeAction,
				Action: &ActionConfig{
					ActionType: "send_email",
					Parameters: map[string]any{"to": "a@b.com"},
				},
			},
		},
	}
}

func TestValidateGraph_Valid(t *testing.T) {
	assert.NoError(t, validWorkflow().ValidateGraph())
}

func TestValidateGraph_MissingTrigger(t *testing.T) {
	wf := validWorkflow()
	wf.Trigger = nil

	err := wf.ValidateGraph()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "trigger", verr.Issues[0].Field)
}

func TestValidateGraph_DanglingReference(t *testing.T) {
	wf := validWorkflow()
	wf.Nodes[0].Connections = []string{"ghost-node"}

	err := wf.ValidateGraph()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost-node")
}

func TestValidateGraph_ConditionPaths(t *testing.T) {
	wf := validWorkflow()
	wf.Nodes = append(wf.Nodes, &Node{
		ID:   "cond-1",
		Type: NodeTypeCondition,
		Condition: &ConditionConfig{
			Combinator: CombinatorAnd,
			Rules:      []Rule{{Field: "stage", Operator: OperatorEquals, Value: "won"}},
			TruePath:   []string{"action-1"},
			// FalsePath deliberately nil
		},
	})

	err := wf.ValidateGraph()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "false path")

	// Explicitly empty paths are fine.
	wf.Nodes[1].Condition.FalsePath = []string{}
	assert.NoError(t, wf.ValidateGraph())
}

func TestValidateGraph_UnknownTypes(t *testing.T) {
	wf := validWorkflow()
	wf.Trigger.Trigger.TriggerType = "deal_closed"
	wf.Nodes = append(wf.Nodes, &Node{ID: "weird", Type: NodeType("loop")})

	err := wf.ValidateGraph()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Issues, 2)
}

func TestValidateGraph_DuplicateNodeID(t *testing.T) {
	wf := validWorkflow()
	wf.Nodes = append(wf.Nodes, &Node{
		ID:     "action-1",
		Type:   NodeTypeAction,
		Action: &ActionConfig{ActionType: "send_sms"},
	})

	err := wf.ValidateGraph()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestValidateGraph_DelayConfig(t *testing.T) {
	wf := validWorkflow()
	wf.Nodes = append(wf.Nodes, &Node{
		ID:    "delay-1",
		Type:  NodeTypeDelay,
		Delay: &DelayConfig{Duration: 0, Unit: "fortnights"},
	})

	err := wf.ValidateGraph()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Issues, 2)
}
