package models

import (
	"fmt"
	"strings"
)

// ValidationIssue points at one problem in a workflow definition.
type ValidationIssue struct {
	NodeID  string `json:"node_id,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationError aggregates every issue found in a definition so callers can
// surface them all at once instead of fixing one at a time.
type ValidationError struct {
	Issues []ValidationIssue `json:"issues"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.NodeID != "" {
			parts = append(parts, fmt.Sprintf("node %s: %s", issue.NodeID, issue.Message))
		} else {
			parts = append(parts, issue.Message)
		}
	}

	return "invalid workflow definition: " + strings.Join(parts, "; ")
}

// ValidateGraph checks the workflow definition for structural problems:
// unknown node or trigger types, mismatched node configs, duplicate IDs, and
// successor references that do not resolve. Dangling references are rejected
// here, at creation time, rather than discovered mid-execution.
func (w *Workflow) ValidateGraph() error {
	var issues []ValidationIssue

	add := func(nodeID, field, message string) {
		issues = append(issues, ValidationIssue{NodeID: nodeID, Field: field, Message: message})
	}

	if w.Trigger == nil {
		add("", "trigger", "workflow requires a trigger node")
	} else {
		if w.Trigger.Type != NodeTypeTrigger {
			add(w.Trigger.ID, "type", "trigger node must have type \"trigger\"")
		}

		if w.Trigger.Trigger == nil {
			add(w.Trigger.ID, "trigger", "trigger node requires a trigger config")
		} else if !KnownTriggerType(w.Trigger.Trigger.TriggerType) {
			add(w.Trigger.ID, "trigger.trigger_type",
				fmt.Sprintf("unknown trigger type %q", w.Trigger.Trigger.TriggerType))
		}
	}

	ids := make(map[string]bool, len(w.Nodes)+1)
	if w.Trigger != nil {
		if w.Trigger.ID == "" {
			add("", "trigger.id", "trigger node requires an id")
		}

		ids[w.Trigger.ID] = true
	}

	for _, node := range w.Nodes {
		if node.ID == "" {
			add("", "nodes.id", "node requires an id")

			continue
		}

		if ids[node.ID] {
			add(node.ID, "id", "duplicate node id")
		}

		ids[node.ID] = true
	}

	for _, node := range w.Nodes {
		switch node.Type {
		case NodeTypeAction:
			if node.Action == nil || node.Action.ActionType == "" {
				add(node.ID, "action", "action node requires an action config with an action type")
			}
		case NodeTypeCondition:
			validateConditionNode(node, add)
		case NodeTypeDelay:
			validateDelayNode(node, add)
		case NodeTypeTrigger:
			add(node.ID, "type", "trigger nodes are not allowed in the node collection")
		default:
			add(node.ID, "type", fmt.Sprintf("unknown node type %q", node.Type))
		}
	}

	// Every referenced successor must resolve. Empty lists are legal and mean
	// "end execution".
	checkRefs := func(nodeID, field string, refs []string) {
		for _, ref := range refs {
			if !ids[ref] {
				add(nodeID, field, fmt.Sprintf("references unknown node %q", ref))
			}
		}
	}

	if w.Trigger != nil {
		checkRefs(w.Trigger.ID, "connections", w.Trigger.Connections)
	}

	for _, node := range w.Nodes {
		checkRefs(node.ID, "connections", node.Connections)

		if node.Type == NodeTypeCondition && node.Condition != nil {
			checkRefs(node.ID, "condition.true_path", node.Condition.TruePath)
			checkRefs(node.ID, "condition.false_path", node.Condition.FalsePath)
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}

	return nil
}

func validateConditionNode(node *Node, add func(nodeID, field, message string)) {
	if node.Condition == nil {
		add(node.ID, "condition", "condition node requires a condition config")

		return
	}

	// Both paths must be present, even when empty, so "end execution" is an
	// explicit choice rather than an omission.
	if node.Condition.TruePath == nil {
		add(node.ID, "condition.true_path", "true path must be set (an empty list ends the execution)")
	}

	if node.Condition.FalsePath == nil {
		add(node.ID, "condition.false_path", "false path must be set (an empty list ends the execution)")
	}

	switch node.Condition.Combinator {
	case CombinatorAnd, CombinatorOr, "":
	default:
		add(node.ID, "condition.combinator",
			fmt.Sprintf("unknown combinator %q", node.Condition.Combinator))
	}

	for i, rule := range node.Condition.Rules {
		if rule.Field == "" {
			add(node.ID, fmt.Sprintf("condition.rules[%d].field", i), "rule field is required")
		}
	}
}

func validateDelayNode(node *Node, add func(nodeID, field, message string)) {
	if node.Delay == nil {
		add(node.ID, "delay", "delay node requires a delay config")

		return
	}

	if node.Delay.Duration < 1 {
		add(node.ID, "delay.duration", "delay duration must be at least 1")
	}

	switch node.Delay.Unit {
	case DelayUnitSeconds, DelayUnitMinutes, DelayUnitHours, DelayUnitDays:
	default:
		add(node.ID, "delay.unit", fmt.Sprintf("unknown delay unit %q", node.Delay.Unit))
	}
}
