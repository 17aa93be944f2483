package models

import "time"

// NodeType discriminates the node union.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypeAction    NodeType = "action"
	NodeTypeCondition NodeType = "condition"
	NodeTypeDelay     NodeType = "delay"
)

// TriggerType identifies the external event class that fires a workflow.
type TriggerType string

const (
	TriggerTypeCallCompleted TriggerType = "call_completed"
	TriggerTypeContactAdded  TriggerType = "contact_added"
	TriggerTypeManual        TriggerType = "manual"
	TriggerTypeScheduled     TriggerType = "scheduled"
	TriggerTypeWebhook       TriggerType = "webhook"
)

// KnownTriggerType reports whether t is one of the supported trigger types.
func KnownTriggerType(t TriggerType) bool {
	switch t {
	case TriggerTypeCallCompleted, TriggerTypeContactAdded, TriggerTypeManual,
		TriggerTypeScheduled, TriggerTypeWebhook:
		return true
	default:
		return false
	}
}

// Node is one unit of work in the workflow graph. Exactly one of the typed
// config pointers is set, matching Type. Position is presentation-only and
// ignored by execution.
type Node struct {
	ID          string   `json:"id"   validate:"required"`
	Type        NodeType `json:"type" validate:"required"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	PositionX   int      `json:"position_x"`
	PositionY   int      `json:"position_y"`
	Connections []string `json:"connections"`

	Trigger   *TriggerConfig   `json:"trigger,omitempty"`
	Action    *ActionConfig    `json:"action,omitempty"`
	Condition *ConditionConfig `json:"condition,omitempty"`
	Delay     *DelayConfig     `json:"delay,omitempty"`
}

// NextConnection returns the first successor, or "" when the node is terminal.
// Only the first connection is ever followed.
func (n *Node) NextConnection() string {
	if len(n.Connections) == 0 {
		return ""
	}

	return n.Connections[0]
}

// TriggerConfig configures the entry node of a workflow.
//
// Conditions are stored with the trigger but are not applied during trigger
// dispatch. See workflow.TriggerDispatcher.
type TriggerConfig struct {
	TriggerType TriggerType    `json:"trigger_type" validate:"required"`
	Conditions  []Rule         `json:"conditions,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"` // e.g. cron expression for scheduled triggers
}

// ActionConfig names the handler to dispatch plus its free-form parameters.
type ActionConfig struct {
	ActionType string         `json:"action_type" validate:"required"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// ConditionConfig routes execution down TruePath or FalsePath depending on
// the combined outcome of its rules. An empty path list ends the execution.
type ConditionConfig struct {
	Combinator Combinator `json:"combinator"`
	Rules      []Rule     `json:"rules"`
	TruePath   []string   `json:"true_path"`
	FalsePath  []string   `json:"false_path"`
}

// DelayUnit is the time unit of a delay node.
type DelayUnit string

const (
	DelayUnitSeconds DelayUnit = "seconds"
	DelayUnitMinutes DelayUnit = "minutes"
	DelayUnitHours   DelayUnit = "hours"
	DelayUnitDays    DelayUnit = "days"
)

// DelayConfig suspends the execution for Duration Units.
type DelayConfig struct {
	Duration int       `json:"duration" validate:"min=1"`
	Unit     DelayUnit `json:"unit"     validate:"required"`
}

// Sleep converts the configured duration and unit into a time.Duration.
// Unknown units fall back to seconds.
func (d *DelayConfig) Sleep() time.Duration {
	base := time.Duration(d.Duration)

	switch d.Unit {
	case DelayUnitMinutes:
		return base * time.Minute
	case DelayUnitHours:
		return base * time.Hour
	case DelayUnitDays:
		return base * 24 * time.Hour
	case DelayUnitSeconds:
		return base * time.Second
	default:
		return base * time.Second
	}
}
