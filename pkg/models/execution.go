package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus is the lifecycle state of one workflow run.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	// ExecutionStatusPaused is persisted but no engine transition produces it
	// yet; pause semantics are still undecided product-side.
	ExecutionStatusPaused ExecutionStatus = "paused"
)

// Execution is one run of a workflow, independently persisted. The record
// created at trigger time is the sole mutable row for the run; the immutable
// per-node history lives in ExecutionStep.
type Execution struct {
	ID            string          `json:"id"`
	WorkflowID    string          `json:"workflow_id"`
	TriggerData   map[string]any  `json:"trigger_data,omitempty"`
	Status        ExecutionStatus `json:"status"`
	CurrentNodeID string          `json:"current_node_id,omitempty"`
	Path          []string        `json:"path"`
	Context       map[string]any  `json:"context"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	ErrorMessage  string          `json:"error_message,omitempty"`
}

// MergeContext copies delta into the execution context, overwriting existing
// keys.
func (e *Execution) MergeContext(delta map[string]any) {
	if e.Context == nil {
		e.Context = make(map[string]any, len(delta))
	}

	for k, v := range delta {
		e.Context[k] = v
	}
}

// ExecutionStep is an append-only record of a single node visit, keyed by
// execution ID plus sequence number. Steps are never updated after the node
// finishes, so the full history of a run stays auditable.
type ExecutionStep struct {
	ExecutionID string          `json:"execution_id"`
	Seq         int             `json:"seq"`
	NodeID      string          `json:"node_id"`
	NodeType    NodeType        `json:"node_type"`
	Status      ExecutionStatus `json:"status"`
	Context     map[string]any  `json:"context,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
}

// NewID builds a record identifier of the form
// "<prefix>-<unix-ms>-<random suffix>".
func NewID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]

	return fmt.Sprintf("%s-%s-%s", prefix, strconv.FormatInt(time.Now().UnixMilli(), 10), suffix)
}
