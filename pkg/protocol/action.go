// Package protocol defines the contracts between the execution engine and
// pluggable action handlers.
package protocol

import (
	"context"
	"log/slog"

	"github.com/meridianhq/flowline/pkg/models"
)

// Action performs one side-effecting step of a workflow. Execute returns a
// context delta to merge into the running execution, or an error. Handlers
// must convert internal failures into returned errors instead of panicking;
// the engine treats any non-nil error as fatal for the execution.
type Action interface {
	Execute(ctx context.Context, execution models.Execution, logger *slog.Logger) (map[string]any, error)
}

// ActionFactory builds actions from a node's free-form parameter map.
type ActionFactory interface {
	// ID is the action-type tag dispatched on, e.g. "send_email".
	ID() string
	Create(parameters map[string]any) (Action, error)
	// Schema is the JSON Schema the parameters must satisfy. Enforced at
	// workflow-creation time, not at execution time.
	Schema() map[string]any
}
