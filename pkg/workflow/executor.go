package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meridianhq/flowline/pkg/events"
	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/otelhelper"
	"github.com/meridianhq/flowline/pkg/persistence"
	"github.com/meridianhq/flowline/pkg/registry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Executor runs workflow executions. Execute returns as soon as the
// execution record is persisted; the node walk happens on a detached
// goroutine so callers are never blocked by delay nodes.
type Executor struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    EventPublisher
	maxDelay    time.Duration
	tracer      trace.Tracer

	wg sync.WaitGroup
}

// EventPublisher is the slice of the event bus the executor needs.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event events.Event) error
}

type ExecutorOption func(*Executor)

// WithEventBus publishes lifecycle events for each execution.
func WithEventBus(bus EventPublisher) ExecutorOption {
	return func(e *Executor) {
		e.eventBus = bus
	}
}

// WithMaxDelay clamps delay nodes to at most d. Zero means no clamp.
func WithMaxDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.maxDelay = d
	}
}

func NewExecutor(logger *slog.Logger, p persistence.Persistence, r *registry.Registry, opts ...ExecutorOption) *Executor {
	executor := &Executor{
		logger:      logger.With("module", "workflow_executor"),
		persistence: p,
		registry:    r,
		tracer:      otel.Tracer("flowline.workflow"),
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Execute starts a run of the workflow and returns the persisted execution
// record with status running. The caller can poll the record for completion.
func (e *Executor) Execute(ctx context.Context, workflowID string, triggerData map[string]any) (*models.Execution, error) {
	workflow, err := e.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !workflow.Active {
		return nil, fmt.Errorf("workflow %s: %w", workflowID, ErrWorkflowInactive)
	}

	if workflow.Trigger == nil {
		return nil, fmt.Errorf("workflow %s has no trigger node", workflowID)
	}

	execution := &models.Execution{
		ID:            models.NewID("exec"),
		WorkflowID:    workflow.ID,
		TriggerData:   triggerData,
		Status:        models.ExecutionStatusRunning,
		CurrentNodeID: workflow.Trigger.ID,
		Path:          []string{},
		Context:       map[string]any{},
		StartedAt:     time.Now().UTC(),
	}
	execution.MergeContext(triggerData)

	err = e.persistence.SaveExecution(ctx, execution)
	if err != nil {
		return nil, err
	}

	e.publish(ctx, execution.ID, events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, workflow.ID),
		ExecutionID: execution.ID,
		TriggerData: triggerData,
	})

	snapshot := *execution

	e.wg.Add(1)

	// The run must outlive the triggering request.
	runCtx := context.WithoutCancel(ctx)

	go func() {
		defer e.wg.Done()
		e.run(runCtx, workflow, execution)
	}()

	return &snapshot, nil
}

// Wait blocks until all in-flight executions finish. Used for graceful
// shutdown and tests.
func (e *Executor) Wait() {
	e.wg.Wait()
}

func (e *Executor) run(ctx context.Context, workflow *models.Workflow, execution *models.Execution) {
	logger := e.logger.With("workflow_id", workflow.ID, "execution_id", execution.ID)
	logger.InfoContext(ctx, "Starting workflow execution")

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
	)
	defer span.End()

	current := workflow.Trigger
	seq := 0

	var runErr error

	for current != nil {
		stepStarted := time.Now().UTC()

		nodeCtx, nodeSpan := otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
			attribute.String(otelhelper.NodeIDKey, current.ID),
			attribute.String(otelhelper.NodeTypeKey, string(current.Type)),
		)

		delta, nextID, err := e.executeNode(nodeCtx, current, execution, logger)
		if err != nil {
			otelhelper.SetError(nodeSpan, err, attribute.String(otelhelper.NodeIDKey, current.ID))
		}

		nodeSpan.End()

		step := &models.ExecutionStep{
			ExecutionID: execution.ID,
			Seq:         seq,
			NodeID:      current.ID,
			NodeType:    current.Type,
			Status:      models.ExecutionStatusCompleted,
			StartedAt:   stepStarted,
			CompletedAt: time.Now().UTC(),
		}

		execution.Path = append(execution.Path, current.ID)
		execution.CurrentNodeID = current.ID

		if err != nil {
			runErr = err
			step.Status = models.ExecutionStatusFailed
			step.Error = err.Error()
		} else {
			execution.MergeContext(delta)
			step.Context = snapshotContext(execution.Context)

			e.publish(ctx, execution.ID, events.NodeCompleted{
				BaseEvent:   events.NewBaseEvent(events.NodeCompletedEvent, workflow.ID),
				ExecutionID: execution.ID,
				NodeID:      current.ID,
				NodeType:    string(current.Type),
				Delta:       delta,
			})
		}

		appendErr := e.persistence.AppendExecutionStep(ctx, step)
		if appendErr != nil {
			logger.ErrorContext(ctx, "Failed to append execution step", "error", appendErr)
		}

		if runErr != nil {
			break
		}

		// Persist progress after every node so the record reflects the
		// walk even if the process dies mid-run.
		updateErr := e.persistence.UpdateExecution(ctx, execution)
		if updateErr != nil {
			logger.ErrorContext(ctx, "Failed to persist execution progress", "error", updateErr)
		}

		if nextID == "" {
			current = nil

			continue
		}

		// An unresolvable successor ends the run normally; creation-time
		// validation rejects dangling references, so this only happens on
		// legacy definitions.
		next := workflow.FindNode(nextID)
		if next == nil {
			logger.WarnContext(ctx, "Successor not found, ending execution", "node_id", current.ID, "next_id", nextID)
			current = nil

			continue
		}

		current = next
		seq++
	}

	if runErr != nil {
		otelhelper.SetError(span, runErr, attribute.String(otelhelper.NodeIDKey, execution.CurrentNodeID))
	}

	e.finish(ctx, workflow, execution, runErr, logger)
}

// executeNode runs one node and returns its context delta and successor ID.
// An empty successor ends the execution normally.
func (e *Executor) executeNode(ctx context.Context, node *models.Node, execution *models.Execution, logger *slog.Logger) (map[string]any, string, error) {
	switch node.Type {
	case models.NodeTypeTrigger:
		// Entry marker; the external event already happened.
		return nil, node.NextConnection(), nil

	case models.NodeTypeAction:
		if node.Action == nil {
			return nil, "", fmt.Errorf("action node %s has no action config", node.ID)
		}

		action, err := e.registry.CreateAction(node.Action.ActionType, node.Action.Parameters)
		if err != nil {
			return nil, "", err
		}

		delta, err := action.Execute(ctx, *execution, logger)
		if err != nil {
			return nil, "", fmt.Errorf("action %s failed: %w", node.Action.ActionType, err)
		}

		return delta, node.NextConnection(), nil

	case models.NodeTypeCondition:
		if node.Condition == nil {
			return nil, "", fmt.Errorf("condition node %s has no condition config", node.ID)
		}

		result := node.Condition.Evaluate(execution.Context)
		logger.InfoContext(ctx, "Condition evaluated", "node_id", node.ID, "result", result)

		if result {
			return nil, first(node.Condition.TruePath), nil
		}

		return nil, first(node.Condition.FalsePath), nil

	case models.NodeTypeDelay:
		if node.Delay == nil {
			return nil, "", fmt.Errorf("delay node %s has no delay config", node.ID)
		}

		duration := node.Delay.Sleep()
		if e.maxDelay > 0 && duration > e.maxDelay {
			logger.WarnContext(ctx, "Clamping delay", "node_id", node.ID, "configured", duration, "max", e.maxDelay)
			duration = e.maxDelay
		}

		select {
		case <-time.After(duration):
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}

		delta := map[string]any{
			node.ID + "_delayed_at": time.Now().UTC().Format(time.RFC3339),
		}

		return delta, node.NextConnection(), nil

	default:
		return nil, "", fmt.Errorf("unknown node type: %s", node.Type)
	}
}

func (e *Executor) finish(ctx context.Context, workflow *models.Workflow, execution *models.Execution, runErr error, logger *slog.Logger) {
	completedAt := time.Now().UTC()
	execution.CompletedAt = &completedAt

	if runErr != nil {
		execution.Status = models.ExecutionStatusFailed
		execution.ErrorMessage = runErr.Error()

		logger.ErrorContext(ctx, "Workflow execution failed", "error", runErr)
	} else {
		execution.Status = models.ExecutionStatusCompleted

		logger.InfoContext(ctx, "Workflow execution completed", "path", execution.Path)
	}

	err := e.persistence.UpdateExecution(ctx, execution)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to persist final execution state", "error", err)
	}

	// Stats refresh runs regardless of outcome so failed runs count too.
	err = e.persistence.RefreshWorkflowStats(ctx, workflow.ID, completedAt)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to refresh workflow stats", "error", err)
	}

	if runErr != nil {
		e.publish(ctx, execution.ID, events.ExecutionFailed{
			BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent, workflow.ID),
			ExecutionID: execution.ID,
			NodeID:      execution.CurrentNodeID,
			Error:       runErr.Error(),
		})

		return
	}

	e.publish(ctx, execution.ID, events.ExecutionCompleted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionCompletedEvent, workflow.ID),
		ExecutionID: execution.ID,
		Path:        execution.Path,
		Duration:    completedAt.Sub(execution.StartedAt),
	})
}

func (e *Executor) publish(ctx context.Context, key string, event events.Event) {
	if e.eventBus == nil {
		return
	}

	err := e.eventBus.Publish(ctx, key, event)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func first(path []string) string {
	if len(path) == 0 {
		return ""
	}

	return path[0]
}

func snapshotContext(source map[string]any) map[string]any {
	snapshot := make(map[string]any, len(source))
	for k, v := range source {
		snapshot[k] = v
	}

	return snapshot
}
