package workflow

import (
	"context"
	"log/slog"

	"github.com/meridianhq/flowline/pkg/events"
	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/persistence"
)

// TriggerDispatcher fans an external event out to every matching workflow in
// an organization. One workflow failing to start never blocks the others.
type TriggerDispatcher struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	executor    *Executor
	eventBus    EventPublisher
}

func NewTriggerDispatcher(logger *slog.Logger, p persistence.Persistence, executor *Executor) *TriggerDispatcher {
	return &TriggerDispatcher{
		logger:      logger.With("module", "trigger_dispatcher"),
		persistence: p,
		executor:    executor,
	}
}

// WithTriggerEventBus publishes a WorkflowTriggered event per dispatch.
func (d *TriggerDispatcher) WithTriggerEventBus(bus EventPublisher) *TriggerDispatcher {
	d.eventBus = bus

	return d
}

// Dispatch starts an execution for every active workflow of the organization
// whose trigger type matches exactly. It returns the executions that started.
func (d *TriggerDispatcher) Dispatch(ctx context.Context, organizationID string, triggerType models.TriggerType, triggerData map[string]any) ([]*models.Execution, error) {
	logger := d.logger.With("organization_id", organizationID, "trigger_type", triggerType)

	workflows, err := d.persistence.WorkflowsByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	executions := make([]*models.Execution, 0)

	for _, workflow := range workflows {
		if !workflow.Active {
			continue
		}

		if workflow.Trigger == nil || workflow.Trigger.Trigger == nil {
			continue
		}

		if workflow.Trigger.Trigger.TriggerType != triggerType {
			continue
		}

		// TODO: evaluate workflow.Trigger.Trigger.Conditions against
		// triggerData before starting, once the rule evaluator grows
		// trigger-payload resolution.

		execution, err := d.executor.Execute(ctx, workflow.ID, triggerData)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to start workflow for trigger",
				"workflow_id", workflow.ID, "error", err)

			continue
		}

		if d.eventBus != nil {
			event := events.WorkflowTriggered{
				BaseEvent:      events.NewBaseEvent(events.WorkflowTriggeredEvent, workflow.ID),
				TriggerType:    string(triggerType),
				OrganizationID: organizationID,
				TriggerData:    triggerData,
			}

			publishErr := d.eventBus.Publish(ctx, workflow.ID, event)
			if publishErr != nil {
				logger.ErrorContext(ctx, "Failed to publish trigger event", "error", publishErr)
			}
		}

		executions = append(executions, execution)
	}

	logger.InfoContext(ctx, "Trigger dispatched", "matched", len(executions))

	return executions, nil
}
