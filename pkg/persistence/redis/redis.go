// Package redis provides Redis-backed persistence. Workflows and executions
// are stored as JSON values, step history as append-only lists.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const (
	workflowKeyPrefix  = "flowline:workflow:"
	workflowIndexKey   = "flowline:workflows"
	orgIndexKeyPrefix  = "flowline:org:"
	executionKeyPrefix = "flowline:execution:"
	executionIndexKey  = "flowline:wf-executions:"
	stepsKeyPrefix     = "flowline:steps:"
)

type Persistence struct {
	client *redis.Client
	logger *slog.Logger

	// Guards stats read-modify-write cycles per process. Multi-process
	// deployments should prefer the postgresql implementation for stats
	// accuracy.
	statsMu sync.Mutex
}

func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Persistence{client: client, logger: logger}, nil
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := p.client.SMembers(ctx, workflowIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow ids: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := p.WorkflowByID(ctx, id)
		if err != nil {
			if persistence.IsWorkflowNotFound(err) {
				continue
			}

			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

func (p *Persistence) WorkflowsByOrganization(ctx context.Context, organizationID string) ([]*models.Workflow, error) {
	ids, err := p.client.SMembers(ctx, orgIndexKeyPrefix+organizationID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list organization workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := p.WorkflowByID(ctx, id)
		if err != nil {
			if persistence.IsWorkflowNotFound(err) {
				continue
			}

			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	data, err := p.client.Get(ctx, workflowKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(data, &workflow)
	if err != nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	return &workflow, nil
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	data, err := json.Marshal(workflow)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, workflowKeyPrefix+workflow.ID, data, 0)
	pipe.SAdd(ctx, workflowIndexKey, workflow.ID)
	pipe.SAdd(ctx, orgIndexKeyPrefix+workflow.OrganizationID, workflow.ID)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	workflow, err := p.WorkflowByID(ctx, id)
	if err != nil {
		return err
	}

	pipe := p.client.TxPipeline()
	pipe.Del(ctx, workflowKeyPrefix+id)
	pipe.SRem(ctx, workflowIndexKey, id)
	pipe.SRem(ctx, orgIndexKeyPrefix+workflow.OrganizationID, id)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	return nil
}

func (p *Persistence) SaveExecution(ctx context.Context, execution *models.Execution) error {
	data, err := json.Marshal(execution)
	if err != nil {
		return persistence.NewExecutionError("SaveExecution", execution.ID, err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, executionKeyPrefix+execution.ID, data, 0)
	pipe.SAdd(ctx, executionIndexKey+execution.WorkflowID, execution.ID)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return persistence.NewExecutionError("SaveExecution", execution.ID, err)
	}

	return nil
}

func (p *Persistence) UpdateExecution(ctx context.Context, execution *models.Execution) error {
	exists, err := p.client.Exists(ctx, executionKeyPrefix+execution.ID).Result()
	if err != nil {
		return persistence.NewExecutionError("UpdateExecution", execution.ID, err)
	}

	if exists == 0 {
		return persistence.NewExecutionError("UpdateExecution", execution.ID, persistence.ErrExecutionNotFound)
	}

	return p.SaveExecution(ctx, execution)
}

func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.Execution, error) {
	data, err := p.client.Get(ctx, executionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("ExecutionByID", id, err)
	}

	var execution models.Execution

	err = json.Unmarshal(data, &execution)
	if err != nil {
		return nil, persistence.NewExecutionError("ExecutionByID", id, err)
	}

	return &execution, nil
}

func (p *Persistence) ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	ids, err := p.client.SMembers(ctx, executionIndexKey+workflowID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	executions := make([]*models.Execution, 0, len(ids))

	for _, id := range ids {
		execution, err := p.ExecutionByID(ctx, id)
		if err != nil {
			if persistence.IsExecutionNotFound(err) {
				continue
			}

			return nil, err
		}

		executions = append(executions, execution)
	}

	return executions, nil
}

func (p *Persistence) AppendExecutionStep(ctx context.Context, step *models.ExecutionStep) error {
	data, err := json.Marshal(step)
	if err != nil {
		return persistence.NewExecutionError("AppendExecutionStep", step.ExecutionID, err)
	}

	err = p.client.RPush(ctx, stepsKeyPrefix+step.ExecutionID, data).Err()
	if err != nil {
		return persistence.NewExecutionError("AppendExecutionStep", step.ExecutionID, err)
	}

	return nil
}

func (p *Persistence) ExecutionSteps(ctx context.Context, executionID string) ([]*models.ExecutionStep, error) {
	items, err := p.client.LRange(ctx, stepsKeyPrefix+executionID, 0, -1).Result()
	if err != nil {
		return nil, persistence.NewExecutionError("ExecutionSteps", executionID, err)
	}

	steps := make([]*models.ExecutionStep, 0, len(items))

	for _, item := range items {
		var step models.ExecutionStep

		err = json.Unmarshal([]byte(item), &step)
		if err != nil {
			return nil, persistence.NewExecutionError("ExecutionSteps", executionID, err)
		}

		steps = append(steps, &step)
	}

	return steps, nil
}

func (p *Persistence) RefreshWorkflowStats(ctx context.Context, workflowID string, at time.Time) error {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	workflow, err := p.WorkflowByID(ctx, workflowID)
	if err != nil {
		return err
	}

	executions, err := p.ExecutionsByWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}

	total := int64(len(executions))

	var succeeded int64

	for _, execution := range executions {
		if execution.Status == models.ExecutionStatusCompleted {
			succeeded++
		}
	}

	workflow.Stats.ExecutionCount = total
	if total > 0 {
		workflow.Stats.SuccessRate = float64(succeeded) / float64(total) * 100
	} else {
		workflow.Stats.SuccessRate = 0
	}

	lastExecuted := at
	workflow.Stats.LastExecutedAt = &lastExecuted
	workflow.UpdatedAt = time.Now().UTC()

	return p.SaveWorkflow(ctx, workflow)
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}
