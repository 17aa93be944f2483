// Package file provides file-system persistence. Suited to local development
// and tests; one JSON file per workflow and execution, step history as
// append-only JSON lines.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/persistence"
)

type Persistence struct {
	root string

	// Guards read-modify-write cycles: stats refresh and step appends.
	mu sync.Mutex
}

func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	for _, dir := range []string{"workflows", "executions", "steps"} {
		err := os.MkdirAll(filepath.Join(cleanRoot, dir), 0o755)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	return &Persistence{root: cleanRoot}, nil
}

func (p *Persistence) workflowPath(id string) string {
	return filepath.Join(p.root, "workflows", id+".json")
}

func (p *Persistence) executionPath(id string) string {
	return filepath.Join(p.root, "executions", id+".json")
}

func (p *Persistence) stepsPath(executionID string) string {
	return filepath.Join(p.root, "steps", executionID+".jsonl")
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	tmp := path + ".tmp"

	err = os.WriteFile(tmp, data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	return os.Rename(tmp, path)
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	root := os.DirFS(filepath.Join(p.root, "workflows"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := strings.TrimSuffix(file, ".json")

		workflow, err := p.WorkflowByID(ctx, id)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (p *Persistence) WorkflowsByOrganization(ctx context.Context, organizationID string) ([]*models.Workflow, error) {
	all, err := p.Workflows(ctx)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.OrganizationID == organizationID {
			workflows = append(workflows, workflow)
		}
	}

	return workflows, nil
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	data, err := os.ReadFile(p.workflowPath(id))
	if err != nil {
		if os.IsNotExist(err) {
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

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	err := writeJSON(p.workflowPath(workflow.ID), workflow)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	err := os.Remove(p.workflowPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	return nil
}

func (p *Persistence) SaveExecution(_ context.Context, execution *models.Execution) error {
	err := writeJSON(p.executionPath(execution.ID), execution)
	if err != nil {
		return persistence.NewExecutionError("SaveExecution", execution.ID, err)
	}

	return nil
}

func (p *Persistence) UpdateExecution(ctx context.Context, execution *models.Execution) error {
	_, err := p.ExecutionByID(ctx, execution.ID)
	if err != nil {
		return err
	}

	err = writeJSON(p.executionPath(execution.ID), execution)
	if err != nil {
		return persistence.NewExecutionError("UpdateExecution", execution.ID, err)
	}

	return nil
}

func (p *Persistence) ExecutionByID(_ context.Context, id string) (*models.Execution, error) {
	data, err := os.ReadFile(p.executionPath(id))
	if err != nil {
		if os.IsNotExist(err) {
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
	root := os.DirFS(filepath.Join(p.root, "executions"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	executions := make([]*models.Execution, 0)

	for _, file := range jsonFiles {
		id := strings.TrimSuffix(file, ".json")

		execution, err := p.ExecutionByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if execution.WorkflowID == workflowID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.Before(executions[j].StartedAt)
	})

	return executions, nil
}

func (p *Persistence) AppendExecutionStep(_ context.Context, step *models.ExecutionStep) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.Marshal(step)
	if err != nil {
		return persistence.NewExecutionError("AppendExecutionStep", step.ExecutionID, err)
	}

	file, err := os.OpenFile(p.stepsPath(step.ExecutionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return persistence.NewExecutionError("AppendExecutionStep", step.ExecutionID, err)
	}
	defer file.Close()

	_, err = file.Write(append(data, '\n'))
	if err != nil {
		return persistence.NewExecutionError("AppendExecutionStep", step.ExecutionID, err)
	}

	return nil
}

func (p *Persistence) ExecutionSteps(_ context.Context, executionID string) ([]*models.ExecutionStep, error) {
	file, err := os.Open(p.stepsPath(executionID))
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.ExecutionStep{}, nil
		}

		return nil, persistence.NewExecutionError("ExecutionSteps", executionID, err)
	}
	defer file.Close()

	steps := make([]*models.ExecutionStep, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var step models.ExecutionStep

		err = json.Unmarshal(line, &step)
		if err != nil {
			return nil, persistence.NewExecutionError("ExecutionSteps", executionID, err)
		}

		steps = append(steps, &step)
	}

	err = scanner.Err()
	if err != nil {
		return nil, persistence.NewExecutionError("ExecutionSteps", executionID, err)
	}

	return steps, nil
}

func (p *Persistence) RefreshWorkflowStats(ctx context.Context, workflowID string, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

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

	err = writeJSON(p.workflowPath(workflow.ID), workflow)
	if err != nil {
		return persistence.NewWorkflowError("RefreshWorkflowStats", workflowID, err)
	}

	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	_, err := os.Stat(p.root)
	if os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return err
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}
