package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/persistence"
)

// ExecutionRepository stores execution records and their step history.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `id, workflow_id, trigger_data, status, current_node_id,
	path, context, error_message, started_at, completed_at`

func (r *ExecutionRepository) scanExecution(row interface{ Scan(...any) error }) (*models.Execution, error) {
	var (
		execution       models.Execution
		triggerDataJSON []byte
		pathJSON        []byte
		contextJSON     []byte
		completedAt     sql.NullTime
	)

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&triggerDataJSON,
		&execution.Status,
		&execution.CurrentNodeID,
		&pathJSON,
		&contextJSON,
		&execution.ErrorMessage,
		&execution.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(triggerDataJSON) > 0 {
		err = json.Unmarshal(triggerDataJSON, &execution.TriggerData)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger data: %w", err)
		}
	}

	if len(pathJSON) > 0 {
		err = json.Unmarshal(pathJSON, &execution.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal path: %w", err)
		}
	}

	if len(contextJSON) > 0 {
		err = json.Unmarshal(contextJSON, &execution.Context)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal context: %w", err)
		}
	}

	if completedAt.Valid {
		at := completedAt.Time
		execution.CompletedAt = &at
	}

	return &execution, nil
}

func (r *ExecutionRepository) marshalFields(execution *models.Execution) (triggerData, path, contextJSON []byte, err error) {
	triggerData, err = json.Marshal(execution.TriggerData)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	if execution.Path == nil {
		path = []byte("[]")
	} else {
		path, err = json.Marshal(execution.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal path: %w", err)
		}
	}

	if execution.Context == nil {
		contextJSON = []byte("{}")
	} else {
		contextJSON, err = json.Marshal(execution.Context)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal context: %w", err)
		}
	}

	return triggerData, path, contextJSON, nil
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	triggerData, path, contextJSON, err := r.marshalFields(execution)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	query := `
		INSERT INTO executions (id, workflow_id, trigger_data, status,
			current_node_id, path, context, error_message, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		triggerData,
		execution.Status,
		execution.CurrentNodeID,
		path,
		contextJSON,
		execution.ErrorMessage,
		execution.StartedAt,
		execution.CompletedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) Update(ctx context.Context, execution *models.Execution) error {
	triggerData, path, contextJSON, err := r.marshalFields(execution)
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, err)
	}

	query := `
		UPDATE executions SET
			trigger_data = $2,
			status = $3,
			current_node_id = $4,
			path = $5,
			context = $6,
			error_message = $7,
			completed_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		execution.ID,
		triggerData,
		execution.Status,
		execution.CurrentNodeID,
		path,
		contextJSON,
		execution.ErrorMessage,
		execution.CompletedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, err)
	}

	if affected == 0 {
		return persistence.NewExecutionError("Update", execution.ID, persistence.ErrExecutionNotFound)
	}

	return nil
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	query := "SELECT " + executionColumns + " FROM executions WHERE id = $1"

	execution, err := r.scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	return execution, nil
}

func (r *ExecutionRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	query := "SELECT " + executionColumns + " FROM executions WHERE workflow_id = $1 ORDER BY started_at"

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := r.scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate executions: %w", err)
	}

	return executions, nil
}

func (r *ExecutionRepository) AppendStep(ctx context.Context, step *models.ExecutionStep) error {
	var contextJSON []byte

	if step.Context != nil {
		data, err := json.Marshal(step.Context)
		if err != nil {
			return persistence.NewExecutionError("AppendStep", step.ExecutionID, err)
		}

		contextJSON = data
	}

	query := `
		INSERT INTO execution_steps (execution_id, seq, node_id, node_type,
			status, context, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		step.ExecutionID,
		step.Seq,
		step.NodeID,
		step.NodeType,
		step.Status,
		contextJSON,
		step.Error,
		step.StartedAt,
		step.CompletedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("AppendStep", step.ExecutionID, err)
	}

	return nil
}

func (r *ExecutionRepository) Steps(ctx context.Context, executionID string) ([]*models.ExecutionStep, error) {
	query := `
		SELECT execution_id, seq, node_id, node_type, status, context, error,
			started_at, completed_at
		FROM execution_steps
		WHERE execution_id = $1
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, persistence.NewExecutionError("Steps", executionID, err)
	}
	defer rows.Close()

	steps := make([]*models.ExecutionStep, 0)

	for rows.Next() {
		var (
			step        models.ExecutionStep
			contextJSON []byte
		)

		err = rows.Scan(
			&step.ExecutionID,
			&step.Seq,
			&step.NodeID,
			&step.NodeType,
			&step.Status,
			&contextJSON,
			&step.Error,
			&step.StartedAt,
			&step.CompletedAt,
		)
		if err != nil {
			return nil, persistence.NewExecutionError("Steps", executionID, err)
		}

		if len(contextJSON) > 0 {
			err = json.Unmarshal(contextJSON, &step.Context)
			if err != nil {
				return nil, persistence.NewExecutionError("Steps", executionID, err)
			}
		}

		steps = append(steps, &step)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewExecutionError("Steps", executionID, err)
	}

	return steps, nil
}
