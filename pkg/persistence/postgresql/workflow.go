package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/persistence"
)

// WorkflowRepository stores workflows with the node graph as JSONB columns.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const workflowColumns = `id, organization_id, name, description, active,
	trigger_node, nodes, version, execution_count, success_rate,
	last_executed_at, metadata, created_at, updated_at`

func (r *WorkflowRepository) scanWorkflow(row interface{ Scan(...any) error }) (*models.Workflow, error) {
	var (
		workflow       models.Workflow
		triggerJSON    []byte
		nodesJSON      []byte
		metadataJSON   []byte
		lastExecutedAt sql.NullTime
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.OrganizationID,
		&workflow.Name,
		&workflow.Description,
		&workflow.Active,
		&triggerJSON,
		&nodesJSON,
		&workflow.Version,
		&workflow.Stats.ExecutionCount,
		&workflow.Stats.SuccessRate,
		&lastExecutedAt,
		&metadataJSON,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(triggerJSON) > 0 {
		err = json.Unmarshal(triggerJSON, &workflow.Trigger)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger node: %w", err)
		}
	}

	if len(nodesJSON) > 0 {
		err = json.Unmarshal(nodesJSON, &workflow.Nodes)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
		}
	}

	if len(metadataJSON) > 0 {
		err = json.Unmarshal(metadataJSON, &workflow.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	if lastExecutedAt.Valid {
		at := lastExecutedAt.Time
		workflow.Stats.LastExecutedAt = &at
	}

	return &workflow, nil
}

func (r *WorkflowRepository) queryWorkflows(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}
	defer rows.Close()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate workflows: %w", err)
	}

	return workflows, nil
}

func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	query := "SELECT " + workflowColumns + " FROM workflows ORDER BY created_at"

	return r.queryWorkflows(ctx, query)
}

func (r *WorkflowRepository) GetByOrganization(ctx context.Context, organizationID string) ([]*models.Workflow, error) {
	query := "SELECT " + workflowColumns + " FROM workflows WHERE organization_id = $1 ORDER BY created_at"

	return r.queryWorkflows(ctx, query, organizationID)
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := "SELECT " + workflowColumns + " FROM workflows WHERE id = $1"

	workflow, err := r.scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return workflow, nil
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	triggerJSON, err := json.Marshal(workflow.Trigger)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to marshal trigger node: %w", err))
	}

	nodesJSON, err := json.Marshal(workflow.Nodes)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to marshal nodes: %w", err))
	}

	metadataJSON, err := json.Marshal(workflow.Metadata)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to marshal metadata: %w", err))
	}

	query := `
		INSERT INTO workflows (id, organization_id, name, description, active,
			trigger_node, nodes, version, execution_count, success_rate,
			last_executed_at, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			active = EXCLUDED.active,
			trigger_node = EXCLUDED.trigger_node,
			nodes = EXCLUDED.nodes,
			version = EXCLUDED.version,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`

	var lastExecutedAt *time.Time
	if workflow.Stats.LastExecutedAt != nil {
		lastExecutedAt = workflow.Stats.LastExecutedAt
	}

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.OrganizationID,
		workflow.Name,
		workflow.Description,
		workflow.Active,
		triggerJSON,
		nodesJSON,
		workflow.Version,
		workflow.Stats.ExecutionCount,
		workflow.Stats.SuccessRate,
		lastExecutedAt,
		metadataJSON,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

// RefreshStats recomputes the stats columns in one UPDATE so concurrent
// refreshes for the same workflow cannot interleave reads and writes.
func (r *WorkflowRepository) RefreshStats(ctx context.Context, workflowID string, at time.Time) error {
	query := `
		UPDATE workflows SET
			execution_count = agg.total,
			success_rate = CASE WHEN agg.total > 0
				THEN agg.succeeded::double precision / agg.total * 100
				ELSE 0 END,
			last_executed_at = $2,
			updated_at = NOW()
		FROM (
			SELECT
				COUNT(*) AS total,
				COUNT(*) FILTER (WHERE status = 'completed') AS succeeded
			FROM executions
			WHERE workflow_id = $1
		) AS agg
		WHERE workflows.id = $1
	`

	result, err := r.db.ExecContext(ctx, query, workflowID, at)
	if err != nil {
		return persistence.NewWorkflowError("RefreshStats", workflowID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("RefreshStats", workflowID, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("RefreshStats", workflowID, persistence.ErrWorkflowNotFound)
	}

	return nil
}
