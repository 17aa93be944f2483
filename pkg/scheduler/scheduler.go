// Package scheduler fires scheduled-trigger workflows on their cron
// expressions.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/persistence"
	"github.com/meridianhq/flowline/pkg/workflow"
	"github.com/robfig/cron/v3"
)

// Scheduler keeps one cron entry per active workflow whose trigger type is
// scheduled. Sync reconciles the entries against the store; call it on a
// fixed interval with Run.
type Scheduler struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	executor    *workflow.Executor
	cron        *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID // workflow ID -> cron entry
	exprs   map[string]string       // workflow ID -> expression last scheduled
}

func NewScheduler(logger *slog.Logger, p persistence.Persistence, executor *workflow.Executor) *Scheduler {
	return &Scheduler{
		logger:      logger.With("module", "scheduler"),
		persistence: p,
		executor:    executor,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		)),
		entries: make(map[string]cron.EntryID),
		exprs:   make(map[string]string),
	}
}

// CronExpression extracts the cron expression from a workflow's trigger
// settings.
func CronExpression(wf *models.Workflow) (string, error) {
	if wf.Trigger == nil || wf.Trigger.Trigger == nil {
		return "", errors.New("workflow has no trigger node")
	}

	if wf.Trigger.Trigger.TriggerType != models.TriggerTypeScheduled {
		return "", errors.New("workflow trigger is not scheduled")
	}

	expr, _ := wf.Trigger.Trigger.Settings["cron"].(string)
	if expr == "" {
		return "", errors.New("scheduled trigger has no cron expression")
	}

	_, err := cron.ParseStandard(expr)
	if err != nil {
		return "", fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	return expr, nil
}

// Sync reconciles cron entries with the active scheduled workflows in the
// store. New workflows get entries, deactivated or deleted ones lose theirs,
// changed expressions are rescheduled.
func (s *Scheduler) Sync(ctx context.Context) error {
	workflows, err := s.persistence.Workflows(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)

	for _, wf := range workflows {
		if !wf.Active {
			continue
		}

		expr, err := CronExpression(wf)
		if err != nil {
			continue
		}

		seen[wf.ID] = true

		if s.exprs[wf.ID] == expr {
			continue
		}

		if entryID, ok := s.entries[wf.ID]; ok {
			s.cron.Remove(entryID)
		}

		workflowID := wf.ID

		entryID, err := s.cron.AddFunc(expr, func() {
			s.fire(workflowID)
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to schedule workflow", "workflow_id", wf.ID, "error", err)

			continue
		}

		s.entries[wf.ID] = entryID
		s.exprs[wf.ID] = expr
		s.logger.InfoContext(ctx, "Scheduled workflow", "workflow_id", wf.ID, "cron", expr)
	}

	for id, entryID := range s.entries {
		if !seen[id] {
			s.cron.Remove(entryID)
			delete(s.entries, id)
			delete(s.exprs, id)
			s.logger.InfoContext(ctx, "Unscheduled workflow", "workflow_id", id)
		}
	}

	return nil
}

func (s *Scheduler) fire(workflowID string) {
	ctx := context.Background()

	_, err := s.executor.Execute(ctx, workflowID, map[string]any{
		"scheduled_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to start scheduled workflow", "workflow_id", workflowID, "error", err)
	}
}

// ScheduledCount returns how many workflows currently hold a cron entry.
func (s *Scheduler) ScheduledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Run starts the cron loop and re-syncs on the given interval until the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context, syncInterval time.Duration) error {
	err := s.Sync(ctx)
	if err != nil {
		return err
	}

	s.cron.Start()
	defer s.cron.Stop()

	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.executor.Wait()

			return ctx.Err()
		case <-ticker.C:
			err := s.Sync(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "Scheduler sync failed", "error", err)
			}
		}
	}
}
