// Package main provides the flowline scheduler, which fires workflows with
// scheduled triggers on their cron expressions.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridianhq/flowline/pkg/cmd"
	"github.com/meridianhq/flowline/pkg/log"
	"github.com/meridianhq/flowline/pkg/scheduler"
	"github.com/meridianhq/flowline/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

func main() {
	logger := log.WithModule("scheduler")

	command := &cli.Command{
		Name:                  "flowline-scheduler",
		Usage:                 "Fire scheduled workflows on their cron expressions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL (postgres://, redis://, or a file path)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, memory)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "providers-config",
				Usage:   "Path to the providers YAML config",
				Value:   "./providers.yaml",
				Sources: cli.EnvVars("PROVIDERS_CONFIG"),
			},
			&cli.DurationFlag{
				Name:    "sync-interval",
				Usage:   "How often to reconcile cron entries with the store",
				Value:   30 * time.Second,
				Sources: cli.EnvVars("SYNC_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Flowline scheduler")

			registry := cmd.NewRegistry(logger, command.String("providers-config"))

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "flowline-scheduler", logger)
			if err != nil {
				return err
			}

			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			executor := workflow.NewExecutor(logger, persistence, registry, workflow.WithEventBus(eventBus))
			s := scheduler.NewScheduler(logger, persistence, executor)

			runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = s.Run(runCtx, command.Duration("sync-interval"))
			if errors.Is(err, context.Canceled) {
				logger.Info("Scheduler stopped")

				return nil
			}

			return err
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		logger.Error("Flowline scheduler exited with error", "error", err)
		os.Exit(1)
	}
}
