// Package main provides the flowline API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/meridianhq/flowline/pkg/eventbus"
	"github.com/meridianhq/flowline/pkg/persistence"
	"github.com/meridianhq/flowline/pkg/registry"
	"github.com/meridianhq/flowline/pkg/services"
	"github.com/meridianhq/flowline/pkg/web"
	"github.com/meridianhq/flowline/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
	executor    *workflow.Executor
}

func NewAPI(
	logger *slog.Logger,
	p persistence.Persistence,
	r *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	executor := workflow.NewExecutor(logger, p, r, workflow.WithEventBus(eventBus))

	return &API{
		logger:      logger,
		persistence: p,
		registry:    r,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		executor:    executor,
	}
}

func (a *API) App() *fiber.App {
	repository := workflow.NewRepository(a.persistence, a.registry)
	dispatcher := workflow.NewTriggerDispatcher(a.logger, a.persistence, a.executor).
		WithTriggerEventBus(a.eventBus)

	handlers := web.NewAPIHandlers(
		services.NewWorkflow(repository),
		services.NewExecution(a.persistence, a.executor, dispatcher),
		a.validate,
		a.registry,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowline API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}

// Drain waits for in-flight executions before shutdown.
func (a *API) Drain() {
	a.executor.Wait()
}
