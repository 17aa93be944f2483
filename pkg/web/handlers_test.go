package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/meridianhq/flowline/pkg/config"
	"github.com/meridianhq/flowline/pkg/models"
	"github.com/meridianhq/flowline/pkg/persistence/file"
	"github.com/meridianhq/flowline/pkg/registry"
	"github.com/meridianhq/flowline/pkg/services"
	"github.com/meridianhq/flowline/pkg/web"
	"github.com/meridianhq/flowline/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	app      *fiber.App
	executor *workflow.Executor
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	p, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	reg := registry.NewRegistry(logger)
	registry.RegisterDefaults(reg, config.DefaultProviders())

	repo := workflow.NewRepository(p, reg)
	executor := workflow.NewExecutor(logger, p, reg, workflow.WithMaxDelay(10*time.Millisecond))
	dispatcher := workflow.NewTriggerDispatcher(logger, p, executor)

	handlers := web.NewAPIHandlers(
		services.NewWorkflow(repo),
		services.NewExecution(p, executor, dispatcher),
		validator.New(validator.WithRequiredStructEnabled()),
		reg,
	)

	app := fiber.New()
	web.RegisterRoutes(app, handlers)

	return &testApp{app: app, executor: executor}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	return req
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target))
}

func createRequestBody() web.CreateWorkflowRequest {
	return web.CreateWorkflowRequest{
		Name:           "Welcome sequence",
		Description:    "Greets new contacts",
		OrganizationID: "org-1",
		Trigger: &models.Node{
			ID:          "trigger-1",
			Type:        models.NodeTypeTrigger,
			Connections: []string{"action-1"},
			Trigger:     &models.TriggerConfig{TriggerType: models.TriggerTypeContactAdded},
		},
		Nodes: []*models.Node{
			{
				ID:   "action-1",
				Type: models.NodeTypeAction,
				Action: &models.ActionConfig{
					ActionType: "create_task",
					Parameters: map[string]any{"title": "Say hello"},
				},
			},
		},
	}
}

func createWorkflow(t *testing.T, env *testApp) models.Workflow {
	t.Helper()

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/workflows", createRequestBody()))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Workflow
	decodeBody(t, resp, &created)

	return created
}

func TestCreateWorkflow(t *testing.T) {
	env := setupTestApp(t)

	created := createWorkflow(t, env)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Welcome sequence", created.Name)
	assert.False(t, created.Active)
}

func TestCreateWorkflow_InvalidGraph(t *testing.T) {
	env := setupTestApp(t)

	body := createRequestBody()
	body.Trigger.Connections = []string{"ghost-node"}

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/workflows", body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateWorkflow_MissingName(t *testing.T) {
	env := setupTestApp(t)

	body := createRequestBody()
	body.Name = ""

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/workflows", body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetWorkflow_NotFound(t *testing.T) {
	env := setupTestApp(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/workflows/ghost", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateWorkflow(t *testing.T) {
	env := setupTestApp(t)
	created := createWorkflow(t, env)

	name := "Welcome sequence v2"
	resp, err := env.app.Test(jsonRequest(t, http.MethodPatch, "/workflows/"+created.ID, web.UpdateWorkflowRequest{
		Name: &name,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Workflow
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Welcome sequence v2", updated.Name)
	assert.Equal(t, 2, updated.Version)
}

func TestUpdateWorkflow_NotFound(t *testing.T) {
	env := setupTestApp(t)

	name := "Renamed"
	resp, err := env.app.Test(jsonRequest(t, http.MethodPatch, "/workflows/ghost", web.UpdateWorkflowRequest{
		Name: &name,
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteWorkflow_NotRouted(t *testing.T) {
	env := setupTestApp(t)
	created := createWorkflow(t, env)

	// Workflows are soft-disabled via deactivate, never hard-deleted.
	resp, err := env.app.Test(httptest.NewRequest(http.MethodDelete, "/workflows/"+created.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/workflows/"+created.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestActivateAndExecuteWorkflow(t *testing.T) {
	env := setupTestApp(t)
	created := createWorkflow(t, env)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/workflows/"+created.ID+"/activate", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/workflows/"+created.ID+"/execute", web.ExecuteWorkflowRequest{
		TriggerData: map[string]any{"contact_id": "c-1"},
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var execution models.Execution
	decodeBody(t, resp, &execution)
	assert.Equal(t, models.ExecutionStatusRunning, execution.Status)

	env.executor.Wait()

	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/executions/"+execution.ID, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var final models.Execution
	decodeBody(t, resp, &final)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)

	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/executions/"+execution.ID+"/steps", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stepsBody struct {
		Steps []models.ExecutionStep `json:"steps"`
	}
	decodeBody(t, resp, &stepsBody)
	assert.Len(t, stepsBody.Steps, 2)
}

func TestExecuteWorkflow_Inactive(t *testing.T) {
	env := setupTestApp(t)
	created := createWorkflow(t, env)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/workflows/"+created.ID+"/execute", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTrigger(t *testing.T) {
	env := setupTestApp(t)
	created := createWorkflow(t, env)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/workflows/"+created.ID+"/activate", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/triggers/contact_added", web.TriggerRequest{
		OrganizationID: "org-1",
		Data:           map[string]any{"contact_id": "c-1"},
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var triggerResp web.TriggerResponse
	decodeBody(t, resp, &triggerResp)
	assert.Equal(t, 1, triggerResp.Matched)

	env.executor.Wait()
}

func TestTrigger_UnknownType(t *testing.T) {
	env := setupTestApp(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/triggers/meteor_strike", web.TriggerRequest{
		OrganizationID: "org-1",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	env := setupTestApp(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListWorkflows(t *testing.T) {
	env := setupTestApp(t)
	createWorkflow(t, env)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/workflows/?organization_id=org-1", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Workflows  []models.Workflow `json:"workflows"`
		TotalCount int               `json:"total_count"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 1, body.TotalCount)
}
