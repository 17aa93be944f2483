package workflow

import (
	"context"
	"testing"

	"github.com/meridianhq/flowline/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestExecute_EmitsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
	})

	p := newTestPersistence(t)
	// The executor picks up its tracer at construction, after the provider
	// above is installed.
	executor := newTestExecutor(t, p)
	ctx := context.Background()

	workflow := &models.Workflow{
		ID:             "wf-1",
		Name:           "Traced run",
		OrganizationID: "org-1",
		Active:         true,
		Trigger:        triggerNode("action-1"),
		Nodes: []*models.Node{
			actionNode("action-1", "create_task", map[string]any{"title": "Trace me"}),
		},
	}
	saveWorkflow(t, p, workflow)

	_, err := executor.Execute(ctx, "wf-1", nil)
	require.NoError(t, err)

	executor.Wait()

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}

	assert.Contains(t, names, "workflow.execute")
	assert.Contains(t, names, "workflow.node")
}
