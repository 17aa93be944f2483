// Package template renders action parameters against the execution context.
package template

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/meridianhq/flowline/pkg/models"
)

// RenderWithExecution renders input with the execution's accumulated context,
// trigger payload, and identity exposed as template data, e.g.
// "Hi {{.context.contact_name}}" or "{{.trigger_data.call_id}}".
func RenderWithExecution(input string, execution models.Execution) (any, error) {
	data := map[string]any{
		"context":      execution.Context,
		"trigger_data": execution.TriggerData,
		"execution": map[string]any{
			"id":          execution.ID,
			"workflow_id": execution.WorkflowID,
		},
	}

	return Render(input, data)
}

// RenderParameters renders every string-valued parameter through
// RenderWithExecution, leaving non-strings and non-template strings intact.
func RenderParameters(parameters map[string]any, execution models.Execution) (map[string]any, error) {
	rendered := make(map[string]any, len(parameters))

	for key, value := range parameters {
		str, ok := value.(string)
		if !ok || !strings.Contains(str, "{{") {
			rendered[key] = value

			continue
		}

		out, err := RenderWithExecution(str, execution)
		if err != nil {
			return nil, fmt.Errorf("failed to render parameter %q: %w", key, err)
		}

		rendered[key] = out
	}

	return rendered, nil
}

func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("parameter").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"rand": func(max int) int {
				if max <= 0 {
					return 0
				}

				num := make([]byte, 1)
				if _, err := rand.Read(num); err != nil {
					return 0
				}

				return int(num[0]) % max
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	// Structured output round-trips through JSON so templated objects and
	// arrays come back typed instead of as strings.
	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var parsed any
		if err := json.Unmarshal([]byte(result), &parsed); err == nil {
			return parsed, nil
		}
	}

	return result, nil
}
