package registry

import (
	"fmt"

	"github.com/meridianhq/flowline/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// ValidateActionParameters checks a node's parameters against the JSON schema
// its factory publishes. Runs at workflow-creation time; templated string
// values pass as-is since schemas only constrain shape and presence.
func (r *Registry) ValidateActionParameters(actionType string, parameters map[string]any) error {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return fmt.Errorf("unknown action type: %s", actionType)
	}

	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	if parameters == nil {
		parameters = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(parameters),
	)
	if err != nil {
		return fmt.Errorf("failed to validate %s parameters: %w", actionType, err)
	}

	if !result.Valid() {
		issues := make([]models.ValidationIssue, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, models.ValidationIssue{
				Field:   desc.Field(),
				Message: fmt.Sprintf("%s: %s", actionType, desc.Description()),
			})
		}

		return &models.ValidationError{Issues: issues}
	}

	return nil
}

// ValidateWorkflowActions validates every action node in a workflow.
func (r *Registry) ValidateWorkflowActions(workflow *models.Workflow) error {
	var issues []models.ValidationIssue

	for _, node := range workflow.Nodes {
		if node.Type != models.NodeTypeAction || node.Action == nil {
			continue
		}

		err := r.ValidateActionParameters(node.Action.ActionType, node.Action.Parameters)
		if err == nil {
			continue
		}

		var verr *models.ValidationError
		if ok := asValidationError(err, &verr); ok {
			for _, issue := range verr.Issues {
				issue.NodeID = node.ID
				issues = append(issues, issue)
			}

			continue
		}

		issues = append(issues, models.ValidationIssue{NodeID: node.ID, Message: err.Error()})
	}

	if len(issues) > 0 {
		return &models.ValidationError{Issues: issues}
	}

	return nil
}

func asValidationError(err error, target **models.ValidationError) bool {
	verr, ok := err.(*models.ValidationError)
	if ok {
		*target = verr
	}

	return ok
}
