package deal

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/meridianhq/flowline/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealAction_Execute(t *testing.T) {
	action, err := NewFactory().Create(map[string]any{
		"name":  "Acme renewal",
		"stage": "qualified",
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	delta, err := action.Execute(context.Background(), models.Execution{ID: "exec-1"}, logger)
	require.NoError(t, err)

	assert.Equal(t, true, delta["deal_created"])
	assert.NotEmpty(t, delta["deal_id"])
}

func TestDealAction_MissingName(t *testing.T) {
	action, err := NewFactory().Create(nil)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	_, err = action.Execute(context.Background(), models.Execution{}, logger)
	require.Error(t, err)
}
