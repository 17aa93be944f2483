package cmd

import (
	"log/slog"

	"github.com/meridianhq/flowline/pkg/config"
	"github.com/meridianhq/flowline/pkg/registry"
)

// NewRegistry builds the action registry with provider settings loaded from
// the given config path (defaults apply when the file is absent).
func NewRegistry(logger *slog.Logger, providersPath string) *registry.Registry {
	providers := config.LoadProvidersOrDefault(providersPath)

	r := registry.NewRegistry(logger)
	registry.RegisterDefaults(r, providers)

	return r
}
