package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProviders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "providers.yaml")

	content := `
email:
  from_address: hello@acme.com
  from_name: Acme
sms:
  from_number: "+15559990000"
crm:
  provider: hubspot
  base_url: https://api.hubspot.example
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	providers, err := LoadProviders(path)
	require.NoError(t, err)

	assert.Equal(t, "hello@acme.com", providers.Email.FromAddress)
	assert.Equal(t, "Acme", providers.Email.FromName)
	assert.Equal(t, "+15559990000", providers.SMS.FromNumber)
	assert.Equal(t, "hubspot", providers.CRM.Provider)

	// Unset sections keep their defaults.
	assert.Equal(t, DefaultProviders().Voice.CallerID, providers.Voice.CallerID)
}

func TestLoadProvidersOrDefault(t *testing.T) {
	providers := LoadProvidersOrDefault("")
	assert.Equal(t, DefaultProviders(), providers)

	providers = LoadProvidersOrDefault("/nonexistent/providers.yaml")
	assert.Equal(t, DefaultProviders(), providers)
}
