// Package config loads provider settings for action handlers.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Providers carries the outbound-channel settings shared by action handlers:
// sender identities, CRM endpoint, voice caller ID.
type Providers struct {
	Email EmailProvider `yaml:"email"`
	SMS   SMSProvider   `yaml:"sms"`
	Voice VoiceProvider `yaml:"voice"`
	CRM   CRMProvider   `yaml:"crm"`
}

type EmailProvider struct {
	FromAddress string `yaml:"from_address"`
	FromName    string `yaml:"from_name"`
}

type SMSProvider struct {
	FromNumber string `yaml:"from_number"`
}

type VoiceProvider struct {
	CallerID string `yaml:"caller_id"`
	AgentID  string `yaml:"agent_id"`
}

type CRMProvider struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
}

// DefaultProviders returns the settings used when no config file is given.
func DefaultProviders() Providers {
	return Providers{
		Email: EmailProvider{FromAddress: "no-reply@flowline.dev", FromName: "Flowline"},
		SMS:   SMSProvider{FromNumber: "+15550100000"},
		Voice: VoiceProvider{CallerID: "+15550100001", AgentID: "default"},
		CRM:   CRMProvider{Provider: "internal"},
	}
}

// LoadProviders parses a YAML providers file.
func LoadProviders(path string) (Providers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Providers{}, fmt.Errorf("failed to read providers config %s: %w", path, err)
	}

	providers := DefaultProviders()
	if err := yaml.Unmarshal(data, &providers); err != nil {
		return Providers{}, fmt.Errorf("failed to parse providers config %s: %w", path, err)
	}

	return providers, nil
}

// LoadProvidersOrDefault falls back to defaults when path is empty or
// unreadable.
func LoadProvidersOrDefault(path string) Providers {
	if path == "" {
		return DefaultProviders()
	}

	providers, err := LoadProviders(path)
	if err != nil {
		return DefaultProviders()
	}

	return providers
}
