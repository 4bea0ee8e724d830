package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the providers.yaml file.
// The ordered provider list and the allow-list are hierarchical and
// easier to manage in YAML than env vars.
type YAMLConfig struct {
	Providers []ProviderConfig `yaml:"providers"`
	AllowList []string         `yaml:"allow_list"`
}

// ProviderConfig defines one provider in the chain. Order in the file is
// the order the chain tries them.
type ProviderConfig struct {
	Name     string `yaml:"name"`
	Timeout  string `yaml:"timeout,omitempty"` // e.g. "5s"; empty uses the global default
	Disabled bool   `yaml:"disabled,omitempty"`
}

// TimeoutOrDefault parses the per-provider timeout, falling back to def.
func (p *ProviderConfig) TimeoutOrDefault(def time.Duration) (time.Duration, error) {
	if p.Timeout == "" {
		return def, nil
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return 0, fmt.Errorf("provider %q has invalid timeout %q: %w", p.Name, p.Timeout, err)
	}
	return d, nil
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "providers.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	path := getEnv("CONFIG_FILE", "providers.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultYAMLConfig is the provider chain used when no file is present:
// all known providers, free tier first.
func DefaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		Providers: []ProviderConfig{
			{Name: "ip-api"},
			{Name: "ipwhois"},
			{Name: "freeipapi"},
		},
	}
}

// EnabledProviders returns the providers left after filtering disabled
// entries, preserving file order.
func (c *YAMLConfig) EnabledProviders() []ProviderConfig {
	if c == nil {
		return nil
	}
	var out []ProviderConfig
	for _, p := range c.Providers {
		if !p.Disabled {
			out = append(out, p)
		}
	}
	return out
}
