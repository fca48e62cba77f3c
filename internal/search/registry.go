package search

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Registry is the ordered provider configuration. Order matters: the
// orchestrator preserves it when merging results.
type Registry struct {
	Providers []ProviderConfig `yaml:"providers"`
}

// ProviderConfig names one provider slot in the registry.
type ProviderConfig struct {
	Name     string `yaml:"name"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// DefaultRegistry is used when no registry file is configured.
func DefaultRegistry() *Registry {
	return &Registry{
		Providers: []ProviderConfig{
			{Name: "serper"},
			{Name: "customsearch"},
		},
	}
}

// LoadRegistry reads a provider registry from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "search: read registry %s", path)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, eris.Wrap(err, "search: parse registry")
	}
	if len(reg.Providers) == 0 {
		return nil, eris.New("search: registry lists no providers")
	}
	for _, p := range reg.Providers {
		if p.Name == "" {
			return nil, eris.New("search: registry entry missing name")
		}
	}

	return &reg, nil
}

// Enabled returns the enabled provider names in registry order.
func (r *Registry) Enabled() []string {
	var names []string
	for _, p := range r.Providers {
		if !p.Disabled {
			names = append(names, p.Name)
		}
	}
	return names
}
