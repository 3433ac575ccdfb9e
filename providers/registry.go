// Package providers loads the static registry of model providers and the
// services each of them exposes.
package providers

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Service types used by the hub.
const (
	ServiceSummary = "summary"
	ServiceUniProt = "uniprot"
	ServiceHealth  = "health"
)

type Provider struct {
	ID             string `json:"providerId"`
	Name           string `json:"providerName,omitempty"`
	BaseServiceURL string `json:"baseServiceUrl"`
}

type Service struct {
	Provider    string `json:"provider"`
	ServiceType string `json:"serviceType"`
	AccessPoint string `json:"accessPoint"`
}

// Registry is read-only after Load.
type Registry struct {
	providers map[string]Provider
	services  []Service
}

type registryFile struct {
	Providers []Provider `json:"providers"`
	Services  []Service  `json:"services"`
}

// Load reads and validates a registry JSON file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Registry from raw JSON.
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding registry: %w", err)
	}

	reg := &Registry{providers: make(map[string]Provider, len(file.Providers))}
	for _, p := range file.Providers {
		if p.ID == "" || p.BaseServiceURL == "" {
			return nil, fmt.Errorf("provider entry missing providerId or baseServiceUrl")
		}
		reg.providers[p.ID] = p
	}

	for _, s := range file.Services {
		if _, ok := reg.providers[s.Provider]; !ok {
			return nil, fmt.Errorf("service %q references unknown provider %q", s.ServiceType, s.Provider)
		}
		reg.services = append(reg.services, s)
	}

	return reg, nil
}

// Services returns the services of serviceType, optionally restricted to one
// provider or excluding one. Empty arguments are ignored.
func (r *Registry) Services(serviceType, provider, excludeProvider string) []Service {
	var out []Service
	for _, s := range r.services {
		if serviceType != "" && s.ServiceType != serviceType {
			continue
		}
		if provider != "" && s.Provider != provider {
			continue
		}
		if excludeProvider != "" && s.Provider == excludeProvider {
			continue
		}
		out = append(out, s)
	}
	return out
}

// BaseURL returns the base service URL of provider.
func (r *Registry) BaseURL(provider string) (string, bool) {
	p, ok := r.providers[provider]
	if !ok {
		return "", false
	}
	return p.BaseServiceURL, true
}

// ServiceURL joins the provider base URL, the access point and suffix.
func (r *Registry) ServiceURL(s Service, suffix string) (string, error) {
	base, ok := r.BaseURL(s.Provider)
	if !ok {
		return "", fmt.Errorf("unknown provider %q", s.Provider)
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(s.AccessPoint, "/") + suffix, nil
}

// ProviderIDs lists registered providers.
func (r *Registry) ProviderIDs() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}
