// Package builtin assembles the provider registry from configuration.
package builtin

import (
	"github.com/helixir/author-reconciliation-service/internal/config"
	"github.com/helixir/author-reconciliation-service/internal/providers"
	"github.com/helixir/author-reconciliation-service/internal/providers/dblp"
	"github.com/helixir/author-reconciliation-service/internal/providers/scopus"
)

// NewRegistry registers every known provider. Disabled providers stay listed
// and are refused when a run is requested.
func NewRegistry(cfg config.ProvidersConfig) *providers.Registry {
	return providers.NewRegistry(
		dblp.New(dblp.Config{
			BaseURL:         cfg.DBLP.BaseURL,
			Timeout:         cfg.DBLP.Timeout,
			RateLimit:       cfg.DBLP.RateLimit,
			MaxRetries:      cfg.DBLP.MaxRetries,
			MaxPublications: cfg.DBLP.MaxPublications,
			Enabled:         cfg.DBLP.Enabled,
		}),
		scopus.New(scopus.Config{
			BaseURL:         cfg.Scopus.BaseURL,
			APIKey:          cfg.Scopus.APIKey,
			Timeout:         cfg.Scopus.Timeout,
			RateLimit:       cfg.Scopus.RateLimit,
			MaxRetries:      cfg.Scopus.MaxRetries,
			MaxPublications: cfg.Scopus.MaxPublications,
			Enabled:         cfg.Scopus.Enabled,
		}),
	)
}
