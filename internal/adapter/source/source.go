package source

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/mmcdole/gallery/internal/adapter"
	"github.com/mmcdole/gallery/internal/adapter/source/catapi"
	"github.com/mmcdole/gallery/internal/domain"
)

// NewClient creates the remote catalog client from catalog configuration.
// A missing API key is not an error here: requests fail as unauthorized
// without reaching the network, so cached data stays browsable.
func NewClient(cfg *adapter.CatalogConfig, logger *slog.Logger) (domain.CatalogClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("catalog config is nil")
	}

	base := cfg.BaseURL
	if base == "" {
		base = catapi.DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog base url %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("catalog base url must be http or https, got %q", base)
	}

	if cfg.APIKey == "" && logger != nil {
		logger.Warn("no catalog api key configured")
	}
	return catapi.NewClient(base, cfg.APIKey, logger, catapi.WithTimeout(cfg.Timeout)), nil
}
