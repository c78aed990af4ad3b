package interfaces

import (
	"context"

	"github.com/ternarybob/ratio/internal/models"
)

// MarketDataService provides company lookup and fundamental data retrieval
// from a trading platform. Implementations own session management and rate
// limiting; callers see only ISIN-keyed operations.
type MarketDataService interface {
	// SearchCompanies looks up listed companies matching the query text.
	// Results are capped at limit; a limit of 0 uses the provider default.
	SearchCompanies(ctx context.Context, query string, limit int) ([]models.CompanyMatch, error)

	// FetchDocument retrieves the raw fundamentals document (company profile
	// plus financial ratios) for a single ISIN.
	FetchDocument(ctx context.Context, isin string) (*models.RawDocument, error)
}
