package metrics

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ratio/internal/models"
)

// DataIncompleteError indicates a document yielded no values at all for one
// of the required metric sections. Individual null metrics are tolerated; a
// fully empty section means the document is unusable for reporting.
type DataIncompleteError struct {
	ISIN    string
	Section Group
}

func (e *DataIncompleteError) Error() string {
	return fmt.Sprintf("incomplete data for %s: no values resolved in %s", e.ISIN, e.Section)
}

// Builder turns raw provider documents into normalized records: overview
// extraction, metric resolution, period classification, and validation.
type Builder struct {
	catalog   *Catalog
	resolver  *Resolver
	validator *Validator
	logger    arbor.ILogger
}

// NewBuilder creates a record builder using the given alias catalog
func NewBuilder(catalog *Catalog, logger arbor.ILogger) *Builder {
	return &Builder{
		catalog:   catalog,
		resolver:  NewResolver(logger),
		validator: NewValidator(logger),
		logger:    logger,
	}
}

// Build produces the normalized record for a document. It fails only when a
// required metric section comes back completely empty; overview extraction
// always degrades to placeholders instead of failing.
func (b *Builder) Build(doc *models.RawDocument) (*models.NormalizedRecord, error) {
	if doc == nil {
		return nil, fmt.Errorf("no document to process")
	}

	record := &models.NormalizedRecord{
		CompanyOverview:   b.buildOverview(doc),
		FinancialMetrics:  make(map[string]models.MetricValue),
		ValuationRatios:   make(map[string]models.MetricValue),
		EfficiencyMetrics: make(map[string]models.MetricValue),
	}

	for _, group := range Groups {
		section := record.Section(string(group))
		resolved := 0

		for _, metric := range GroupMetrics(group) {
			value, alias := b.resolver.Resolve(doc, b.catalog.AliasesFor(metric))
			if value != nil {
				resolved++
			}
			value = b.validator.Validate(metric, group, value, doc.ISIN)
			section[string(metric)] = models.MetricValue{
				Value:  value,
				Period: ClassifyPeriod(alias),
			}
		}

		if resolved == 0 {
			return nil, &DataIncompleteError{ISIN: doc.ISIN, Section: group}
		}
	}

	b.logger.Debug().
		Str("isin", doc.ISIN).
		Str("company", record.CompanyOverview.Name).
		Msg("Built normalized record")

	return record, nil
}

const maxDescriptionLength = 500

// buildOverview extracts descriptive fields from the profile section.
// Every field degrades independently to a placeholder.
func (b *Builder) buildOverview(doc *models.RawDocument) models.CompanyOverview {
	overview := models.CompanyOverview{
		Name:        fmt.Sprintf("Unknown Company (%s)", doc.ISIN),
		ISIN:        doc.ISIN,
		Sector:      "N/A",
		Industry:    "N/A",
		Country:     "N/A",
		Website:     "N/A",
		Description: "N/A",
	}

	data, ok := doc.Profile.Get("data")
	if !ok {
		b.logger.Warn().Str("isin", doc.ISIN).Msg("Profile has no data section")
		return overview
	}

	if contacts, ok := data.Get("contacts"); ok {
		if name := contacts.StringAt("NAME", ""); name != "" {
			overview.Name = name
		}
		overview.Country = contacts.StringAt("COUNTRY", "N/A")
		overview.Website = contacts.StringAt("WEBSITE", "N/A")
	}

	overview.Sector = data.StringAt("sector", "N/A")
	overview.Industry = data.StringAt("industry", "N/A")

	if desc := data.StringAt("businessSummary", ""); desc != "" {
		overview.Description = truncate(desc, maxDescriptionLength)
	} else if desc := data.StringAt("description", ""); desc != "" {
		overview.Description = truncate(desc, maxDescriptionLength)
	}

	return overview
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
