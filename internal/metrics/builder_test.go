package metrics

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ratio/internal/models"
)

func fullDocument(t *testing.T) *models.RawDocument {
	t.Helper()
	payload := `{
		"US0378331005": {
			"profile": {
				"data": {
					"sector": "Technology",
					"industry": "Consumer Electronics",
					"businessSummary": "Apple Inc. designs, manufactures and markets smartphones.",
					"contacts": {
						"NAME": "Apple Inc",
						"COUNTRY": "United States",
						"WEBSITE": "https://www.apple.com"
					}
				}
			},
			"ratios": {
				"data": {
					"currentRatios": [
						{
							"name": "Per Share Data",
							"items": [
								{"id": "AREVPS", "value": 24.34},
								{"id": "TTMEPS", "value": 6.13},
								{"id": "ABVPS", "value": 4.25},
								{"id": "ACSHPS", "value": 3.85},
								{"id": "TTMFCFSHR", "value": 6.64}
							]
						},
						{
							"name": "Valuation",
							"items": [
								{"id": "APEEXCLXOR", "value": 28.4},
								{"id": "APR2REV", "value": 7.3},
								{"id": "APRICE2BK", "value": 45.1},
								{"id": "TTMPRCFPS", "value": 22.9},
								{"id": "APRFCFPS", "value": 26.6}
							]
						},
						{
							"name": "Margins",
							"items": [
								{"id": "TTMOPMGN", "value": 30.2},
								{"id": "TTMNPMGN", "value": 25.3},
								{"id": "AGROSMGN", "value": 43.8},
								{"id": "Focf2Rev_TTM", "value": 26.1}
							]
						}
					]
				}
			}
		}
	}`
	doc, err := models.ParseDocument([]byte(payload))
	require.NoError(t, err)
	return doc
}

func TestBuild_FullDocument(t *testing.T) {
	builder := NewBuilder(NewCatalog(), arbor.NewLogger())

	record, err := builder.Build(fullDocument(t))
	require.NoError(t, err)

	assert.Equal(t, "Apple Inc", record.CompanyOverview.Name)
	assert.Equal(t, "US0378331005", record.CompanyOverview.ISIN)
	assert.Equal(t, "Technology", record.CompanyOverview.Sector)
	assert.Equal(t, "United States", record.CompanyOverview.Country)

	assert.Len(t, record.FinancialMetrics, 5)
	assert.Len(t, record.ValuationRatios, 5)
	assert.Len(t, record.EfficiencyMetrics, 4)

	eps := record.FinancialMetrics["eps"]
	require.NotNil(t, eps.Value)
	assert.InDelta(t, 6.13, eps.Value.Float, 0.0001)
	assert.Equal(t, PeriodTTM, eps.Period)

	revenue := record.FinancialMetrics["revenue_per_share"]
	require.NotNil(t, revenue.Value)
	assert.Equal(t, PeriodAnnual, revenue.Period)

	pe := record.ValuationRatios["pe_ratio"]
	require.NotNil(t, pe.Value)
	assert.InDelta(t, 28.4, pe.Value.Float, 0.0001)
}

func TestBuild_MissingMetricIsNull(t *testing.T) {
	doc, err := models.ParseDocument([]byte(`{
		"TEST": {
			"profile": {"data": {}},
			"ratios": {"items": [
				{"id": "AREVPS", "value": 10.0},
				{"id": "APEEXCLXOR", "value": 15.0},
				{"id": "TTMOPMGN", "value": 20.0}
			]}
		}
	}`))
	require.NoError(t, err)

	builder := NewBuilder(NewCatalog(), arbor.NewLogger())
	record, err := builder.Build(doc)
	require.NoError(t, err)

	// Unresolved metrics still get an entry with a nil value
	assert.Len(t, record.FinancialMetrics, 5)
	eps := record.FinancialMetrics["eps"]
	assert.Nil(t, eps.Value)
	assert.Equal(t, PeriodUnknown, eps.Period)
}

func TestBuild_EmptySectionFails(t *testing.T) {
	// No margin identifiers at all: the efficiency section is unusable
	doc, err := models.ParseDocument([]byte(`{
		"TEST": {
			"profile": {"data": {}},
			"ratios": {"items": [
				{"id": "AREVPS", "value": 10.0},
				{"id": "APEEXCLXOR", "value": 15.0}
			]}
		}
	}`))
	require.NoError(t, err)

	builder := NewBuilder(NewCatalog(), arbor.NewLogger())
	record, err := builder.Build(doc)
	assert.Nil(t, record)

	var incomplete *DataIncompleteError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, GroupEfficiency, incomplete.Section)
	assert.Equal(t, "TEST", incomplete.ISIN)
}

func TestBuild_OverviewFallback(t *testing.T) {
	doc, err := models.ParseDocument([]byte(`{
		"XX0000000000": {
			"profile": {},
			"ratios": {"items": [
				{"id": "AREVPS", "value": 1.0},
				{"id": "APEEXCLXOR", "value": 2.0},
				{"id": "TTMOPMGN", "value": 3.0}
			]}
		}
	}`))
	require.NoError(t, err)

	builder := NewBuilder(NewCatalog(), arbor.NewLogger())
	record, err := builder.Build(doc)
	require.NoError(t, err)

	assert.Equal(t, "Unknown Company (XX0000000000)", record.CompanyOverview.Name)
	assert.Equal(t, "N/A", record.CompanyOverview.Sector)
	assert.Equal(t, "N/A", record.CompanyOverview.Website)
}

func TestBuild_DescriptionTruncated(t *testing.T) {
	long := strings.Repeat("a", 600)
	payload := fmt.Sprintf(`{
		"TEST": {
			"profile": {"data": {"businessSummary": %q}},
			"ratios": {"items": [
				{"id": "AREVPS", "value": 1.0},
				{"id": "APEEXCLXOR", "value": 2.0},
				{"id": "TTMOPMGN", "value": 3.0}
			]}
		}
	}`, long)
	doc, err := models.ParseDocument([]byte(payload))
	require.NoError(t, err)

	builder := NewBuilder(NewCatalog(), arbor.NewLogger())
	record, err := builder.Build(doc)
	require.NoError(t, err)

	assert.Len(t, record.CompanyOverview.Description, 503)
	assert.True(t, strings.HasSuffix(record.CompanyOverview.Description, "..."))
}
