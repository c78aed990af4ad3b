package compare

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ratio/internal/models"
)

func sampleReport(name, isin string, pe float64) models.CompanyReport {
	return models.CompanyReport{
		CompanyName: name,
		ISIN:        isin,
		FinancialData: &models.NormalizedRecord{
			CompanyOverview: models.CompanyOverview{Name: name, ISIN: isin},
			FinancialMetrics: map[string]models.MetricValue{
				"eps":               {Value: models.ParsedNumber(6.13), Period: "Trailing 12 Months"},
				"revenue_per_share": {Value: models.ParsedNumber(24.34), Period: "Annual"},
			},
			ValuationRatios: map[string]models.MetricValue{
				"pe_ratio":      {Value: models.ParsedNumber(pe), Period: "Annual"},
				"price_to_book": {Value: nil, Period: "N/A"},
			},
			EfficiencyMetrics: map[string]models.MetricValue{
				"operating_margin": {Value: models.ParsedNumber(0.302), Period: "Trailing 12 Months"},
			},
		},
	}
}

func TestTable_Layout(t *testing.T) {
	f := NewFormatter(arbor.NewLogger())

	table := f.Table([]models.CompanyReport{
		sampleReport("Apple Inc", "US0378331005", 28.4),
		sampleReport("Microsoft Corp", "US5949181045", 34.1),
	})

	require.Len(t, table, 9) // header + 8 metric rows
	assert.Equal(t, []string{"Metric", "Apple Inc", "Microsoft Corp"}, table[0])

	assert.Equal(t, "PE Ratio", table[1][0])
	assert.Equal(t, "28.40", table[1][1])
	assert.Equal(t, "34.10", table[1][2])
}

func TestTable_MissingValuesRenderNA(t *testing.T) {
	f := NewFormatter(arbor.NewLogger())

	table := f.Table([]models.CompanyReport{sampleReport("Apple Inc", "US0378331005", 28.4)})

	for _, row := range table[1:] {
		switch row[0] {
		case "Price to Book", "Net Profit Margin (%)", "Gross Margin (%)":
			assert.Equal(t, "N/A", row[1], "row %s", row[0])
		}
	}
}

func TestTable_NilRecordNeverPanics(t *testing.T) {
	f := NewFormatter(arbor.NewLogger())

	table := f.Table([]models.CompanyReport{{CompanyName: "Broken Corp"}})
	require.Len(t, table, 9)
	assert.Equal(t, "N/A", table[1][1])
}

func TestTable_UnparsedValueRendersNA(t *testing.T) {
	f := NewFormatter(arbor.NewLogger())

	report := sampleReport("Apple Inc", "US0378331005", 28.4)
	report.FinancialData.FinancialMetrics["eps"] = models.MetricValue{
		Value:  models.UnparsedNumber("n/m"),
		Period: "Annual",
	}

	table := f.Table([]models.CompanyReport{report})
	for _, row := range table[1:] {
		if row[0] == "EPS" {
			assert.Equal(t, "N/A", row[1])
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	f := NewFormatter(arbor.NewLogger())

	prompt, err := f.BuildPrompt("Compare {company_names} on fundamentals.", []models.CompanyReport{
		sampleReport("Apple Inc", "US0378331005", 28.4),
		sampleReport("Microsoft Corp", "US5949181045", 34.1),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "Compare Apple Inc, Microsoft Corp on fundamentals."))
	assert.Contains(t, prompt, `"valuation_ratios"`)
	assert.Contains(t, prompt, `"pe_ratio"`)
	// Overview fields stay out of the prompt payload
	assert.NotContains(t, prompt, `"company_overview"`)
}

func TestBuildPrompt_NoUsableCompanies(t *testing.T) {
	f := NewFormatter(arbor.NewLogger())

	_, err := f.BuildPrompt("Compare.", []models.CompanyReport{{CompanyName: "Broken Corp"}})
	assert.Error(t, err)
}
