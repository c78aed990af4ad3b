package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ratio/internal/compare"
	"github.com/ternarybob/ratio/internal/models"
)

func testCompanyReport() models.CompanyReport {
	return models.CompanyReport{
		CompanyName: "Apple Inc",
		ISIN:        "US0378331005",
		FinancialData: &models.NormalizedRecord{
			CompanyOverview: models.CompanyOverview{
				Name:        "Apple Inc",
				ISIN:        "US0378331005",
				Sector:      "Technology",
				Industry:    "Consumer Electronics",
				Country:     "United States",
				Website:     "https://www.apple.com",
				Description: "Designs and sells consumer electronics.",
			},
			FinancialMetrics: map[string]models.MetricValue{
				"revenue_per_share": {Value: models.ParsedNumber(24.344), Period: "Trailing 12 Months"},
				"eps":               {Value: models.ParsedNumber(-1.5), Period: "Annual"},
				"cash_per_share":    {Value: nil, Period: "N/A"},
			},
			ValuationRatios: map[string]models.MetricValue{
				"pe_ratio":      {Value: models.ParsedNumber(12.0), Period: "Annual"},
				"price_to_book": {Value: models.ParsedNumber(45.2), Period: "Annual"},
			},
			EfficiencyMetrics: map[string]models.MetricValue{
				"operating_margin": {Value: models.ParsedNumber(30.1), Period: "Trailing 12 Months"},
				"gross_margin":     {Value: models.UnparsedNumber("43,8"), Period: "Annual"},
			},
		},
		AIInsights: "Strong balance sheet and durable brand.",
	}
}

func TestBuildCompanyMarkdown(t *testing.T) {
	md := BuildCompanyMarkdown(testCompanyReport())

	assert.True(t, strings.HasPrefix(md, "# Apple Inc Financial Report\n"))

	// Overview fields
	assert.Contains(t, md, "## Company Overview")
	assert.Contains(t, md, "**ISIN:** US0378331005")
	assert.Contains(t, md, "**Sector:** Technology")

	// Section headings
	assert.Contains(t, md, "## Financial Snapshot")
	assert.Contains(t, md, "### Key Financial Metrics")
	assert.Contains(t, md, "## Valuation Analysis")
	assert.Contains(t, md, "## Efficiency and Profitability")

	// Two-decimal formatting with period labels and interpretations
	assert.Contains(t, md, "| Revenue Per Share (Trailing 12 Months) | 24.34 | High revenue relative to share price |")
	assert.Contains(t, md, "| EPS (Annual) | -1.50 | Company is operating at a loss |")
	assert.Contains(t, md, "| PE Ratio (Annual) | 12.00 | Good: Stock might be cheap |")
	assert.Contains(t, md, "| Price To Book (Annual) | 45.20 | Potentially overvalued |")
	assert.Contains(t, md, "| Operating Margin (Trailing 12 Months) | 30.10 | Excellent: High profit from operations |")

	// Missing metrics render N/A without a period label
	assert.Contains(t, md, "| Cash Per Share | N/A | Data not available |")
	assert.Contains(t, md, "| Book Value Per Share | N/A | Data not available |")

	// Unparsed values keep text with commas converted to periods
	assert.Contains(t, md, "| Gross Margin (Annual) | 43.8 | Unable to interpret |")

	assert.Contains(t, md, "## AI Analysis")
	assert.Contains(t, md, "Strong balance sheet and durable brand.")
}

func TestBuildCompanyMarkdown_NoInsightsOmitsAISection(t *testing.T) {
	report := testCompanyReport()
	report.AIInsights = ""

	md := BuildCompanyMarkdown(report)

	assert.NotContains(t, md, "## AI Analysis")
}

func TestBuildCompanyMarkdown_NilFinancialData(t *testing.T) {
	md := BuildCompanyMarkdown(models.CompanyReport{CompanyName: "Ghost Co"})

	assert.Contains(t, md, "# Ghost Co Financial Report")
	assert.NotContains(t, md, "## Company Overview")
}

func TestBuildComparisonMarkdown(t *testing.T) {
	formatter := compare.NewFormatter(arbor.NewLogger())
	reports := []models.CompanyReport{
		testCompanyReport(),
		{
			CompanyName: "Microsoft Corp",
			ISIN:        "US5949181045",
			FinancialData: &models.NormalizedRecord{
				ValuationRatios: map[string]models.MetricValue{
					"pe_ratio": {Value: models.ParsedNumber(33.4), Period: "Trailing 12 Months"},
				},
			},
		},
	}

	md := BuildComparisonMarkdown(reports, "Both companies trade at premium multiples.", formatter)

	assert.True(t, strings.HasPrefix(md, "# Company Comparison Analysis\n"))
	assert.Contains(t, md, "## Financial Metrics Comparison")
	assert.Contains(t, md, "| Metric | Apple Inc | Microsoft Corp |")
	assert.Contains(t, md, "| PE Ratio | 12.00 | 33.40 |")
	assert.Contains(t, md, "## AI Analysis")
	assert.Contains(t, md, "Both companies trade at premium multiples.")
}

func TestMetricLabel(t *testing.T) {
	assert.Equal(t, "EPS", metricLabel("eps"))
	assert.Equal(t, "PE Ratio", metricLabel("pe_ratio"))
	assert.Equal(t, "Free Cash Flow Margin", metricLabel("free_cash_flow_margin"))
}
