package compare

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ratio/internal/models"
)

// displayRow maps a table label to the record section and metric key it
// reads from
type displayRow struct {
	Label   string
	Section string
	Key     string
}

// Comparison table rows in display order. Not every metric makes the table;
// these are the ones that read well side by side.
var displayRows = []displayRow{
	{"PE Ratio", "valuation_ratios", "pe_ratio"},
	{"Price to Book", "valuation_ratios", "price_to_book"},
	{"Price to Sales", "valuation_ratios", "price_to_sales"},
	{"Operating Margin (%)", "efficiency_metrics", "operating_margin"},
	{"Net Profit Margin (%)", "efficiency_metrics", "net_profit_margin"},
	{"Gross Margin (%)", "efficiency_metrics", "gross_margin"},
	{"EPS", "financial_metrics", "eps"},
	{"Revenue Per Share", "financial_metrics", "revenue_per_share"},
}

// Formatter renders multi-company comparison tables and the data payload for
// comparison analysis prompts. Missing or non-numeric values always render
// as N/A; a malformed record never aborts a comparison.
type Formatter struct {
	logger arbor.ILogger
}

// NewFormatter creates a comparison formatter
func NewFormatter(logger arbor.ILogger) *Formatter {
	return &Formatter{logger: logger}
}

// Table builds the comparison matrix: a header row of company names followed
// by one row per display metric
func (f *Formatter) Table(reports []models.CompanyReport) [][]string {
	header := make([]string, 0, len(reports)+1)
	header = append(header, "Metric")
	for _, report := range reports {
		header = append(header, report.CompanyName)
	}

	table := [][]string{header}
	for _, row := range displayRows {
		cells := make([]string, 0, len(reports)+1)
		cells = append(cells, row.Label)
		for _, report := range reports {
			cells = append(cells, f.cell(report, row))
		}
		table = append(table, cells)
	}
	return table
}

func (f *Formatter) cell(report models.CompanyReport, row displayRow) string {
	section := report.FinancialData.Section(row.Section)
	if section == nil {
		return "N/A"
	}
	metric, ok := section[row.Key]
	if !ok || metric.Value == nil || !metric.Value.Parsed {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", metric.Value.Float)
}

// BuildPrompt assembles the comparison analysis prompt: the template followed
// by the metric sections of every company, serialized as indented JSON. The
// company overview stays out of the payload to keep the prompt focused on
// numbers.
func (f *Formatter) BuildPrompt(template string, reports []models.CompanyReport) (string, error) {
	companies := make(map[string]map[string]map[string]models.MetricValue, len(reports))
	names := make([]string, 0, len(reports))

	for _, report := range reports {
		if report.FinancialData == nil {
			f.logger.Warn().Str("company", report.CompanyName).Msg("Skipping company without financial data in comparison prompt")
			continue
		}
		names = append(names, report.CompanyName)
		companies[report.CompanyName] = map[string]map[string]models.MetricValue{
			"financial_metrics":  report.FinancialData.FinancialMetrics,
			"valuation_ratios":   report.FinancialData.ValuationRatios,
			"efficiency_metrics": report.FinancialData.EfficiencyMetrics,
		}
	}

	if len(companies) == 0 {
		return "", fmt.Errorf("no companies with financial data to compare")
	}

	payload, err := json.MarshalIndent(companies, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize comparison data: %w", err)
	}

	prompt := strings.ReplaceAll(template, "{company_names}", strings.Join(names, ", "))
	return prompt + "\n" + string(payload), nil
}
