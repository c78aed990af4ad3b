package report

import (
	"fmt"
	"strings"

	"github.com/ternarybob/ratio/internal/compare"
	"github.com/ternarybob/ratio/internal/metrics"
	"github.com/ternarybob/ratio/internal/models"
)

type section struct {
	heading     string
	tableTitle  string
	group       metrics.Group
	valueHeader string
	explanation string
}

var sections = []section{
	{
		heading:     "Financial Snapshot",
		tableTitle:  "Key Financial Metrics",
		group:       metrics.GroupFinancial,
		valueHeader: "Metric",
		explanation: "These metrics provide crucial insights into the company's financial health and performance. " +
			"Revenue per share indicates the company's sales relative to its outstanding shares, with higher values " +
			"suggesting stronger revenue generation. Earnings per Share (EPS) reflects profitability on a per-share " +
			"basis, with positive values indicating profitability and negative values signaling losses. Book value " +
			"per share represents the company's net asset value per share, offering insight into the underlying " +
			"value of the company. Cash per share and free cash flow per share provide information about the " +
			"company's liquidity and ability to generate excess cash, respectively.",
	},
	{
		heading:     "Valuation Analysis",
		tableTitle:  "Valuation Ratios",
		group:       metrics.GroupValuation,
		valueHeader: "Ratio",
		explanation: "These ratios help assess the company's valuation relative to its financial performance. " +
			"The Price-to-Earnings (P/E) ratio compares the stock price to earnings, with lower values potentially " +
			"indicating undervaluation. Price-to-Sales (P/S) and Price-to-Book (P/B) ratios offer perspectives on " +
			"valuation relative to revenue and book value. Price-to-Cash Flow (P/CF) and Price-to-Free Cash Flow " +
			"(P/FCF) ratios provide insights into how the market values the company's ability to generate cash. " +
			"These metrics are most useful when compared to industry averages or the company's historical values.",
	},
	{
		heading:     "Efficiency and Profitability",
		tableTitle:  "Efficiency Metrics",
		group:       metrics.GroupEfficiency,
		valueHeader: "Metric",
		explanation: "These metrics demonstrate the company's operational efficiency and profitability. Operating " +
			"margin shows the percentage of revenue remaining after operating expenses, indicating core business " +
			"profitability. Net profit margin reveals the percentage of revenue that translates into profit after " +
			"all expenses. Gross margin reflects the company's efficiency in production and pricing. The free cash " +
			"flow margin indicates the company's ability to generate cash relative to its revenue, which is crucial " +
			"for future growth and financial flexibility.",
	},
}

// BuildCompanyMarkdown assembles the full individual report for one company:
// overview, the three metric tables with interpretations, and the optional AI
// narrative section.
func BuildCompanyMarkdown(report models.CompanyReport) string {
	var b strings.Builder

	name := report.CompanyName
	if name == "" && report.FinancialData != nil {
		name = report.FinancialData.CompanyOverview.Name
	}

	fmt.Fprintf(&b, "# %s Financial Report\n\n", name)

	if report.FinancialData != nil {
		writeOverview(&b, report.FinancialData.CompanyOverview)
		for _, sec := range sections {
			writeMetricSection(&b, sec, report.FinancialData.Section(string(sec.group)))
		}
	}

	if report.AIInsights != "" {
		b.WriteString("## AI Analysis\n\n")
		b.WriteString(report.AIInsights)
		b.WriteString("\n")
	}

	return b.String()
}

// BuildComparisonMarkdown assembles the side-by-side comparison report for a
// batch of companies.
func BuildComparisonMarkdown(reports []models.CompanyReport, insights string, formatter *compare.Formatter) string {
	var b strings.Builder

	b.WriteString("# Company Comparison Analysis\n\n")
	b.WriteString("## Financial Metrics Comparison\n\n")

	writeTable(&b, formatter.Table(reports))

	if insights != "" {
		b.WriteString("## AI Analysis\n\n")
		b.WriteString(insights)
		b.WriteString("\n")
	}

	return b.String()
}

func writeOverview(b *strings.Builder, overview models.CompanyOverview) {
	b.WriteString("## Company Overview\n\n")
	fields := []struct {
		label string
		value string
	}{
		{"Name", overview.Name},
		{"ISIN", overview.ISIN},
		{"Sector", overview.Sector},
		{"Industry", overview.Industry},
		{"Country", overview.Country},
		{"Website", overview.Website},
		{"Description", overview.Description},
	}
	for _, f := range fields {
		fmt.Fprintf(b, "**%s:** %s\n\n", f.label, f.value)
	}
}

func writeMetricSection(b *strings.Builder, sec section, values map[string]models.MetricValue) {
	fmt.Fprintf(b, "## %s\n\n", sec.heading)
	fmt.Fprintf(b, "### %s\n\n", sec.tableTitle)

	rows := [][]string{{sec.valueHeader, "Value", "Interpretation"}}
	for _, metric := range metrics.GroupMetrics(sec.group) {
		mv := values[string(metric)]
		label := metricLabel(metric)
		if mv.Value != nil && mv.Period != "" {
			label = fmt.Sprintf("%s (%s)", label, mv.Period)
		}
		rows = append(rows, []string{label, formatValue(mv.Value), interpret(metric, mv.Value)})
	}
	writeTable(b, rows)

	b.WriteString(sec.explanation)
	b.WriteString("\n\n")
}

func writeTable(b *strings.Builder, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	for i, row := range rows {
		b.WriteString("| ")
		b.WriteString(strings.Join(row, " | "))
		b.WriteString(" |\n")
		if i == 0 {
			b.WriteString("|")
			b.WriteString(strings.Repeat(" --- |", len(row)))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
}

func formatValue(n *models.Number) string {
	if n == nil {
		return "N/A"
	}
	if n.Parsed {
		return fmt.Sprintf("%.2f", n.Float)
	}
	return strings.ReplaceAll(n.Raw, ",", ".")
}

// metricLabel renders a canonical metric name as a table label, keeping the
// common finance initialisms upper-case.
func metricLabel(m metrics.Metric) string {
	switch m {
	case metrics.EPS:
		return "EPS"
	case metrics.PERatio:
		return "PE Ratio"
	}
	words := strings.Split(string(m), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
