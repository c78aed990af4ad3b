package metrics

// Metric is a canonical metric name. These names key the record sections
// and the snapshot JSON.
type Metric string

const (
	RevenuePerShare      Metric = "revenue_per_share"
	EPS                  Metric = "eps"
	BookValuePerShare    Metric = "book_value_per_share"
	CashPerShare         Metric = "cash_per_share"
	FreeCashFlowPerShare Metric = "free_cash_flow_per_share"

	PERatio             Metric = "pe_ratio"
	PriceToSales        Metric = "price_to_sales"
	PriceToBook         Metric = "price_to_book"
	PriceToCashFlow     Metric = "price_to_cash_flow"
	PriceToFreeCashFlow Metric = "price_to_free_cash_flow"

	OperatingMargin    Metric = "operating_margin"
	NetProfitMargin    Metric = "net_profit_margin"
	GrossMargin        Metric = "gross_margin"
	FreeCashFlowMargin Metric = "free_cash_flow_margin"
)

// Group is one of the three metric sections of a record
type Group string

const (
	GroupFinancial  Group = "financial_metrics"
	GroupValuation  Group = "valuation_ratios"
	GroupEfficiency Group = "efficiency_metrics"
)

// Groups lists the sections in record order
var Groups = []Group{GroupFinancial, GroupValuation, GroupEfficiency}

// Section membership, in output order
var (
	FinancialMetrics = []Metric{
		RevenuePerShare,
		EPS,
		BookValuePerShare,
		CashPerShare,
		FreeCashFlowPerShare,
	}
	ValuationRatios = []Metric{
		PERatio,
		PriceToSales,
		PriceToBook,
		PriceToCashFlow,
		PriceToFreeCashFlow,
	}
	EfficiencyMetrics = []Metric{
		OperatingMargin,
		NetProfitMargin,
		GrossMargin,
		FreeCashFlowMargin,
	}
)

// GroupMetrics returns the metrics belonging to a section
func GroupMetrics(g Group) []Metric {
	switch g {
	case GroupFinancial:
		return FinancialMetrics
	case GroupValuation:
		return ValuationRatios
	case GroupEfficiency:
		return EfficiencyMetrics
	default:
		return nil
	}
}

// Catalog maps canonical metrics to provider field identifiers, ordered by
// preference. Earlier aliases win when a document carries several variants
// of the same metric.
type Catalog struct {
	aliases map[Metric][]string
}

// NewCatalog builds the provider alias catalog. The alias lists are ordered:
// resolution tries each in turn and stops at the first identifier present in
// the document.
func NewCatalog() *Catalog {
	return &Catalog{
		aliases: map[Metric][]string{
			RevenuePerShare:      {"AREVPS", "TTMREVPS", "MRQREVPS", "LFYREVPS"},
			EPS:                  {"AEPSXCLXOR", "TTMEPS", "MRQEPS", "LFYEPS"},
			BookValuePerShare:    {"ABVPS", "TTMBVPS", "MRQBVPS", "LFYBVPS"},
			CashPerShare:         {"ACSHPS", "TTMCSHPS", "MRQCSHPS", "LFYCSHPS"},
			FreeCashFlowPerShare: {"TTMFCFSHR", "MRQFCFSHR", "LFYFCFSHR", "FCFPS"},

			PERatio:             {"APEEXCLXOR", "TTMPE", "MRQPE", "LFYPE"},
			PriceToSales:        {"APR2REV", "TTMPR2REV", "MRQPR2REV", "LFYPR2REV"},
			PriceToBook:         {"APRICE2BK", "TTMPRICE2BK", "MRQPRICE2BK", "LFYPRICE2BK"},
			PriceToCashFlow:     {"TTMPRCFPS", "APRFCFPS", "MRQPRCFPS", "LFYPRCFPS"},
			PriceToFreeCashFlow: {"APRFCFPS", "TTMPRFCFPS", "MRQPRFCFPS", "LFYPRFCFPS"},

			OperatingMargin:    {"TTMOPMGN", "AOPMGNPCT", "MRQOPMGN", "LFYOPMGN"},
			NetProfitMargin:    {"TTMNPMGN", "ANPMGNPCT", "MRQNPMGN", "LFYNPMGN"},
			GrossMargin:        {"AGROSMGN", "TTMGROSMGN", "MRQGROSMGN", "LFYGROSMGN"},
			FreeCashFlowMargin: {"Focf2Rev_TTM", "AFocf2Rev", "MRQFocf2Rev", "LFYFocf2Rev"},
		},
	}
}

// AliasesFor returns the ordered provider identifiers for a metric
func (c *Catalog) AliasesFor(m Metric) []string {
	return c.aliases[m]
}
