package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Number is the result of numeric coercion on a provider value. Values that
// parse cleanly carry a float; values that do not (percentage text, stray
// labels) keep the original string so downstream formatting can decide what
// to do with it.
type Number struct {
	Float  float64
	Raw    string
	Parsed bool
}

// ParsedNumber wraps a successfully coerced float
func ParsedNumber(f float64) *Number {
	return &Number{Float: f, Parsed: true}
}

// UnparsedNumber wraps a value that failed numeric coercion
func UnparsedNumber(raw string) *Number {
	return &Number{Raw: raw, Parsed: false}
}

// String renders the value for display
func (n *Number) String() string {
	if n == nil {
		return "N/A"
	}
	if n.Parsed {
		return strconv.FormatFloat(n.Float, 'f', -1, 64)
	}
	return n.Raw
}

// MarshalJSON emits parsed values as JSON numbers and unparsed values as
// their original strings, so snapshots read back exactly what resolution saw
func (n Number) MarshalJSON() ([]byte, error) {
	if n.Parsed {
		return json.Marshal(n.Float)
	}
	return json.Marshal(n.Raw)
}

// UnmarshalJSON accepts either form
func (n *Number) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n.Raw = s
		n.Parsed = false
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("value is neither number nor string: %w", err)
	}
	n.Float = f
	n.Parsed = true
	return nil
}

// MetricValue pairs a resolved metric value with the reporting period the
// matched alias implies. Value is nil when the metric was not found or was
// rejected by validation.
type MetricValue struct {
	Value  *Number `json:"value"`
	Period string  `json:"period"`
}

// CompanyOverview holds descriptive company fields extracted from the
// profile section. Missing fields degrade to "N/A".
type CompanyOverview struct {
	Name        string `json:"name"`
	ISIN        string `json:"isin"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	Country     string `json:"country"`
	Website     string `json:"website"`
	Description string `json:"description"`
}

// NormalizedRecord is the processed fundamentals record for one company:
// overview plus the three metric sections keyed by canonical metric name.
type NormalizedRecord struct {
	CompanyOverview   CompanyOverview        `json:"company_overview"`
	FinancialMetrics  map[string]MetricValue `json:"financial_metrics"`
	ValuationRatios   map[string]MetricValue `json:"valuation_ratios"`
	EfficiencyMetrics map[string]MetricValue `json:"efficiency_metrics"`
}

// Section returns a metric section by its JSON name, or nil for an unknown name
func (r *NormalizedRecord) Section(name string) map[string]MetricValue {
	if r == nil {
		return nil
	}
	switch name {
	case "financial_metrics":
		return r.FinancialMetrics
	case "valuation_ratios":
		return r.ValuationRatios
	case "efficiency_metrics":
		return r.EfficiencyMetrics
	default:
		return nil
	}
}

// CompanyReport is one entry of the compiled batch output: the processed
// record plus the optional AI narrative.
type CompanyReport struct {
	CompanyName   string            `json:"company_name"`
	ISIN          string            `json:"isin"`
	FinancialData *NormalizedRecord `json:"financial_data"`
	AIInsights    string            `json:"ai_insights,omitempty"`
}
