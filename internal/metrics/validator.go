package metrics

import (
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ratio/internal/models"
)

// perShareMetrics cannot meaningfully be negative. EPS is excluded: negative
// earnings are real and must survive validation.
var perShareMetrics = map[Metric]struct{}{
	RevenuePerShare:      {},
	BookValuePerShare:    {},
	CashPerShare:         {},
	FreeCashFlowPerShare: {},
}

// Validator applies plausibility rules to resolved metric values. Rejected
// values become nil; suspicious-but-plausible values are logged and kept.
type Validator struct {
	logger arbor.ILogger
}

// NewValidator creates a metric validator
func NewValidator(logger arbor.ILogger) *Validator {
	return &Validator{logger: logger}
}

// Validate applies the rules for a metric's group and returns the value to
// record, or nil when the value is rejected
func (v *Validator) Validate(metric Metric, group Group, value *models.Number, isin string) *models.Number {
	if value == nil {
		return nil
	}

	switch group {
	case GroupFinancial:
		return v.validateFinancial(metric, value, isin)
	case GroupValuation:
		return v.validateValuation(metric, value, isin)
	case GroupEfficiency:
		return v.validateEfficiency(metric, value, isin)
	default:
		return value
	}
}

func (v *Validator) validateFinancial(metric Metric, value *models.Number, isin string) *models.Number {
	// Unparsed text passes through; range rules only apply to numbers
	if !value.Parsed {
		return value
	}

	if _, perShare := perShareMetrics[metric]; perShare && value.Float < 0 {
		v.logger.Warn().
			Str("isin", isin).
			Str("metric", string(metric)).
			Float64("value", value.Float).
			Msg("Rejecting negative per-share value")
		return nil
	}

	// EPS beyond this magnitude is a data error, not an outlier
	if metric == EPS && (value.Float > 1000 || value.Float < -1000) {
		v.logger.Warn().
			Str("isin", isin).
			Float64("value", value.Float).
			Msg("Rejecting implausible EPS value")
		return nil
	}

	return value
}

func (v *Validator) validateValuation(metric Metric, value *models.Number, isin string) *models.Number {
	if !value.Parsed {
		return value
	}

	if metric == PERatio {
		// Out-of-range P/E is flagged but kept: extreme multiples occur
		// around earnings inflections
		if value.Float < 0 || value.Float > 1000 {
			v.logger.Warn().
				Str("isin", isin).
				Float64("value", value.Float).
				Msg("P/E ratio outside typical range")
		}
		return value
	}

	if value.Float < 0 {
		v.logger.Warn().
			Str("isin", isin).
			Str("metric", string(metric)).
			Float64("value", value.Float).
			Msg("Rejecting negative valuation ratio")
		return nil
	}

	return value
}

func (v *Validator) validateEfficiency(metric Metric, value *models.Number, isin string) *models.Number {
	if value.Parsed {
		return value
	}

	// Margins sometimes arrive as percentage text ("11.06%"): convert to a
	// fractional value
	raw := strings.TrimSpace(value.Raw)
	if strings.HasSuffix(raw, "%") {
		numeral := strings.TrimSpace(strings.TrimSuffix(raw, "%"))
		f, err := strconv.ParseFloat(numeral, 64)
		if err != nil {
			v.logger.Warn().
				Str("isin", isin).
				Str("metric", string(metric)).
				Str("value", value.Raw).
				Msg("Rejecting unparsable percentage value")
			return nil
		}
		return models.ParsedNumber(f / 100)
	}

	v.logger.Warn().
		Str("isin", isin).
		Str("metric", string(metric)).
		Str("value", value.Raw).
		Msg("Rejecting non-numeric margin value")
	return nil
}
