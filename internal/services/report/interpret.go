package report

import (
	"github.com/ternarybob/ratio/internal/metrics"
	"github.com/ternarybob/ratio/internal/models"
)

// interpret returns a plain-language reading of a metric value for the
// report tables.
func interpret(metric metrics.Metric, value *models.Number) string {
	if value == nil {
		return "Data not available"
	}
	if !value.Parsed {
		return "Unable to interpret"
	}

	v := value.Float
	switch metric {
	case metrics.RevenuePerShare:
		switch {
		case v > 10:
			return "High revenue relative to share price"
		case v > 5:
			return "Moderate revenue relative to share price"
		default:
			return "Low revenue relative to share price"
		}
	case metrics.EPS:
		switch {
		case v > 0:
			return "Company is profitable"
		case v == 0:
			return "Company is breaking even"
		default:
			return "Company is operating at a loss"
		}
	case metrics.BookValuePerShare:
		if v > 0 {
			return "Positive net asset value"
		}
		return "Negative net asset value"
	case metrics.CashPerShare:
		switch {
		case v > 5:
			return "Strong cash position"
		case v > 1:
			return "Adequate cash reserves"
		default:
			return "Low cash reserves"
		}
	case metrics.FreeCashFlowPerShare:
		switch {
		case v > 1:
			return "Strong cash generation"
		case v > 0:
			return "Positive cash generation"
		default:
			return "Negative cash generation"
		}
	case metrics.PERatio:
		switch {
		case v < 15:
			return "Good: Stock might be cheap"
		case v < 25:
			return "Neutral: Stock price seems fair"
		default:
			return "Caution: Stock might be expensive"
		}
	case metrics.PriceToSales:
		switch {
		case v < 1:
			return "Good: Stock might be undervalued"
		case v < 2:
			return "Neutral: Stock price seems reasonable"
		default:
			return "Caution: Stock might be overvalued"
		}
	case metrics.PriceToBook:
		switch {
		case v < 1:
			return "Potentially undervalued"
		case v < 3:
			return "Fairly valued"
		default:
			return "Potentially overvalued"
		}
	case metrics.PriceToCashFlow, metrics.PriceToFreeCashFlow:
		switch {
		case v < 10:
			return "Potentially undervalued"
		case v < 20:
			return "Fairly valued"
		default:
			return "Potentially overvalued"
		}
	case metrics.OperatingMargin:
		switch {
		case v < 0:
			return "Bad: Company is losing money on operations"
		case v < 10:
			return "Caution: Low profit from operations"
		case v < 20:
			return "Good: Decent profit from operations"
		default:
			return "Excellent: High profit from operations"
		}
	case metrics.NetProfitMargin:
		switch {
		case v < 0:
			return "Company is not profitable"
		case v < 5:
			return "Low profitability"
		case v < 10:
			return "Moderate profitability"
		default:
			return "High profitability"
		}
	case metrics.GrossMargin:
		switch {
		case v > 40:
			return "High gross profitability"
		case v > 20:
			return "Average gross profitability"
		default:
			return "Low gross profitability"
		}
	case metrics.FreeCashFlowMargin:
		switch {
		case v > 10:
			return "Strong cash flow generation"
		case v > 5:
			return "Good cash flow generation"
		case v > 0:
			return "Positive cash flow generation"
		default:
			return "Negative cash flow generation"
		}
	default:
		return "No interpretation available"
	}
}
