package metrics

// Reporting period labels derived from provider identifier prefixes
const (
	PeriodAnnual  = "Annual"
	PeriodTTM     = "Trailing 12 Months"
	PeriodMRQ     = "Most Recent Quarter"
	PeriodLFY     = "Last Fiscal Year"
	PeriodUnknown = "N/A"
)

var periodPrefixes = map[string]string{
	"A":   PeriodAnnual,
	"TTM": PeriodTTM,
	"MRQ": PeriodMRQ,
	"LFY": PeriodLFY,
}

// ClassifyPeriod derives the reporting period from a provider identifier.
// Prefixes of length 3, 4, then 2 are tried before falling back to the
// first character; identifiers that match nothing classify as unknown.
func ClassifyPeriod(alias string) string {
	if alias == "" {
		return PeriodUnknown
	}

	for _, l := range []int{3, 4, 2} {
		if l > len(alias) {
			l = len(alias)
		}
		if period, ok := periodPrefixes[alias[:l]]; ok {
			return period
		}
	}

	if period, ok := periodPrefixes[alias[:1]]; ok {
		return period
	}
	return PeriodUnknown
}
