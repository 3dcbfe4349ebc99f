package summary

import "github.com/AngelCh415/adinsights/internal/models"

type Kind int

const (
	KindCount Kind = iota
	KindCurrency
	KindPercent
	KindMultiplier
)

// Delta compares one metric between two periods. Change is a percentage and
// only meaningful when Valid is true.
type Delta struct {
	Metric   string  `json:"metric"`
	Kind     Kind    `json:"-"`
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Change   float64 `json:"change"`
	Valid    bool    `json:"valid"`
}

// Compare builds the period-over-period table in a fixed metric order.
func Compare(cur, prev models.SummaryStats) []Delta {
	return []Delta{
		delta("Impressions", KindCount, float64(cur.TotalImpressions), float64(prev.TotalImpressions)),
		delta("Clicks", KindCount, float64(cur.TotalClicks), float64(prev.TotalClicks)),
		delta("Conversions", KindCount, float64(cur.TotalConversions), float64(prev.TotalConversions)),
		delta("Cost", KindCurrency, cur.TotalCost, prev.TotalCost),
		delta("Revenue", KindCurrency, cur.TotalRevenue, prev.TotalRevenue),
		delta("Average CTR", KindPercent, cur.AvgCTR, prev.AvgCTR),
		delta("Average ROAS", KindMultiplier, cur.AvgROAS, prev.AvgROAS),
	}
}

// ChangePct is (cur-prev)/prev*100. A zero baseline gives 0 when cur is also
// zero and an invalid delta otherwise.
func ChangePct(cur, prev float64) (float64, bool) {
	if prev == 0 {
		if cur == 0 {
			return 0, true
		}
		return 0, false
	}
	return (cur - prev) / prev * 100, true
}

func delta(name string, k Kind, cur, prev float64) Delta {
	ch, ok := ChangePct(cur, prev)
	return Delta{Metric: name, Kind: k, Current: cur, Previous: prev, Change: ch, Valid: ok}
}
