package summary

import "github.com/AngelCh415/adinsights/internal/models"

// Summarize reduces records to SummaryStats in one pass. Averages over an
// empty subset are 0.
func Summarize(records []models.CampaignRecord) models.SummaryStats {
	var s models.SummaryStats
	var sumCTR, sumROAS float64
	for _, r := range records {
		s.TotalCampaigns++
		switch r.Status {
		case models.StatusActive:
			s.ActiveCampaigns++
		case models.StatusPaused:
			s.PausedCampaigns++
		case models.StatusCompleted:
			s.CompletedCampaigns++
		}
		s.TotalImpressions += r.Impressions
		s.TotalClicks += r.Clicks
		s.TotalConversions += r.Conversions
		s.TotalCost += r.Cost
		s.TotalRevenue += r.Revenue()
		sumCTR += r.CTR
		sumROAS += r.ROAS
	}
	s.AvgCTR = safeDivF(sumCTR, float64(s.TotalCampaigns))
	s.AvgROAS = safeDivF(sumROAS, float64(s.TotalCampaigns))
	return s
}

func safeDivF(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
