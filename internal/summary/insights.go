package summary

import "github.com/AngelCh415/adinsights/internal/models"

type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingBelow     Rating = "below expectations"
)

type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

type Insight struct {
	CampaignID      string   `json:"campaign_id"`
	Campaign        string   `json:"campaign"`
	Performance     Rating   `json:"performance"`
	ROASTier        Tier     `json:"roas_tier"`
	CTRTier         Tier     `json:"ctr_tier"`
	CTRAboveAverage bool     `json:"ctr_above_average"`
	Revenue         float64  `json:"revenue"`
	Recommendations []string `json:"recommendations"`
}

// Assess rates a single campaign the way the campaign detail view does.
func Assess(r models.CampaignRecord) Insight {
	in := Insight{
		CampaignID:      r.ID,
		Campaign:        r.Campaign,
		ROASTier:        tier(r.ROAS, 3, 2),
		CTRTier:         tier(r.CTR, 2, 1),
		CTRAboveAverage: r.CTR > 2,
		Revenue:         r.Revenue(),
	}
	switch in.ROASTier {
	case TierHigh:
		in.Performance = RatingExcellent
	case TierMedium:
		in.Performance = RatingGood
	default:
		in.Performance = RatingBelow
	}

	if r.ROAS < 2 {
		in.Recommendations = append(in.Recommendations, "Consider reducing budget or optimizing targeting")
	} else {
		in.Recommendations = append(in.Recommendations, "Increase budget to scale performance")
	}
	if r.CTR < 1.5 {
		in.Recommendations = append(in.Recommendations, "Test new ad creatives to improve engagement")
	} else {
		in.Recommendations = append(in.Recommendations, "Current creatives are performing well")
	}
	in.Recommendations = append(in.Recommendations, "Monitor conversion rate trends for optimization opportunities")
	return in
}

func tier(v, high, medium float64) Tier {
	switch {
	case v > high:
		return TierHigh
	case v > medium:
		return TierMedium
	}
	return TierLow
}
