package models

import (
	"strings"
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// ParseStatus normaliza y valida; ok=false para cualquier valor fuera del enum.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusActive, StatusPaused, StatusCompleted:
		return st, true
	}
	return "", false
}

// CampaignRecord is one row of campaign performance data. Revenue is never
// stored: it is always Cost * ROAS.
type CampaignRecord struct {
	ID          string  `json:"id"`
	Campaign    string  `json:"campaign"`
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	Conversions int     `json:"conversions"`
	CTR         float64 `json:"ctr"`
	Cost        float64 `json:"cost"`
	ROAS        float64 `json:"roas"`
	Status      Status  `json:"status"`
}

func (r CampaignRecord) Revenue() float64 { return r.Cost * r.ROAS }

type SortSpec struct {
	Column string
	Desc   bool
}

type Query struct {
	Search    string
	Statuses  []Status
	Sort      *SortSpec
	PageIndex int
	PageSize  int
}

type SummaryStats struct {
	TotalCampaigns     int     `json:"total_campaigns"`
	ActiveCampaigns    int     `json:"active_campaigns"`
	PausedCampaigns    int     `json:"paused_campaigns"`
	CompletedCampaigns int     `json:"completed_campaigns"`
	TotalImpressions   int     `json:"total_impressions"`
	TotalClicks        int     `json:"total_clicks"`
	TotalConversions   int     `json:"total_conversions"`
	TotalCost          float64 `json:"total_cost"`
	TotalRevenue       float64 `json:"total_revenue"`
	AvgCTR             float64 `json:"avg_ctr"`
	AvgROAS            float64 `json:"avg_roas"`
}

type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}
