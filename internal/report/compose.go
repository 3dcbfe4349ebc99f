package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AngelCh415/adinsights/internal/models"
	"github.com/AngelCh415/adinsights/internal/summary"
)

const (
	DefaultTitle       = "Campaign Performance Report"
	DefaultWeeklyTitle = "Weekly Summary Report"
	dateLayout         = "2006-01-02"
	stampLayout        = "2006-01-02 15:04:05 MST"
)

// ErrUnsupportedValue marks a NaN or infinite number that cannot be rendered.
var ErrUnsupportedValue = errors.New("unsupported value")

type Options struct {
	Title  string
	Period *models.Period
	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// CampaignColumns is the fixed column order of the campaign table.
var CampaignColumns = []Column{
	{Header: "Campaign", Width: 3.2, Align: AlignLeft},
	{Header: "Impressions", Width: 1.6, Align: AlignRight},
	{Header: "Clicks", Width: 1.3, Align: AlignRight},
	{Header: "Conversions", Width: 1.5, Align: AlignRight},
	{Header: "CTR %", Width: 1.1, Align: AlignRight},
	{Header: "Cost", Width: 1.6, Align: AlignRight},
	{Header: "Revenue", Width: 1.7, Align: AlignRight},
	{Header: "ROAS", Width: 1.0, Align: AlignRight},
	{Header: "Status", Width: 1.3, Align: AlignLeft},
}

// Compose builds the campaign report: metadata, summary, campaign table.
// stats must come from the same records; that is not checked here.
func Compose(records []models.CampaignRecord, stats models.SummaryStats, opts Options) (Document, error) {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	doc := newDocument(opts)

	sum, err := summaryPairs(stats)
	if err != nil {
		return Document{}, err
	}
	tbl, err := campaignTable(records)
	if err != nil {
		return Document{}, err
	}
	doc.Sections = append(doc.Sections,
		Section{Kind: SectionSummary, Heading: "Summary", Pairs: sum},
		Section{Kind: SectionTable, Heading: "Campaign Details", Table: tbl},
	)
	return doc, nil
}

// ComposeWeekly builds the executive summary variant. Page one holds the
// summary and the comparison against previous; the breakdown starts on a new
// page. A nil previous is treated as an all-zero baseline.
func ComposeWeekly(records []models.CampaignRecord, stats models.SummaryStats, previous *models.SummaryStats, opts Options) (Document, error) {
	if opts.Title == "" {
		opts.Title = DefaultWeeklyTitle
	}
	doc := newDocument(opts)

	sum, err := summaryPairs(stats)
	if err != nil {
		return Document{}, err
	}
	var prev models.SummaryStats
	if previous != nil {
		prev = *previous
	}
	cmp, err := comparisonTable(summary.Compare(stats, prev))
	if err != nil {
		return Document{}, err
	}
	tbl, err := campaignTable(records)
	if err != nil {
		return Document{}, err
	}
	doc.Sections = append(doc.Sections,
		Section{Kind: SectionSummary, Heading: "Executive Summary", Pairs: sum},
		Section{Kind: SectionTable, Heading: "Period Comparison", Table: cmp},
		Section{Kind: SectionTable, Heading: "Campaign Breakdown", Table: tbl, NewPage: true},
	)
	return doc, nil
}

func newDocument(opts Options) Document {
	now := opts.now()
	meta := []Pair{
		{Label: "Report", Value: opts.Title},
		{Label: "Generated", Value: now.Format(stampLayout)},
	}
	if opts.Period != nil {
		meta = append(meta, Pair{
			Label: "Period",
			Value: opts.Period.From.Format(dateLayout) + " to " + opts.Period.To.Format(dateLayout),
		})
	}
	return Document{
		ID:          uuid.NewString(),
		Title:       opts.Title,
		GeneratedAt: now,
		Period:      opts.Period,
		Sections:    []Section{{Kind: SectionMeta, Heading: opts.Title, Pairs: meta}},
	}
}

func summaryPairs(s models.SummaryStats) ([]Pair, error) {
	if !finite(s.TotalCost, s.TotalRevenue, s.AvgCTR, s.AvgROAS) {
		return nil, fmt.Errorf("summary: %w", ErrUnsupportedValue)
	}
	return []Pair{
		{Label: "Total Campaigns", Value: Count(s.TotalCampaigns)},
		{Label: "Active Campaigns", Value: Count(s.ActiveCampaigns)},
		{Label: "Paused Campaigns", Value: Count(s.PausedCampaigns)},
		{Label: "Completed Campaigns", Value: Count(s.CompletedCampaigns)},
		{Label: "Total Impressions", Value: Count(s.TotalImpressions)},
		{Label: "Total Clicks", Value: Count(s.TotalClicks)},
		{Label: "Total Conversions", Value: Count(s.TotalConversions)},
		{Label: "Total Cost", Value: Currency(s.TotalCost)},
		{Label: "Total Revenue", Value: Currency(s.TotalRevenue)},
		{Label: "Average CTR", Value: Percent(s.AvgCTR)},
		{Label: "Average ROAS", Value: Multiplier(s.AvgROAS)},
	}, nil
}

func campaignTable(records []models.CampaignRecord) (*Table, error) {
	t := &Table{Columns: CampaignColumns, Rows: make([][]string, 0, len(records))}
	for _, r := range records {
		if !finite(r.CTR, r.Cost, r.ROAS) {
			return nil, fmt.Errorf("campaign %q: %w", r.Campaign, ErrUnsupportedValue)
		}
		t.Rows = append(t.Rows, []string{
			r.Campaign,
			Count(r.Impressions),
			Count(r.Clicks),
			Count(r.Conversions),
			Percent(r.CTR),
			Currency(r.Cost),
			Currency(r.Revenue()),
			Multiplier(r.ROAS),
			string(r.Status),
		})
	}
	return t, nil
}

func comparisonTable(deltas []summary.Delta) (*Table, error) {
	t := &Table{
		Columns: []Column{
			{Header: "Metric", Width: 2, Align: AlignLeft},
			{Header: "This Period", Width: 1.6, Align: AlignRight},
			{Header: "Previous Period", Width: 1.6, Align: AlignRight},
			{Header: "Change", Width: 1.2, Align: AlignRight},
		},
	}
	for _, d := range deltas {
		if !finite(d.Current, d.Previous, d.Change) {
			return nil, fmt.Errorf("comparison %s: %w", d.Metric, ErrUnsupportedValue)
		}
		t.Rows = append(t.Rows, []string{d.Metric, value(d.Kind, d.Current), value(d.Kind, d.Previous), Change(d.Change, d.Valid)})
	}
	return t, nil
}

func value(k summary.Kind, v float64) string {
	switch k {
	case summary.KindCurrency:
		return Currency(v)
	case summary.KindPercent:
		return Percent(v)
	case summary.KindMultiplier:
		return Multiplier(v)
	}
	return Count(int(v))
}
