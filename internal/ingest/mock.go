package ingest

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/AngelCh415/adinsights/internal/models"
)

// SeedCampaigns is the demo dataset the dashboard ships with.
func SeedCampaigns() []models.CampaignRecord {
	return []models.CampaignRecord{
		{ID: "1", Campaign: "Summer Sale 2024", Impressions: 245680, Clicks: 12284, CTR: 5.0, Conversions: 847, Cost: 15420, ROAS: 4.2, Status: models.StatusActive},
		{ID: "2", Campaign: "Brand Awareness Q4", Impressions: 189340, Clicks: 8967, CTR: 4.7, Conversions: 623, Cost: 12890, ROAS: 3.8, Status: models.StatusActive},
		{ID: "3", Campaign: "Holiday Special", Impressions: 156720, Clicks: 7834, CTR: 5.0, Conversions: 512, Cost: 9870, ROAS: 5.1, Status: models.StatusCompleted},
		{ID: "4", Campaign: "New Product Launch", Impressions: 298450, Clicks: 14923, CTR: 5.0, Conversions: 1034, Cost: 18760, ROAS: 4.7, Status: models.StatusActive},
		{ID: "5", Campaign: "Retargeting Campaign", Impressions: 87650, Clicks: 5249, CTR: 6.0, Conversions: 398, Cost: 6540, ROAS: 3.2, Status: models.StatusPaused},
		{ID: "6", Campaign: "Mobile App Promotion", Impressions: 134890, Clicks: 6745, CTR: 5.0, Conversions: 445, Cost: 8920, ROAS: 3.9, Status: models.StatusActive},
		{ID: "7", Campaign: "Email Newsletter", Impressions: 67890, Clicks: 3395, CTR: 5.0, Conversions: 234, Cost: 4560, ROAS: 2.8, Status: models.StatusActive},
		{ID: "8", Campaign: "Influencer Collaboration", Impressions: 198760, Clicks: 11926, CTR: 6.0, Conversions: 789, Cost: 14230, ROAS: 4.5, Status: models.StatusCompleted},
	}
}

// MockSource serves the seed dataset. With Jitter > 0 every load scales the
// volume metrics by a random factor in [1-Jitter, 1+Jitter].
type MockSource struct {
	Records []models.CampaignRecord
	Jitter  float64

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewMockSource(jitter float64, seed int64) *MockSource {
	return &MockSource{Records: SeedCampaigns(), Jitter: jitter, rnd: rand.New(rand.NewSource(seed))}
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) Load(ctx context.Context) ([]models.CampaignRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.CampaignRecord, len(m.Records))
	copy(out, m.Records)
	if m.Jitter <= 0 {
		return out, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rnd == nil {
		m.rnd = rand.New(rand.NewSource(1))
	}
	for i := range out {
		f := 1 - m.Jitter + m.rnd.Float64()*2*m.Jitter
		r := &out[i]
		r.Impressions = int(math.Floor(float64(r.Impressions) * f))
		r.Clicks = int(math.Floor(float64(r.Clicks) * f))
		r.Conversions = int(math.Floor(float64(r.Conversions) * f))
		r.Cost = math.Round(r.Cost*f*100) / 100
	}
	return out, nil
}
