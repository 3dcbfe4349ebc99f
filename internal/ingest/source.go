package ingest

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/AngelCh415/adinsights/internal/models"
)

// Source loads a complete record set. Implementations never return a partial
// set together with a nil error.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]models.CampaignRecord, error)
}

// rawRecord is the wire/row shape shared by the HTTP and SQLite sources.
type rawRecord struct {
	ID          string  `json:"id"`
	Campaign    string  `json:"campaign"`
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	Conversions int     `json:"conversions"`
	CTR         float64 `json:"ctr"`
	Cost        float64 `json:"cost"`
	ROAS        float64 `json:"roas"`
	Status      string  `json:"status"`
}

// normalize limpia filas externas: trim, negativos a 0, estado en minúsculas.
// Rows without a name or with an unknown status are dropped.
func normalize(log *slog.Logger, source string, in []rawRecord) []models.CampaignRecord {
	out := make([]models.CampaignRecord, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, r := range in {
		name := strings.TrimSpace(r.Campaign)
		st, ok := models.ParseStatus(r.Status)
		if name == "" || !ok {
			log.Warn("dropping record", slog.String("source", source), slog.Int("row", i),
				slog.String("campaign", name), slog.String("status", r.Status))
			continue
		}
		id := strings.TrimSpace(r.ID)
		if _, dup := seen[id]; id == "" || dup {
			id = uuid.NewString()
		}
		seen[id] = struct{}{}
		out = append(out, models.CampaignRecord{
			ID:          id,
			Campaign:    name,
			Impressions: max0(r.Impressions),
			Clicks:      max0(r.Clicks),
			Conversions: max0(r.Conversions),
			CTR:         r.CTR,
			Cost:        maxf(r.Cost),
			ROAS:        maxf(r.ROAS),
			Status:      st,
		})
	}
	return out
}

func max0(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

func maxf(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
