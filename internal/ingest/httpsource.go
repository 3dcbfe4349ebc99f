package ingest

import (
	"context"
	"log/slog"

	"github.com/AngelCh415/adinsights/internal/models"
	"github.com/AngelCh415/adinsights/internal/utils"
)

// HTTPSource pulls a JSON array of campaign rows from an upstream API.
type HTTPSource struct {
	c       HTTPClient
	url     string
	backoff utils.Backoff
	log     *slog.Logger
}

func NewHTTPSource(c HTTPClient, url string, b utils.Backoff, log *slog.Logger) *HTTPSource {
	return &HTTPSource{c: c, url: url, backoff: b, log: log}
}

func (s *HTTPSource) Name() string { return "http" }

func (s *HTTPSource) Load(ctx context.Context) ([]models.CampaignRecord, error) {
	var resp []rawRecord
	if err := GetJSONWithRetry(ctx, s.c, s.backoff, s.url, &resp); err != nil {
		return nil, err
	}
	return normalize(s.log, s.Name(), resp), nil
}
