package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/AngelCh415/adinsights/internal/export"
	"github.com/AngelCh415/adinsights/internal/ingest"
	"github.com/AngelCh415/adinsights/internal/models"
	"github.com/AngelCh415/adinsights/internal/publish"
	"github.com/AngelCh415/adinsights/internal/store"
	"github.com/AngelCh415/adinsights/internal/summary"
	"github.com/AngelCh415/adinsights/internal/telemetry"
)

var fixedNow = func() time.Time { return time.Date(2024, 6, 7, 10, 30, 0, 0, time.UTC) }

type env struct {
	deps Deps
	reg  *prometheus.Registry
	h    http.Handler
}

func newEnv(t *testing.T, mutate func(*Deps)) *env {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	tel := telemetry.New(reg)
	st := store.NewMemoryStore()
	d := Deps{
		Log:       log,
		Store:     st,
		Refresher: ingest.NewRefresher(ingest.NewMockSource(0, 1), st, log, tel, 0),
		Telemetry: tel,
		Registry:  reg,
		Now:       fixedNow,
	}
	if mutate != nil {
		mutate(&d)
	}
	return &env{deps: d, reg: reg, h: NewRouter(d)}
}

func (e *env) load(t *testing.T) {
	t.Helper()
	e.deps.Store.Replace(ingest.SeedCampaigns(), fixedNow())
}

func (e *env) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestReadiness(t *testing.T) {
	e := newEnv(t, nil)
	if rec := e.do(t, http.MethodGet, "/healthz"); rec.Code != 200 {
		t.Fatalf("healthz %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before load: %d", rec.Code)
	}
	e.load(t)
	if rec := e.do(t, http.MethodGet, "/readyz"); rec.Code != 200 {
		t.Fatalf("readyz after load: %d", rec.Code)
	}
}

func TestListCampaigns(t *testing.T) {
	e := newEnv(t, nil)
	e.load(t)

	rec := e.do(t, http.MethodGet, "/campaigns?status=active&sort=roas&order=desc&page_size=3")
	if rec.Code != 200 {
		t.Fatalf("status %d", rec.Code)
	}
	got := decode[listResponse](t, rec)
	if got.TotalMatched != 5 || got.PageCount != 1 || got.PageSize != 10 || len(got.Rows) != 5 {
		t.Fatalf("unexpected page %+v", got)
	}
	if got.Rows[0].Campaign != "New Product Launch" || got.Rows[4].Campaign != "Email Newsletter" {
		t.Fatalf("unexpected order: %s ... %s", got.Rows[0].Campaign, got.Rows[4].Campaign)
	}

	got = decode[listResponse](t, e.do(t, http.MethodGet, "/campaigns?q=nothing-matches"))
	if got.TotalMatched != 0 || got.Rows == nil || len(got.Rows) != 0 {
		t.Fatalf("empty result should be an empty list: %+v", got)
	}
	if v := testutil.ToFloat64(e.deps.Telemetry.Queries.WithLabelValues("campaigns")); v != 2 {
		t.Fatalf("queries counter = %v", v)
	}
}

func TestCampaignAndInsights(t *testing.T) {
	e := newEnv(t, nil)
	e.load(t)

	rec := decode[models.CampaignRecord](t, e.do(t, http.MethodGet, "/campaigns/3"))
	if rec.Campaign != "Holiday Special" {
		t.Fatalf("got %+v", rec)
	}
	if r := e.do(t, http.MethodGet, "/campaigns/missing"); r.Code != http.StatusNotFound {
		t.Fatalf("missing campaign: %d", r.Code)
	}
	in := decode[summary.Insight](t, e.do(t, http.MethodGet, "/campaigns/1/insights"))
	if in.Performance != summary.RatingExcellent || in.Revenue != ingest.SeedCampaigns()[0].Revenue() {
		t.Fatalf("insight %+v", in)
	}
}

func TestSummaryUsesFilteredSubset(t *testing.T) {
	e := newEnv(t, nil)
	e.load(t)

	s := decode[models.SummaryStats](t, e.do(t, http.MethodGet, "/summary?status=completed&page_size=10&page=3"))
	if s.TotalCampaigns != 2 || s.CompletedCampaigns != 2 || s.TotalImpressions != 156720+198760 {
		t.Fatalf("summary %+v", s)
	}
}

func TestExportCSV(t *testing.T) {
	e := newEnv(t, nil)
	e.load(t)

	rec := e.do(t, http.MethodGet, "/export/csv?status=paused,completed")
	if rec.Code != 200 {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="campaign-data-2024-06-07.csv"` {
		t.Fatalf("content-disposition %q", cd)
	}
	rows, err := export.ParseCSV(rec.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if v := testutil.ToFloat64(e.deps.Telemetry.Exports.WithLabelValues("csv", "ok")); v != 1 {
		t.Fatalf("exports counter = %v", v)
	}
}

func TestExportPDFAndWeekly(t *testing.T) {
	e := newEnv(t, nil)
	e.load(t)

	rec := e.do(t, http.MethodGet, "/export/pdf?from=2024-06-01&to=2024-06-07")
	if rec.Code != 200 || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("pdf: %d %q", rec.Code, rec.Body.String()[:min(20, rec.Body.Len())])
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "campaign-report-2024-06-07.pdf") {
		t.Fatalf("content-disposition %q", cd)
	}

	e.deps.Store.Replace(ingest.SeedCampaigns()[:4], fixedNow())
	rec = e.do(t, http.MethodGet, "/export/weekly")
	if rec.Code != 200 || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("weekly: %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "weekly-summary-2024-06-07.pdf") {
		t.Fatalf("content-disposition %q", cd)
	}
}

func TestExportRejectsBadPeriod(t *testing.T) {
	e := newEnv(t, nil)
	e.load(t)
	for _, target := range []string{
		"/export/pdf?from=yesterday&to=2024-06-07",
		"/export/pdf?from=2024-06-07",
		"/export/weekly?from=2024-06-07&to=2024-06-01",
	} {
		if rec := e.do(t, http.MethodGet, target); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestExportDelayHonoursCancellation(t *testing.T) {
	e := newEnv(t, func(d *Deps) { d.ExportDelay = time.Hour })
	e.load(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/csv", nil).WithContext(ctx))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if v := testutil.ToFloat64(e.deps.Telemetry.Exports.WithLabelValues("csv", "error")); v != 1 {
		t.Fatalf("error counter = %v", v)
	}
}

type downSource struct{}

func (downSource) Name() string { return "down" }
func (downSource) Load(context.Context) ([]models.CampaignRecord, error) {
	return nil, errors.New("upstream down")
}

func TestRefresh(t *testing.T) {
	e := newEnv(t, nil)
	rec := e.do(t, http.MethodPost, "/refresh")
	if rec.Code != 200 {
		t.Fatalf("refresh %d", rec.Code)
	}
	if !e.deps.Store.Loaded() || e.deps.Store.Snapshot().Len() != 8 {
		t.Fatal("refresh did not load the snapshot")
	}

	bad := newEnv(t, func(d *Deps) {
		d.Refresher = ingest.NewRefresher(downSource{}, d.Store, d.Log, d.Telemetry, 0)
	})
	if rec := bad.do(t, http.MethodPost, "/refresh"); rec.Code != http.StatusBadGateway {
		t.Fatalf("failing refresh: %d", rec.Code)
	}
	if v := testutil.ToFloat64(bad.deps.Telemetry.Refreshes.WithLabelValues("down", "error")); v != 1 {
		t.Fatalf("refresh error counter = %v", v)
	}
}

func TestPublish(t *testing.T) {
	e := newEnv(t, nil)
	e.load(t)
	if rec := e.do(t, http.MethodPost, "/export/publish"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unconfigured publish: %d", rec.Code)
	}

	var body []byte
	var sig string
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		sig = r.Header.Get("X-Signature")
	}))
	defer sink.Close()

	e = newEnv(t, func(d *Deps) {
		d.Publisher = publish.NewPublisher(sink.Client(), sink.URL, "k", d.Log)
	})
	e.load(t)
	rec := e.do(t, http.MethodPost, "/export/publish?status=active")
	if rec.Code != 200 {
		t.Fatalf("publish %d: %s", rec.Code, rec.Body.String())
	}
	if !publish.Verify("k", body, sig) {
		t.Fatal("sink got an unverifiable signature")
	}
	rows, err := export.ParseCSV(bytes.NewReader(body))
	if err != nil || len(rows) != 5 {
		t.Fatalf("sink body: %d rows, err %v", len(rows), err)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t, nil)
	e.load(t)
	e.do(t, http.MethodGet, "/campaigns")
	rec := e.do(t, http.MethodGet, "/metrics")
	if rec.Code != 200 || !strings.Contains(rec.Body.String(), `adinsights_queries_total{endpoint="campaigns"} 1`) {
		t.Fatalf("metrics output:\n%s", rec.Body.String())
	}
}
