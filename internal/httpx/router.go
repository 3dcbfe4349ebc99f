package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelCh415/adinsights/internal/export"
	"github.com/AngelCh415/adinsights/internal/ingest"
	"github.com/AngelCh415/adinsights/internal/models"
	"github.com/AngelCh415/adinsights/internal/publish"
	"github.com/AngelCh415/adinsights/internal/report"
	"github.com/AngelCh415/adinsights/internal/store"
	"github.com/AngelCh415/adinsights/internal/summary"
	"github.com/AngelCh415/adinsights/internal/table"
	"github.com/AngelCh415/adinsights/internal/telemetry"
	"github.com/AngelCh415/adinsights/internal/utils"
)

const dateLayout = "2006-01-02"

// Deps is everything the handlers need. Registry, Telemetry, Refresher and
// Publisher may be nil.
type Deps struct {
	Log         *slog.Logger
	Store       *store.MemoryStore
	Refresher   *ingest.Refresher
	Publisher   *publish.Publisher
	Telemetry   *telemetry.Metrics
	Registry    prometheus.Gatherer
	ReportTitle string
	ExportDelay time.Duration
	Now         func() time.Time
}

type handlers struct{ Deps }

func NewRouter(d Deps) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	h := &handlers{d}

	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(d.Log))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !d.Store.Loaded() {
			http.Error(w, "snapshot not loaded", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
		w.Write([]byte("ready"))
	})
	if d.Registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	mux.Get("/campaigns", h.listCampaigns)
	mux.Get("/campaigns/{id}", h.getCampaign)
	mux.Get("/campaigns/{id}/insights", h.getInsights)
	mux.Get("/summary", h.getSummary)
	mux.Get("/reports/campaign", h.getReport)

	mux.Get("/export/csv", h.exportCSV)
	mux.Get("/export/pdf", h.exportPDF)
	mux.Get("/export/weekly", h.exportWeekly)
	mux.Post("/export/publish", h.publishCSV)

	mux.Post("/refresh", h.refresh)

	return mux
}

type listResponse struct {
	Rows         []models.CampaignRecord `json:"rows"`
	TotalMatched int                     `json:"total_matched"`
	PageIndex    int                     `json:"page_index"`
	PageSize     int                     `json:"page_size"`
	PageCount    int                     `json:"page_count"`
	Version      uint64                  `json:"version"`
}

func (h *handlers) listCampaigns(w http.ResponseWriter, r *http.Request) {
	h.Telemetry.ObserveQuery("campaigns")
	snap := h.Store.Snapshot()
	res := table.Run(snap.Records, table.ParseQuery(r.URL.Query()))
	writeJSON(w, listResponse{
		Rows:         res.Rows,
		TotalMatched: res.TotalMatched,
		PageIndex:    res.PageIndex,
		PageSize:     res.PageSize,
		PageCount:    res.PageCount,
		Version:      snap.Version,
	})
}

func (h *handlers) getCampaign(w http.ResponseWriter, r *http.Request) {
	h.Telemetry.ObserveQuery("campaign")
	rec, ok := h.Store.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "campaign not found", http.StatusNotFound)
		return
	}
	writeJSON(w, rec)
}

func (h *handlers) getInsights(w http.ResponseWriter, r *http.Request) {
	h.Telemetry.ObserveQuery("insights")
	rec, ok := h.Store.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "campaign not found", http.StatusNotFound)
		return
	}
	writeJSON(w, summary.Assess(rec))
}

func (h *handlers) getSummary(w http.ResponseWriter, r *http.Request) {
	h.Telemetry.ObserveQuery("summary")
	writeJSON(w, summary.Summarize(h.subset(h.Store.Snapshot(), r.URL.Query())))
}

func (h *handlers) getReport(w http.ResponseWriter, r *http.Request) {
	h.Telemetry.ObserveQuery("report")
	opts, err := h.options(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows := h.subset(h.Store.Snapshot(), r.URL.Query())
	doc, err := report.Compose(rows, summary.Summarize(rows), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, doc)
}

func (h *handlers) exportCSV(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rows := h.subset(h.Store.Snapshot(), r.URL.Query())
	var buf bytes.Buffer
	err := h.delay(r.Context())
	if err == nil {
		err = export.CSV(&buf, rows, export.CSVOptions{BOM: r.URL.Query().Get("bom") == "1"})
	}
	h.Telemetry.ObserveExport(export.FormatCSV, start, err)
	if err != nil {
		h.exportFailed(w, r, err)
		return
	}
	h.attach(w, "text/csv; charset=utf-8", h.filename("campaign-data", "csv"), buf.Bytes())
}

func (h *handlers) exportPDF(w http.ResponseWriter, r *http.Request) {
	h.renderPDF(w, r, "campaign-report", func(rows []models.CampaignRecord, opts report.Options) (report.Document, error) {
		return report.Compose(rows, summary.Summarize(rows), opts)
	})
}

func (h *handlers) exportWeekly(w http.ResponseWriter, r *http.Request) {
	var baseline *models.SummaryStats
	if prev, ok := h.Store.Previous(); ok {
		s := summary.Summarize(h.subset(prev, r.URL.Query()))
		baseline = &s
	}
	h.renderPDF(w, r, "weekly-summary", func(rows []models.CampaignRecord, opts report.Options) (report.Document, error) {
		opts.Title = ""
		return report.ComposeWeekly(rows, summary.Summarize(rows), baseline, opts)
	})
}

func (h *handlers) renderPDF(w http.ResponseWriter, r *http.Request, name string, compose func([]models.CampaignRecord, report.Options) (report.Document, error)) {
	start := time.Now()
	opts, err := h.options(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows := h.subset(h.Store.Snapshot(), r.URL.Query())

	var buf bytes.Buffer
	err = h.delay(r.Context())
	if err == nil {
		var doc report.Document
		if doc, err = compose(rows, opts); err == nil {
			_, err = export.PDF(&buf, doc, export.PDFOptions{})
		}
	}
	h.Telemetry.ObserveExport(export.FormatPDF, start, err)
	if err != nil {
		h.exportFailed(w, r, err)
		return
	}
	h.attach(w, "application/pdf", h.filename(name, "pdf"), buf.Bytes())
}

func (h *handlers) publishCSV(w http.ResponseWriter, r *http.Request) {
	rows := h.subset(h.Store.Snapshot(), r.URL.Query())
	var buf bytes.Buffer
	if err := export.CSV(&buf, rows, export.CSVOptions{}); err != nil {
		h.exportFailed(w, r, err)
		return
	}
	rc, err := h.Publisher.Publish(r.Context(), publish.Artifact{
		Name:        h.filename("campaign-data", "csv"),
		ContentType: "text/csv; charset=utf-8",
		Body:        buf.Bytes(),
	})
	switch {
	case errors.Is(err, publish.ErrNotConfigured):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"published": rc, "records": len(rows)})
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	if h.Refresher == nil {
		http.Error(w, "no source configured", http.StatusServiceUnavailable)
		return
	}
	snap, err := h.Refresher.Refresh(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"records": snap.Len(), "version": snap.Version, "loaded_at": snap.LoadedAt})
}

// subset filtra y ordena sin paginar; es lo que ven los exports.
func (h *handlers) subset(snap store.Snapshot, v url.Values) []models.CampaignRecord {
	q := table.ParseQuery(v)
	rows := table.Filter(snap.Records, q)
	table.Sort(rows, q.Sort)
	return rows
}

func (h *handlers) options(v url.Values) (report.Options, error) {
	opts := report.Options{Title: h.ReportTitle, Now: h.Now}
	from, to := strings.TrimSpace(v.Get("from")), strings.TrimSpace(v.Get("to"))
	if from == "" && to == "" {
		return opts, nil
	}
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return opts, fmt.Errorf("bad from date (YYYY-MM-DD): %q", from)
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil {
		return opts, fmt.Errorf("bad to date (YYYY-MM-DD): %q", to)
	}
	if t.Before(f) {
		return opts, errors.New("to before from")
	}
	opts.Period = &models.Period{From: f, To: t}
	return opts, nil
}

// delay simula el tiempo de generación; se corta si el cliente se va.
func (h *handlers) delay(ctx context.Context) error {
	if h.ExportDelay <= 0 {
		return nil
	}
	t := time.NewTimer(h.ExportDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (h *handlers) exportFailed(w http.ResponseWriter, r *http.Request, err error) {
	h.Log.Error("export failed", slog.String("path", r.URL.Path), slog.String("rid", utils.RID(r.Context())), slog.String("err", err.Error()))
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "export cancelled", http.StatusServiceUnavailable)
	case errors.Is(err, export.ErrUnsupportedValue):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *handlers) filename(prefix, ext string) string {
	return prefix + "-" + h.Now().Format(dateLayout) + "." + ext
}

func (h *handlers) attach(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
