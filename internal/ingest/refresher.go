package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AngelCh415/adinsights/internal/store"
	"github.com/AngelCh415/adinsights/internal/telemetry"
)

// Refresher reloads the snapshot from a Source, on demand or on a ticker. A
// failed load keeps the previous snapshot.
type Refresher struct {
	src      Source
	st       *store.MemoryStore
	log      *slog.Logger
	tel      *telemetry.Metrics
	interval time.Duration
	now      func() time.Time

	mu sync.Mutex
}

func NewRefresher(src Source, st *store.MemoryStore, log *slog.Logger, tel *telemetry.Metrics, interval time.Duration) *Refresher {
	return &Refresher{src: src, st: st, log: log, tel: tel, interval: interval, now: time.Now}
}

func (r *Refresher) Refresh(ctx context.Context) (store.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now()
	recs, err := r.src.Load(ctx)
	if err != nil {
		r.tel.ObserveRefresh(r.src.Name(), 0, start, err)
		r.log.Error("snapshot refresh failed", slog.String("source", r.src.Name()), slog.String("err", err.Error()))
		return r.st.Snapshot(), err
	}
	snap := r.st.Replace(recs, start)
	r.tel.ObserveRefresh(r.src.Name(), snap.Len(), start, nil)
	r.log.Info("snapshot refreshed",
		slog.String("source", r.src.Name()),
		slog.Int("records", snap.Len()),
		slog.Uint64("version", snap.Version),
		slog.Duration("took", r.now().Sub(start)))
	return snap, nil
}

// Run loads once, then every interval until ctx ends. An interval <= 0 means
// load once and wait for cancellation.
func (r *Refresher) Run(ctx context.Context) error {
	r.Refresh(ctx)
	if r.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			r.Refresh(ctx)
		}
	}
}
