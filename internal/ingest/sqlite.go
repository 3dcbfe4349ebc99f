package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/AngelCh415/adinsights/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS campaigns (
	id TEXT PRIMARY KEY,
	campaign TEXT NOT NULL,
	impressions INTEGER NOT NULL DEFAULT 0,
	clicks INTEGER NOT NULL DEFAULT 0,
	conversions INTEGER NOT NULL DEFAULT 0,
	ctr REAL NOT NULL DEFAULT 0,
	cost REAL NOT NULL DEFAULT 0,
	roas REAL NOT NULL DEFAULT 0,
	status TEXT NOT NULL
);`

// SQLiteSource reads the campaigns table of a SQLite database. The table is
// read in insertion order so snapshots keep a stable row order.
type SQLiteSource struct {
	db  *sql.DB
	log *slog.Logger
}

func OpenSQLite(path string, log *slog.Logger) (*SQLiteSource, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteSource{db: db, log: log}, nil
}

func (s *SQLiteSource) Name() string { return "sqlite" }

func (s *SQLiteSource) Close() error { return s.db.Close() }

func (s *SQLiteSource) Load(ctx context.Context) ([]models.CampaignRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, campaign, impressions, clicks, conversions, ctr, cost, roas, status
		FROM campaigns ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var raw []rawRecord
	for rows.Next() {
		var r rawRecord
		if err := rows.Scan(&r.ID, &r.Campaign, &r.Impressions, &r.Clicks, &r.Conversions, &r.CTR, &r.Cost, &r.ROAS, &r.Status); err != nil {
			return nil, err
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return normalize(s.log, s.Name(), raw), nil
}

// Seed replaces the table contents; used to bootstrap a demo database.
func (s *SQLiteSource) Seed(ctx context.Context, records []models.CampaignRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM campaigns`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO campaigns (id, campaign, impressions, clicks, conversions, ctr, cost, roas, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Campaign, r.Impressions, r.Clicks, r.Conversions, r.CTR, r.Cost, r.ROAS, string(r.Status)); err != nil {
			return fmt.Errorf("insert %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// Count reports the number of stored rows.
func (s *SQLiteSource) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`).Scan(&n)
	return n, err
}
