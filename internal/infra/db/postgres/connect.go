package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS analysis_runs (
  id                VARCHAR(64)  NOT NULL PRIMARY KEY,
  tenant_id         VARCHAR(128) NOT NULL,
  submitted_at      TIMESTAMPTZ  NOT NULL,
  status            VARCHAR(32)  NOT NULL,
  source            VARCHAR(32)  NOT NULL DEFAULT '',
  repo_url          TEXT         NOT NULL,
  file_count        INT          NOT NULL DEFAULT 0,
  critical          INT          NOT NULL DEFAULT 0,
  high              INT          NOT NULL DEFAULT 0,
  medium            INT          NOT NULL DEFAULT 0,
  low               INT          NOT NULL DEFAULT 0,
  info              INT          NOT NULL DEFAULT 0,
  findings_total    INT          NOT NULL DEFAULT 0,
  findings_json     TEXT,
  gaps_json         TEXT,
  scores_json       TEXT,
  executive_summary TEXT,
  duration_ms       BIGINT       NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_tenant_submitted
  ON analysis_runs (tenant_id, submitted_at DESC);`
	_, err := db.ExecContext(ctx, ddl)
	return err
}
