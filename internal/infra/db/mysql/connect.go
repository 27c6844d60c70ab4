package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
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
  submitted_at      DATETIME     NOT NULL,
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
  findings_json     LONGTEXT,
  gaps_json         LONGTEXT,
  scores_json       TEXT,
  executive_summary LONGTEXT,
  duration_ms       BIGINT       NOT NULL DEFAULT 0,
  INDEX idx_tenant_submitted (tenant_id, submitted_at)
);`
	_, err := db.ExecContext(ctx, ddl)
	return err
}
