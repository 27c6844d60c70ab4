package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	domain "github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, tenant_id, submitted_at, status, source, repo_url, file_count,
       critical, high, medium, low, info, findings_total,
       findings_json, gaps_json, scores_json, executive_summary, duration_ms`

// Save insert/update Run record
func (r *RunRepository) Save(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO analysis_runs
(id, tenant_id, submitted_at, status, source, repo_url, file_count,
 critical, high, medium, low, info, findings_total,
 findings_json, gaps_json, scores_json, executive_summary, duration_ms)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status), file_count=VALUES(file_count),
 critical=VALUES(critical), high=VALUES(high), medium=VALUES(medium),
 low=VALUES(low), info=VALUES(info), findings_total=VALUES(findings_total),
 findings_json=VALUES(findings_json), gaps_json=VALUES(gaps_json),
 scores_json=VALUES(scores_json), executive_summary=VALUES(executive_summary),
 duration_ms=VALUES(duration_ms);
`
	tenant := stringOrDash(run.TenantID)
	status := stringOrDash(string(run.Status))
	submitted := run.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}

	findingsJSON, gapsJSON, scoresJSON, err := encodeRunBlobs(run)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, q,
		run.ID, tenant, submitted, status, run.Source, run.RepoURL, run.FileCount,
		run.Counts.Critical, run.Counts.High, run.Counts.Medium, run.Counts.Low, run.Counts.Info, run.Counts.Total,
		findingsJSON, gapsJSON, scoresJSON, run.ExecutiveSummary, run.DurationMS,
	)
	return err
}

// Get by ID + Tenant
func (r *RunRepository) Get(ctx context.Context, tenant string, id domain.RunID) (*domain.Run, error) {
	q := `SELECT ` + runColumns + `
FROM analysis_runs
WHERE tenant_id=? AND id=? LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, tenant, id)
	return scanRun(row)
}

// Latest runs per tenant
func (r *RunRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + runColumns + `
FROM analysis_runs
WHERE tenant_id=? ORDER BY submitted_at DESC LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRuns(rows)
}

// Paginate with offset + limit (classic pagination)
func (r *RunRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Run, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	q := `SELECT ` + runColumns + `
FROM analysis_runs
WHERE tenant_id=? ORDER BY submitted_at DESC LIMIT ? OFFSET ?;`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRuns(rows)
}

// UpdateStatus hanya update kolom status
func (r *RunRepository) UpdateStatus(ctx context.Context, tenant string, id domain.RunID, status domain.Status) error {
	const q = `
UPDATE analysis_runs
SET status = ?
WHERE tenant_id = ? AND id = ?;`
	_, err := r.db.ExecContext(ctx, q, status, tenant, id)
	return err
}

// Summary counts findings across runs since N days
func (r *RunRepository) Summary(ctx context.Context, tenant string, sinceDays int) (int, int, int, int, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(*) AS total_runs,
       COALESCE(SUM(critical),0) AS critical,
       COALESCE(SUM(high),0)     AS high,
       COALESCE(SUM(medium),0)   AS medium
FROM analysis_runs
WHERE tenant_id=? AND submitted_at >= ?;
`
	var t, c, h, m int
	if err := r.db.QueryRowContext(ctx, q, tenant, cut).Scan(&t, &c, &h, &m); err != nil {
		return 0, 0, 0, 0, err
	}
	return t, c, h, m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var run domain.Run
	var findingsJSON, gapsJSON, scoresJSON sql.NullString
	if err := row.Scan(
		&run.ID, &run.TenantID, &run.SubmittedAt, &run.Status, &run.Source, &run.RepoURL, &run.FileCount,
		&run.Counts.Critical, &run.Counts.High, &run.Counts.Medium, &run.Counts.Low, &run.Counts.Info, &run.Counts.Total,
		&findingsJSON, &gapsJSON, &scoresJSON, &run.ExecutiveSummary, &run.DurationMS,
	); err != nil {
		return nil, err
	}
	if err := decodeRunBlobs(&run, findingsJSON, gapsJSON, scoresJSON); err != nil {
		return nil, err
	}
	return &run, nil
}

func collectRuns(rows *sql.Rows) ([]*domain.Run, error) {
	var out []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func encodeRunBlobs(run *domain.Run) (string, string, string, error) {
	findings, err := json.Marshal(run.Findings)
	if err != nil {
		return "", "", "", err
	}
	gaps, err := json.Marshal(run.Gaps)
	if err != nil {
		return "", "", "", err
	}
	scores, err := json.Marshal(run.Scores)
	if err != nil {
		return "", "", "", err
	}
	return string(findings), string(gaps), string(scores), nil
}

func decodeRunBlobs(run *domain.Run, findings, gaps, scores sql.NullString) error {
	if findings.Valid && findings.String != "" {
		if err := json.Unmarshal([]byte(findings.String), &run.Findings); err != nil {
			return err
		}
	}
	if gaps.Valid && gaps.String != "" {
		if err := json.Unmarshal([]byte(gaps.String), &run.Gaps); err != nil {
			return err
		}
	}
	if scores.Valid && scores.String != "" {
		if err := json.Unmarshal([]byte(scores.String), &run.Scores); err != nil {
			return err
		}
	}
	return nil
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
