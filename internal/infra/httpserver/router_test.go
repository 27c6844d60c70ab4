package httpserver

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/codeiq-dev/codeiq/internal/application/analysis"
	"github.com/codeiq-dev/codeiq/internal/application/indexing"
	appqa "github.com/codeiq-dev/codeiq/internal/application/qa"
	domain "github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

const runID = "2b1c0d3e-4f5a-6789-abcd-ef0123456789"

type stubRepo struct {
	getFn func(ctx context.Context, tenant string, id domain.RunID) (*domain.Run, error)
}

func (s *stubRepo) Save(context.Context, *domain.Run) error { return nil }

func (s *stubRepo) Get(ctx context.Context, tenant string, id domain.RunID) (*domain.Run, error) {
	return s.getFn(ctx, tenant, id)
}

func (s *stubRepo) Latest(context.Context, string, int) ([]*domain.Run, error) { return nil, nil }

func (s *stubRepo) Paginate(context.Context, string, int, int) ([]*domain.Run, error) {
	return nil, nil
}

func (s *stubRepo) UpdateStatus(context.Context, string, domain.RunID, domain.Status) error {
	return nil
}

func (s *stubRepo) Summary(context.Context, string, int) (int, int, int, int, error) {
	return 3, 1, 2, 0, nil
}

func newTestRouter(repo domain.Repository) http.Handler {
	svc := &appanalysis.Service{
		Repo:    repo,
		Tracker: appanalysis.NewTracker(),
		Clock:   appanalysis.SystemClock{},
	}
	qaSvc := appqa.New(indexing.NewRegistry(), nil, nil)
	return NewRouter(svc, qaSvc)
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(t, newTestRouter(&stubRepo{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSubmitRejectsBadRepoURL(t *testing.T) {
	h := newTestRouter(&stubRepo{})

	for _, body := range []string{
		`{}`,
		`{"repo_url":"git@github.com:a/b.git"}`,
		`{"repo_url":"http://localhost/x"}`,
		`not json`,
	} {
		rec := doRequest(t, h, http.MethodPost, "/v1/acme/analyses", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestSubmitRejectsBadTenant(t *testing.T) {
	rec := doRequest(t, newTestRouter(&stubRepo{}), http.MethodPost,
		"/v1/bad%20tenant/analyses", `{"repo_url":"https://example.com/r.git"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusUnknownRunIs404(t *testing.T) {
	repo := &stubRepo{getFn: func(context.Context, string, domain.RunID) (*domain.Run, error) {
		return nil, sql.ErrNoRows
	}}

	rec := doRequest(t, newTestRouter(repo), http.MethodGet, "/v1/acme/analyses/"+runID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusRejectsMalformedID(t *testing.T) {
	rec := doRequest(t, newTestRouter(&stubRepo{}), http.MethodGet, "/v1/acme/analyses/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusReturnsRunAndProgress(t *testing.T) {
	repo := &stubRepo{getFn: func(_ context.Context, tenant string, id domain.RunID) (*domain.Run, error) {
		require.Equal(t, "acme", tenant)
		return &domain.Run{ID: id, TenantID: tenant, Status: domain.StatusCompleted, FileCount: 3}, nil
	}}

	rec := doRequest(t, newTestRouter(repo), http.MethodGet, "/v1/acme/analyses/"+runID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"completed"`)
	assert.Contains(t, rec.Body.String(), `"fraction":1`)
}

func TestFindingsEndpoint(t *testing.T) {
	repo := &stubRepo{getFn: func(_ context.Context, tenant string, id domain.RunID) (*domain.Run, error) {
		return &domain.Run{
			ID: id, TenantID: tenant, Status: domain.StatusCompleted,
			Findings: []domain.Finding{{
				Category: domain.CategorySecurity, FilePath: "a.py",
				Severity: domain.SeverityHigh, Description: "hardcoded secret",
			}},
			ExecutiveSummary: "summary text",
		}, nil
	}}

	rec := doRequest(t, newTestRouter(repo), http.MethodGet, "/v1/acme/analyses/"+runID+"/findings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hardcoded secret")
	assert.Contains(t, rec.Body.String(), "summary text")
}

func TestAskBeforeIndexReadyIs409(t *testing.T) {
	rec := doRequest(t, newTestRouter(&stubRepo{}), http.MethodPost,
		"/v1/acme/analyses/"+runID+"/ask", `{"question":"how does auth work?"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	rec := doRequest(t, newTestRouter(&stubRepo{}), http.MethodPost,
		"/v1/acme/analyses/"+runID+"/ask", `{"question":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	rec := doRequest(t, newTestRouter(&stubRepo{}), http.MethodGet, "/v1/acme/summary?days=7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_runs":3`)
}
