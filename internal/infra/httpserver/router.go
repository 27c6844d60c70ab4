package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/codeiq-dev/codeiq/internal/application/analysis"
	appqa "github.com/codeiq-dev/codeiq/internal/application/qa"
	domai "github.com/codeiq-dev/codeiq/internal/domain/ai"
	domain "github.com/codeiq-dev/codeiq/internal/domain/analysis"
	domidx "github.com/codeiq-dev/codeiq/internal/domain/index"
	"github.com/codeiq-dev/codeiq/internal/middleware"
)

type Router struct {
	analysisSvc *appanalysis.Service
	qaSvc       *appqa.Service
}

func NewRouter(analysisSvc *appanalysis.Service, qaSvc *appqa.Service) http.Handler {
	r := &Router{analysisSvc: analysisSvc, qaSvc: qaSvc}
	mux := chi.NewRouter()

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Post("/analyses", r.wrap(r.handleSubmit))
		rt.Get("/analyses", r.wrap(r.handleList))
		rt.Get("/analyses/latest", r.wrap(r.handleLatest))
		rt.Get("/analyses/{id}", r.wrap(r.handleStatus))
		rt.Get("/analyses/{id}/findings", r.wrap(r.handleFindings))
		rt.Post("/analyses/{id}/ask", r.wrap(r.handleAsk))
		rt.Get("/summary", r.wrap(r.handleSummary))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// statusError carries an HTTP status for client-caused failures.
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func badRequest(err error) error { return &statusError{code: http.StatusBadRequest, err: err} }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var se *statusError
			if errors.As(err, &se) {
				http.Error(w, se.Error(), se.code)
				return
			}
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, domai.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			var re *domidx.RetrievalError
			if errors.As(err, &re) {
				if errors.Is(err, domidx.ErrIndexNotReady) {
					http.Error(w, "index is not ready yet, retry after the analysis completes", http.StatusConflict)
					return
				}
				if errors.Is(err, domidx.ErrEmptyIndex) {
					http.Error(w, "no indexed content for this analysis", http.StatusConflict)
					return
				}
				http.Error(w, "retrieval failed", http.StatusBadGateway)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/{tenant}/analyses
// JSON body {"repo_url": "..."} or multipart form with source files.
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return badRequest(err)
	}

	cmd, cleanup, err := r.submitCommand(req, tenant)
	if err != nil {
		return err
	}

	run, err := r.analysisSvc.Submit(req.Context(), cmd)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return badRequest(err)
	}

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()

	// 🚀 Jalankan di background, biar jalan sampai selesai
	go func() {
		defer middleware.DecrementAnalysesRunning()
		if cleanup != nil {
			defer cleanup()
		}
		r.analysisSvc.RunUntilDone(run.ID, cmd)
	}()

	// 🔙 langsung balikin respons ke client
	resp := map[string]any{
		"id":       run.ID,
		"status":   run.Status,
		"tenant":   tenant,
		"message":  "analysis started in background",
		"queuedAt": time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	return json.NewEncoder(w).Encode(resp)
}

// submitCommand parses either submission shape. The cleanup, when non-nil,
// removes the temp dir holding uploaded files and runs after the analysis.
func (r *Router) submitCommand(req *http.Request, tenant string) (appanalysis.SubmitCommand, func(), error) {
	ct := req.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		dir, err := saveUploadedFiles(req)
		if err != nil {
			return appanalysis.SubmitCommand{}, nil, badRequest(err)
		}
		cmd := appanalysis.SubmitCommand{TenantID: tenant, LocalDir: dir, Source: "upload"}
		return cmd, func() { _ = os.RemoveAll(dir) }, nil
	}

	var body struct {
		RepoURL string `json:"repo_url"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return appanalysis.SubmitCommand{}, nil, badRequest(err)
	}
	if err := middleware.ValidateRepoURL(body.RepoURL); err != nil {
		return appanalysis.SubmitCommand{}, nil, badRequest(err)
	}
	cmd := appanalysis.SubmitCommand{TenantID: tenant, RepoURL: body.RepoURL, Source: "github"}
	return cmd, nil, nil
}

const maxUploadBytes = 64 << 20

func saveUploadedFiles(req *http.Request) (string, error) {
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", fmt.Errorf("parsing upload: %w", err)
	}
	var headers []*multipart.FileHeader
	for _, hs := range req.MultipartForm.File {
		headers = append(headers, hs...)
	}
	if len(headers) == 0 {
		return "", fmt.Errorf("no files in upload")
	}

	dir, err := os.MkdirTemp("", "codeiq-upload-*")
	if err != nil {
		return "", err
	}
	for _, fh := range headers {
		if err := saveUploadedFile(dir, fh); err != nil {
			_ = os.RemoveAll(dir)
			return "", err
		}
	}
	return dir, nil
}

func saveUploadedFile(dir string, fh *multipart.FileHeader) error {
	// filenames may carry relative paths; keep them but refuse escapes
	rel := filepath.Clean(filepath.FromSlash(fh.Filename))
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("invalid upload filename: %s", fh.Filename)
	}
	dst := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

// GET /v1/{tenant}/analyses/{id}
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRunID(id); err != nil {
		return badRequest(err)
	}

	view, err := r.analysisSvc.Status(req.Context(), tenant, domain.RunID(id))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(view)
}

// GET /v1/{tenant}/analyses/{id}/findings
func (r *Router) handleFindings(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRunID(id); err != nil {
		return badRequest(err)
	}

	run, err := r.analysisSvc.Get(req.Context(), tenant, domain.RunID(id))
	if err != nil {
		return err
	}

	resp := map[string]any{
		"id":                run.ID,
		"status":            run.Status,
		"counts":            run.Counts,
		"scores":            run.Scores,
		"findings":          run.Findings,
		"gaps":              run.Gaps,
		"executive_summary": run.ExecutiveSummary,
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(resp)
}

// POST /v1/{tenant}/analyses/{id}/ask
// Body: {"question": "...", "top_k": 5}
func (r *Router) handleAsk(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRunID(id); err != nil {
		return badRequest(err)
	}

	var body struct {
		Question string `json:"question"`
		TopK     int    `json:"top_k"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest(err)
	}
	if err := middleware.ValidateQuestion(body.Question); err != nil {
		return badRequest(err)
	}

	answer, err := r.qaSvc.Ask(req.Context(), domain.RunID(id), middleware.SanitizeString(body.Question), body.TopK)
	if err != nil {
		return err
	}

	middleware.IncrementQuestions()
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(answer)
}

// GET /v1/{tenant}/analyses?page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.analysisSvc.Paginate(req.Context(), tenant, page, middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/analyses/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.analysisSvc.Latest(req.Context(), tenant, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))

	summary, err := r.analysisSvc.Summary(req.Context(), tenant, middleware.ValidateDays(days))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(summary)
}
