package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	domain "github.com/codeiq-dev/codeiq/internal/domain/analysis"
	"github.com/codeiq-dev/codeiq/internal/application/indexing"
)

// Collector port: turns a submission into an ordered file list.
type Collector interface {
	FromGit(ctx context.Context, repoURL string) ([]domain.SourceFile, func(), error)
	FromDir(root string) ([]domain.SourceFile, error)
}

// ArtifactStore port: keeps finalized report documents.
type ArtifactStore interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Service implements use-cases for analysis runs.
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	Repo        domain.Repository
	Collector   Collector
	Coordinator *Coordinator
	Indexer     *indexing.Builder
	Indexes     *indexing.Registry
	Synth       domain.Synthesizer
	Artifacts   ArtifactStore
	Tracker     *Tracker
	Clock       Clock
}

//
// ==== USE CASES ====
//

// Command to submit a run
type SubmitCommand struct {
	TenantID string
	RepoURL  string
	LocalDir string // populated for uploaded bundles
	Source   string // github | upload
}

// Submit registers a pending run and returns its id immediately; the caller
// launches RunUntilDone in the background and clients poll Status.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*domain.Run, error) {
	if cmd.RepoURL == "" && cmd.LocalDir == "" {
		return nil, fmt.Errorf("either repo_url or an uploaded bundle is required")
	}

	run := &domain.Run{
		ID:          domain.RunID(uuid.New().String()),
		TenantID:    cmd.TenantID,
		SubmittedAt: s.Clock.Now(),
		Status:      domain.StatusPending,
		Source:      cmd.Source,
		RepoURL:     cmd.RepoURL,
	}
	if err := s.Repo.Save(ctx, run); err != nil {
		return nil, err
	}
	s.Tracker.Begin(run.ID)
	return run, nil
}

// RunUntilDone executes a submitted run with context.Background() so it
// survives the submitting request. Safe to call from a goroutine.
func (s *Service) RunUntilDone(id domain.RunID, cmd SubmitCommand) {
	if _, err := s.Execute(context.Background(), id, cmd); err != nil {
		log.Printf("background analysis error: run=%s tenant=%s: %v", id, cmd.TenantID, err)
	}
}

// Execute drives one run end to end: collect, fan out, score, synthesize,
// index, persist.
func (s *Service) Execute(ctx context.Context, id domain.RunID, cmd SubmitCommand) (*domain.Run, error) {
	started := s.Clock.Now()
	s.Tracker.SetStatus(id, domain.StatusRunning)
	_ = s.Repo.UpdateStatus(ctx, cmd.TenantID, id, domain.StatusRunning)

	files, cleanup, err := s.collect(ctx, cmd)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		s.fail(ctx, id, cmd.TenantID)
		return nil, fmt.Errorf("collect sources: %w", err)
	}
	if len(files) == 0 {
		s.fail(ctx, id, cmd.TenantID)
		return nil, fmt.Errorf("no supported source files found")
	}

	run := &domain.Run{
		ID:          id,
		TenantID:    cmd.TenantID,
		SubmittedAt: started,
		Source:      cmd.Source,
		RepoURL:     cmd.RepoURL,
		Files:       files,
		FileCount:   len(files),
	}

	s.Coordinator.Analyze(ctx, run)
	run.Scores = domain.ComputeScores(run.Files, run.Findings)

	if run.Status != domain.StatusFailed {
		s.synthesize(ctx, run)
		s.buildIndex(ctx, run)
	}

	run.DurationMS = s.Clock.Now().Sub(started).Milliseconds()
	if err := s.Repo.Save(ctx, run); err != nil {
		return run, fmt.Errorf("persist run: %w", err)
	}
	s.uploadReport(ctx, run)
	s.Tracker.SetStatus(id, run.Status)
	return run, nil
}

func (s *Service) collect(ctx context.Context, cmd SubmitCommand) ([]domain.SourceFile, func(), error) {
	if cmd.RepoURL != "" {
		return s.Collector.FromGit(ctx, cmd.RepoURL)
	}
	files, err := s.Collector.FromDir(cmd.LocalDir)
	return files, nil, err
}

// synthesize runs the two-stage summary; a SynthesisError degrades the run
// to an empty executive summary, it never fails it.
func (s *Service) synthesize(ctx context.Context, run *domain.Run) {
	if s.Synth == nil || len(run.Findings) == 0 {
		return
	}
	summary, err := s.Synth.Synthesize(ctx, run.Findings, run.Scores)
	if err != nil {
		run.Gaps = append(run.Gaps, domain.Gap{Stage: "synthesis", Reason: err.Error()})
		return
	}
	run.ExecutiveSummary = summary
}

// buildIndex builds and publishes the run's vector index. Publication
// happens only after the build fully completes.
func (s *Service) buildIndex(ctx context.Context, run *domain.Run) {
	if s.Indexer == nil || s.Indexes == nil {
		return
	}
	idx, gaps := s.Indexer.Build(ctx, run.ID, run.Files)
	run.Gaps = append(run.Gaps, gaps...)
	s.Indexes.Put(run.ID, idx)
}

func (s *Service) uploadReport(ctx context.Context, run *domain.Run) {
	if s.Artifacts == nil {
		return
	}
	data, err := json.Marshal(run)
	if err != nil {
		return
	}
	key := fmt.Sprintf("%s/%s/report.json", run.TenantID, run.ID)
	if _, err := s.Artifacts.UploadBytes(ctx, key, data, "application/json"); err != nil {
		log.Printf("report upload failed: run=%s: %v", run.ID, err)
	}
}

func (s *Service) fail(ctx context.Context, id domain.RunID, tenant string) {
	s.Tracker.SetStatus(id, domain.StatusFailed)
	_ = s.Repo.UpdateStatus(ctx, tenant, id, domain.StatusFailed)
}

//
// ==== QUERIES ====
//

// StatusView merges the persisted run with live progress for pollers.
type StatusView struct {
	Run      *domain.Run `json:"run"`
	Progress Progress    `json:"progress"`
}

// Status returns persisted state plus live progress.
func (s *Service) Status(ctx context.Context, tenant string, id domain.RunID) (*StatusView, error) {
	run, err := s.Repo.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	view := &StatusView{Run: run}
	if p, ok := s.Tracker.Snapshot(id); ok {
		view.Progress = p
	} else {
		view.Progress = Progress{Status: run.Status}
		if run.Status.Terminal() {
			view.Progress.Fraction = 1
			view.Progress.FilesDone = run.FileCount
			view.Progress.FilesTotal = run.FileCount
		}
	}
	return view, nil
}

// Get returns one run by id.
func (s *Service) Get(ctx context.Context, tenant string, id domain.RunID) (*domain.Run, error) {
	return s.Repo.Get(ctx, tenant, id)
}

// Latest returns the N most recent runs.
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Run, error) {
	return s.Repo.Latest(ctx, tenant, limit)
}

// Paginate returns a page of runs.
func (s *Service) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Run, error) {
	return s.Repo.Paginate(ctx, tenant, page, pageSize)
}

// Summary aggregates severity counts over the last N days.
func (s *Service) Summary(ctx context.Context, tenant string, sinceDays int) (map[string]any, error) {
	total, critical, high, medium, err := s.Repo.Summary(ctx, tenant, sinceDays)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"total_runs": total,
		"critical":   critical,
		"high":       high,
		"medium":     medium,
	}, nil
}
