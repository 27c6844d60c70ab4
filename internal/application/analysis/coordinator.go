package analysis

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	domain "github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

const (
	DefaultMaxInFlight = 8
	DefaultCallTimeout = 90 * time.Second
)

// Coordinator fans analysis of a run's files out to the structural scanner
// (inline, local) and every specialist agent (concurrent, remote), then
// merges the results. Per-(file, agent) failures degrade coverage; the run
// fails only when no file yields any usable output.
type Coordinator struct {
	Structural  domain.StructuralScanner
	Agents      []domain.Agent
	Tracker     *Tracker
	MaxInFlight int
	CallTimeout time.Duration
}

func NewCoordinator(structural domain.StructuralScanner, agents []domain.Agent, tracker *Tracker) *Coordinator {
	return &Coordinator{
		Structural:  structural,
		Agents:      agents,
		Tracker:     tracker,
		MaxInFlight: DefaultMaxInFlight,
		CallTimeout: DefaultCallTimeout,
	}
}

// Analyze fills run.Findings, run.Gaps, run.Counts and run.Status from
// run.Files. Aggregate state is mutated only under the coordinator's lock;
// results arriving after cancellation are discarded.
func (c *Coordinator) Analyze(ctx context.Context, run *domain.Run) {
	total := len(run.Files)
	run.Status = domain.StatusRunning
	c.Tracker.StartFiles(run.ID, total)

	var (
		mu      sync.Mutex
		groups  [][]domain.Finding
		gaps    []domain.Gap
		fileOK  = make([]bool, total)
		pending = make([]int32, total)
	)

	maxInFlight := c.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	g := &errgroup.Group{}
	g.SetLimit(maxInFlight)

	for i, file := range run.Files {
		// structural pass is local and cheap, run it inline
		structFindings, err := c.Structural.Scan(file)
		mu.Lock()
		if err != nil {
			gaps = append(gaps, domain.Gap{FilePath: file.Path, Stage: "structural", Reason: err.Error()})
		} else {
			fileOK[i] = true
			if len(structFindings) > 0 {
				groups = append(groups, structFindings)
			}
		}
		mu.Unlock()

		if len(c.Agents) == 0 {
			c.Tracker.FileDone(run.ID)
			continue
		}
		pending[i] = int32(len(c.Agents))

		for _, agent := range c.Agents {
			i, file, agent := i, file, agent
			g.Go(func() error {
				findings, err := c.reviewWithRetry(ctx, agent, file)

				mu.Lock()
				if ctx.Err() != nil {
					// run cancelled; discard whatever arrived
					mu.Unlock()
					return nil
				}
				if err != nil {
					gaps = append(gaps, domain.Gap{
						FilePath: file.Path,
						Stage:    string(agent.Role()),
						Reason:   err.Error(),
					})
				} else {
					fileOK[i] = true
					if len(findings) > 0 {
						groups = append(groups, findings)
					}
				}
				mu.Unlock()

				if atomic.AddInt32(&pending[i], -1) == 0 {
					c.Tracker.FileDone(run.ID)
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	run.Findings = keepKnownFiles(domain.MergeFindings(groups...), run)
	run.Gaps = append(run.Gaps, gaps...)
	run.Counts = domain.CountSeverities(run.Findings)

	switch {
	case ctx.Err() != nil:
		run.Status = domain.StatusFailed
	case total > 0 && !anyTrue(fileOK):
		run.Status = domain.StatusFailed
	default:
		run.Status = domain.StatusCompleted
	}
	c.Tracker.SetStatus(run.ID, run.Status)
}

// reviewWithRetry makes one specialist call with a per-call timeout and at
// most one immediate re-attempt. Failures come back as AgentError.
func (c *Coordinator) reviewWithRetry(ctx context.Context, agent domain.Agent, file domain.SourceFile) ([]domain.Finding, error) {
	findings, err := c.reviewOnce(ctx, agent, file)
	if err != nil && ctx.Err() == nil {
		findings, err = c.reviewOnce(ctx, agent, file)
	}
	if err != nil {
		return nil, &domain.AgentError{Role: agent.Role(), Path: file.Path, Err: err}
	}
	return findings, nil
}

func (c *Coordinator) reviewOnce(ctx context.Context, agent domain.Agent, file domain.SourceFile) ([]domain.Finding, error) {
	timeout := c.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return agent.Review(callCtx, file)
}

// keepKnownFiles enforces the invariant that every finding references a file
// belonging to the run; anything else is dropped.
func keepKnownFiles(findings []domain.Finding, run *domain.Run) []domain.Finding {
	out := findings[:0]
	for _, f := range findings {
		if run.HasFile(f.FilePath) {
			out = append(out, f)
		}
	}
	return out
}

func anyTrue(bs []bool) bool {
	for _, b := range bs {
		if b {
			return true
		}
	}
	return false
}
