package analysis

import (
	"sync"

	domain "github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

// Progress is a point-in-time view of one run, safe to hand to pollers.
type Progress struct {
	Status     domain.Status `json:"status"`
	FilesDone  int           `json:"files_done"`
	FilesTotal int           `json:"files_total"`
	Fraction   float64       `json:"fraction"`
}

// Tracker is the explicit run-state object external callers poll. The
// coordinator updates it as units complete; reads never block analysis.
type Tracker struct {
	mu   sync.RWMutex
	runs map[domain.RunID]*trackedRun
}

type trackedRun struct {
	status domain.Status
	done   int
	total  int
}

func NewTracker() *Tracker {
	return &Tracker{runs: make(map[domain.RunID]*trackedRun)}
}

// Begin registers a run in pending state.
func (t *Tracker) Begin(id domain.RunID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[id] = &trackedRun{status: domain.StatusPending}
}

// StartFiles records the file total and moves the run to running.
func (t *Tracker) StartFiles(id domain.RunID, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.ensure(id)
	r.status = domain.StatusRunning
	r.total = total
}

// FileDone bumps the completed-file counter.
func (t *Tracker) FileDone(id domain.RunID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.ensure(id)
	if r.done < r.total {
		r.done++
	}
}

// SetStatus records a status transition. Terminal states stick.
func (t *Tracker) SetStatus(id domain.RunID, status domain.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.ensure(id)
	if r.status.Terminal() {
		return
	}
	r.status = status
}

// Snapshot returns the current progress view.
func (t *Tracker) Snapshot(id domain.RunID) (Progress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.runs[id]
	if !ok {
		return Progress{}, false
	}
	p := Progress{Status: r.status, FilesDone: r.done, FilesTotal: r.total}
	if r.total > 0 {
		p.Fraction = float64(r.done) / float64(r.total)
	} else if r.status.Terminal() {
		p.Fraction = 1
	}
	return p, true
}

// Forget drops a finished run from the tracker.
func (t *Tracker) Forget(id domain.RunID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.runs, id)
}

func (t *Tracker) ensure(id domain.RunID) *trackedRun {
	r, ok := t.runs[id]
	if !ok {
		r = &trackedRun{status: domain.StatusPending}
		t.runs[id] = r
	}
	return r
}
