package analysis

import (
	"path/filepath"
	"strings"
	"time"
)

// ID tipe untuk Run
type RunID string

// Language enum
type Language string

const (
	LangPython     Language = "python"
	LangJava       Language = "java"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangOther      Language = "other"
)

// LanguageFromPath maps a file extension to a Language.
func LanguageFromPath(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw":
		return LangPython
	case ".java":
		return LangJava
	case ".js", ".jsx", ".mjs", ".cjs":
		return LangJavaScript
	case ".ts", ".tsx", ".mts", ".cts":
		return LangTypeScript
	default:
		return LangOther
	}
}

// SourceFile is one collected file. Immutable once collected.
type SourceFile struct {
	Path     string   `json:"path"`
	Content  string   `json:"content"`
	Language Language `json:"language"`
}

// Status enum
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether a status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SeverityCounts value object
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
	Total    int `json:"total"`
}

// CountSeverities tallies findings by severity.
func CountSeverities(findings []Finding) SeverityCounts {
	var c SeverityCounts
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			c.Critical++
		case SeverityHigh:
			c.High++
		case SeverityMedium:
			c.Medium++
		case SeverityLow:
			c.Low++
		case SeverityInfo:
			c.Info++
		}
	}
	c.Total = c.Critical + c.High + c.Medium + c.Low + c.Info
	return c
}

// Gap records a (file, stage) pair that produced no usable output.
// Gaps degrade coverage without failing the run.
type Gap struct {
	FilePath string `json:"file_path"`
	Stage    string `json:"stage"` // structural | security | performance | architecture | embedding | synthesis
	Reason   string `json:"reason"`
}

// Aggregate Root: Run
type Run struct {
	ID               RunID              `json:"id"`
	TenantID         string             `json:"tenant_id"`
	SubmittedAt      time.Time          `json:"submitted_at"`
	Status           Status             `json:"status"`
	Source           string             `json:"source,omitempty"` // github | upload
	RepoURL          string             `json:"repo_url,omitempty"`
	Files            []SourceFile       `json:"-"`
	FileCount        int                `json:"file_count"`
	Findings         []Finding          `json:"findings,omitempty"`
	Gaps             []Gap              `json:"gaps,omitempty"`
	Counts           SeverityCounts     `json:"counts"`
	ExecutiveSummary string             `json:"executive_summary,omitempty"`
	Scores           map[string]float64 `json:"scores,omitempty"`
	DurationMS       int64              `json:"duration_ms"`
}

// HasFile reports whether path belongs to the run's file set.
func (r *Run) HasFile(path string) bool {
	for _, f := range r.Files {
		if f.Path == path {
			return true
		}
	}
	return false
}
