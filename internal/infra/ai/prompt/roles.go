package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

// Each specialist role gets a fixed, non-overlapping instruction scope. All
// role prompts demand one valid JSON object following the review schema.

const reviewSchema = `Requirements:
- Output must be a single JSON object, no markdown, no code fences, no commentary.
- Use lowercase severity values: critical, high, medium, low, info.
- findings is an array of objects; each needs severity and description. line_start/line_end and suggested_fix are optional.
- Report only issues inside your assigned scope. An empty findings array is a valid answer.

Schema (example with empty values):
{
  "findings": [
    {
      "severity": "<critical|high|medium|low|info>",
      "description": "<string>",
      "line_start": 0,
      "line_end": 0,
      "suggested_fix": "<string>"
    }
  ]
}`

// SystemPromptForRole provides strict directions and schema for one role.
func SystemPromptForRole(role analysis.Role) string {
	switch role {
	case analysis.RoleSecurity:
		return `You are a senior application security analyst reviewing one source file. Report only security issues: injection, broken authentication or access control, sensitive data exposure, hardcoded credentials, weak cryptography, unsafe deserialization, unvalidated input. Do not report performance or style issues.

` + reviewSchema
	case analysis.RolePerformance:
		return `You are a performance engineer reviewing one source file. Report only performance issues: inefficient algorithms or data structures, unnecessary allocation or copying, N+1 query patterns, blocking calls on hot paths, unbounded growth. Do not report security or style issues.

` + reviewSchema
	case analysis.RoleArchitecture:
		return `You are a principal engineer reviewing one source file for design quality. Report only architecture and maintainability issues: mixed responsibilities, tight coupling, missing abstraction boundaries, duplicated logic, unclear module roles. Do not report security or performance issues.

` + reviewSchema
	}
	return reviewSchema
}

// UserPromptForFile wraps the file for a review call.
func UserPromptForFile(file analysis.SourceFile) string {
	return fmt.Sprintf("Review this %s file and respond with the JSON per schema.\nPath: %s\n---\n%s",
		file.Language, file.Path, file.Content)
}

// CategoryForRole maps a specialist role to its finding category.
func CategoryForRole(role analysis.Role) analysis.Category {
	switch role {
	case analysis.RoleSecurity:
		return analysis.CategorySecurity
	case analysis.RolePerformance:
		return analysis.CategoryPerformance
	default:
		return analysis.CategoryArchitecture
	}
}

// reviewReport matches the review schema above.
type reviewReport struct {
	Findings []struct {
		Severity     string `json:"severity"`
		Description  string `json:"description"`
		LineStart    int    `json:"line_start"`
		LineEnd      int    `json:"line_end"`
		SuggestedFix string `json:"suggested_fix"`
	} `json:"findings"`
}

// ParseReview deserializes a structured review strictly. Any schema mismatch
// (bad JSON, unknown severity, empty description) fails the whole response
// rather than coercing it.
func ParseReview(raw string, role analysis.Role, filePath string) ([]analysis.Finding, error) {
	raw = strings.TrimSpace(raw)

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	var report reviewReport
	if err := dec.Decode(&report); err != nil {
		return nil, fmt.Errorf("decode review: %w", err)
	}

	findings := make([]analysis.Finding, 0, len(report.Findings))
	for i, f := range report.Findings {
		sev := analysis.Severity(strings.ToLower(f.Severity))
		if !analysis.ValidSeverity(sev) {
			return nil, fmt.Errorf("finding %d: unknown severity %q", i, f.Severity)
		}
		if strings.TrimSpace(f.Description) == "" {
			return nil, fmt.Errorf("finding %d: empty description", i)
		}
		findings = append(findings, analysis.Finding{
			Category:     CategoryForRole(role),
			FilePath:     filePath,
			LineStart:    f.LineStart,
			LineEnd:      f.LineEnd,
			Severity:     sev,
			Description:  strings.TrimSpace(f.Description),
			SuggestedFix: strings.TrimSpace(f.SuggestedFix),
			Source:       string(role),
		})
	}
	return findings, nil
}
