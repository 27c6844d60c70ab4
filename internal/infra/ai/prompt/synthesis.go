package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Stage 1: extract cross-cutting themes from the raw finding set.

// ThemesSystemPrompt demands a strict JSON theme list.
func ThemesSystemPrompt() string {
	return `You are a principal software engineer. You receive a JSON list of code quality issues found in one codebase. Identify the 3 to 5 most critical cross-cutting themes or recurring problems. Focus on systemic risks (e.g. "inconsistent input validation across modules") rather than individual bugs.

Output must be a single JSON object, no markdown, no code fences:
{
  "themes": ["<string>", "<string>"]
}`
}

// ThemesUserPrompt wraps the serialized findings for stage 1.
func ThemesUserPrompt(findingsJSON string) string {
	return "Here is the raw finding data:\n\nDATA:\n" + findingsJSON
}

type themeReport struct {
	Themes []string `json:"themes"`
}

// ParseThemes deserializes the stage-1 output, failing closed on schema mismatch.
func ParseThemes(raw string) ([]string, error) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	dec.DisallowUnknownFields()
	var report themeReport
	if err := dec.Decode(&report); err != nil {
		return nil, fmt.Errorf("decode themes: %w", err)
	}
	themes := make([]string, 0, len(report.Themes))
	for _, t := range report.Themes {
		if s := strings.TrimSpace(t); s != "" {
			themes = append(themes, s)
		}
	}
	if len(themes) == 0 {
		return nil, fmt.Errorf("no themes in response")
	}
	return themes, nil
}

// Stage 2: translate themes plus scores into a narrative summary.

// NarrativeSystemPrompt instructs the non-technical summary stage.
func NarrativeSystemPrompt() string {
	return `You are a senior product manager. Using the technical themes and category scores provided, write a concise executive summary in markdown that a non-technical manager can follow. Start with the title "Executive Summary", give a brief overview of the codebase's health, then a prioritized numbered list of the top 3 recommended actions with their business impact. Respond with the summary text only.`
}

// NarrativeUserPrompt assembles stage-2 input from themes and scores.
func NarrativeUserPrompt(themes []string, scores map[string]float64) string {
	var b strings.Builder
	b.WriteString("Technical themes:\n")
	for _, t := range themes {
		b.WriteString("- " + t + "\n")
	}
	b.WriteString("\nCategory scores (0-10):\n")
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %.1f\n", k, scores[k])
	}
	return b.String()
}
