package analysis

import "sort"

// Category enum
type Category string

const (
	CategorySecurity     Category = "security"
	CategoryPerformance  Category = "performance"
	CategoryQuality      Category = "quality"
	CategoryArchitecture Category = "architecture"
)

// Severity enum
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rank orders severities, highest first. Unknown severities sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 4
	}
	return 5
}

// ValidSeverity reports whether s is a known severity value.
func ValidSeverity(s Severity) bool {
	return s.Rank() < 5
}

// Finding is a single issue produced by one analyzer. Never mutated after creation.
type Finding struct {
	Category     Category `json:"category"`
	FilePath     string   `json:"file_path"`
	LineStart    int      `json:"line_start,omitempty"`
	LineEnd      int      `json:"line_end,omitempty"`
	Severity     Severity `json:"severity"`
	Description  string   `json:"description"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
	Source       string   `json:"source"` // structural | security | performance | architecture
}

type dedupeKey struct {
	Category    Category
	FilePath    string
	Description string
}

// MergeFindings flattens finding groups into one list ordered by severity,
// suppressing duplicates (same category+file+description) in favour of the
// highest-severity instance.
func MergeFindings(groups ...[]Finding) []Finding {
	best := make(map[dedupeKey]Finding)
	order := make([]dedupeKey, 0)
	for _, g := range groups {
		for _, f := range g {
			k := dedupeKey{f.Category, f.FilePath, f.Description}
			cur, seen := best[k]
			if !seen {
				best[k] = f
				order = append(order, k)
				continue
			}
			if f.Severity.Rank() < cur.Severity.Rank() {
				best[k] = f
			}
		}
	}

	out := make([]Finding, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() < out[j].Severity.Rank()
		}
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		return out[i].LineStart < out[j].LineStart
	})
	return out
}
