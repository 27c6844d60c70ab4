package analysis

import "strings"

// severityImpact weights for score computation.
var severityImpact = map[Severity]float64{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// ComputeScores derives 0..10 category scores from the merged finding set.
// Each category starts at 10 and loses severity-weighted impact per file;
// documentation is scored from the comment-line ratio of the sources.
func ComputeScores(files []SourceFile, findings []Finding) map[string]float64 {
	if len(files) == 0 {
		return map[string]float64{}
	}
	n := float64(len(files))

	var secImpact, perfImpact, qualImpact float64
	for _, f := range findings {
		w := severityImpact[f.Severity]
		switch f.Category {
		case CategorySecurity:
			secImpact += w
		case CategoryPerformance:
			perfImpact += w
		case CategoryQuality, CategoryArchitecture:
			qualImpact += w
		}
	}

	var docTotal float64
	for _, f := range files {
		docTotal += documentationScore(f.Content)
	}

	scores := map[string]float64{
		"security":        clampScore(10 - secImpact/n),
		"performance":     clampScore(10 - perfImpact/n),
		"maintainability": clampScore(10 - qualImpact/n),
		"documentation":   round1(docTotal / n),
	}
	scores["overall"] = round1((scores["security"] + scores["performance"] +
		scores["maintainability"] + scores["documentation"]) / 4)
	for k, v := range scores {
		scores[k] = round1(v)
	}
	return scores
}

// documentationScore estimates how commented a file is on a 0..10 scale.
func documentationScore(content string) float64 {
	var total, doc int
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		total++
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") ||
			strings.HasPrefix(line, "\"\"\"") || strings.HasPrefix(line, "*") ||
			strings.HasPrefix(line, "/*") {
			doc++
		}
	}
	if total == 0 {
		return 0
	}
	ratio := float64(doc) / float64(total) * 2.5
	if ratio > 1 {
		ratio = 1
	}
	return round1(ratio * 10)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
