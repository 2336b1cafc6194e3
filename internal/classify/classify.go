// Package classify derives severity summaries from findings collections.
// Everything here is a pure function over an in-memory slice, so results can
// be re-derived at any time from stored findings.
package classify

import "github.com/scanwell/sbomscan/internal/models"

// DefaultTopCap bounds the most-severe findings list.
const DefaultTopCap = 10

// Summarize counts findings per severity bucket. Every canonical bucket is
// present in the result, zero-valued when empty, so reports always show the
// full breakdown. Counting reads only the structured Severity field.
func Summarize(findings []models.Finding) models.SeveritySummary {
	counts := make(map[models.Severity]int, len(models.Severities))
	for _, sev := range models.Severities {
		counts[sev] = 0
	}

	for _, f := range findings {
		counts[models.ParseSeverity(string(f.Severity))]++
	}

	return models.SeveritySummary{
		Counts: counts,
		Total:  len(findings),
	}
}

// Top returns the CRITICAL and HIGH findings, CRITICAL first, capped at max
// entries. Relative input order is preserved within each severity. A max of
// zero or less falls back to DefaultTopCap.
func Top(findings []models.Finding, max int) []models.Finding {
	if max <= 0 {
		max = DefaultTopCap
	}

	top := make([]models.Finding, 0, max)
	for _, sev := range []models.Severity{models.SeverityCritical, models.SeverityHigh} {
		for _, f := range findings {
			if len(top) == max {
				return top
			}
			if f.Severity == sev {
				top = append(top, f)
			}
		}
	}
	return top
}

// FixableCount reports how many findings have a fix available.
func FixableCount(findings []models.Finding) int {
	n := 0
	for _, f := range findings {
		if f.FixAvailable {
			n++
		}
	}
	return n
}
