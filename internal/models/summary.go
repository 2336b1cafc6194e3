package models

// SeveritySummary is a per-severity count over a findings collection plus the
// derived total. It is always recomputed from its source list, never stored
// as authoritative data on its own.
type SeveritySummary struct {
	Counts map[Severity]int `json:"findingCounts"`
	Total  int              `json:"totalFindings"`
}

// Count returns the bucket count for a severity, zero if absent.
func (s SeveritySummary) Count(sev Severity) int {
	return s.Counts[sev]
}

// ScanResult bundles everything the workflow produces for one scan: the final
// job record, the raw findings, and the derived classification.
type ScanResult struct {
	Job         ScanJob         `json:"scan"`
	Findings    []Finding       `json:"findings"`
	Summary     SeveritySummary `json:"summary"`
	TopFindings []Finding       `json:"topFindings,omitempty"`
}
