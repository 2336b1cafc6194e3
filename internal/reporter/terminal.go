package reporter

import (
	"fmt"
	"strings"

	"github.com/scanwell/sbomscan/internal/classify"
	"github.com/scanwell/sbomscan/internal/models"
)

// TerminalReporter outputs a human-readable severity summary
type TerminalReporter struct{}

// Report generates terminal output for the given scan result
func (r *TerminalReporter) Report(result *models.ScanResult) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString("\nSBOM SCAN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")

	if result.Job.ID != "" {
		sb.WriteString(fmt.Sprintf("Scan:      %s\n", result.Job.ID))
	}
	if result.Job.Name != "" {
		sb.WriteString(fmt.Sprintf("Name:      %s\n", result.Job.Name))
	}
	if result.Job.Status != "" {
		sb.WriteString(fmt.Sprintf("Status:    %s\n", result.Job.Status))
	}
	if result.Job.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("Completed: %s\n", result.Job.CompletedAt.Format("2006-01-02 15:04:05")))
	}
	sb.WriteString("\n")

	if result.Summary.Total == 0 {
		sb.WriteString("No vulnerabilities found.\n")
		return []byte(sb.String()), nil
	}

	sb.WriteString(fmt.Sprintf("Total vulnerabilities: %d\n", result.Summary.Total))
	for _, sev := range models.Severities {
		sb.WriteString(fmt.Sprintf("  %-13s %d\n", string(sev)+":", result.Summary.Count(sev)))
	}

	fixable := classify.FixableCount(result.Findings)
	if result.Summary.Total > 0 {
		pct := float64(fixable) / float64(result.Summary.Total) * 100
		sb.WriteString(fmt.Sprintf("\nFixable: %d (%.1f%%)\n", fixable, pct))
	}

	if len(result.TopFindings) > 0 {
		sb.WriteString(fmt.Sprintf("\nTop %d most severe findings:\n", len(result.TopFindings)))
		for _, f := range result.TopFindings {
			sb.WriteString(fmt.Sprintf("\n  [%s] %s\n", f.Severity, f.String()))
			if f.VulnerabilityID != "" {
				sb.WriteString(fmt.Sprintf("      %s", f.VulnerabilityID))
				if f.CVSSScore > 0 {
					sb.WriteString(fmt.Sprintf(" (CVSS %.1f)", f.CVSSScore))
				}
				sb.WriteString("\n")
			}
			if f.FixAvailable {
				sb.WriteString("      Fix available\n")
			}
		}
	}

	return []byte(sb.String()), nil
}
