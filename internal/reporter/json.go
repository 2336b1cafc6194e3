package reporter

import (
	"encoding/json"

	"github.com/scanwell/sbomscan/internal/classify"
	"github.com/scanwell/sbomscan/internal/models"
)

// JSONReporter outputs the scan result in JSON format
type JSONReporter struct{}

// jsonOutput represents the JSON output structure
type jsonOutput struct {
	Summary     jsonSummary      `json:"summary"`
	Findings    []models.Finding `json:"findings"`
	TopFindings []models.Finding `json:"topFindings,omitempty"`
}

type jsonSummary struct {
	ScanID        string                  `json:"scanId,omitempty"`
	ScanName      string                  `json:"scanName,omitempty"`
	Status        models.ScanStatus       `json:"status,omitempty"`
	CompletedAt   string                  `json:"completedAt,omitempty"`
	FindingCounts map[models.Severity]int `json:"findingCounts"`
	TotalFindings int                     `json:"totalFindings"`
	Fixable       int                     `json:"fixable"`
}

// Report generates JSON output for the given scan result
func (r *JSONReporter) Report(result *models.ScanResult) ([]byte, error) {
	output := jsonOutput{
		Summary: jsonSummary{
			ScanID:        result.Job.ID,
			ScanName:      result.Job.Name,
			Status:        result.Job.Status,
			FindingCounts: result.Summary.Counts,
			TotalFindings: result.Summary.Total,
			Fixable:       classify.FixableCount(result.Findings),
		},
		Findings:    result.Findings,
		TopFindings: result.TopFindings,
	}
	if result.Job.CompletedAt != nil {
		output.Summary.CompletedAt = result.Job.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if output.Findings == nil {
		output.Findings = []models.Finding{}
	}

	return json.MarshalIndent(output, "", "  ")
}
