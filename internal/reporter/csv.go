package reporter

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/scanwell/sbomscan/internal/models"
)

// CSVReporter outputs one row per finding, for spreadsheet triage
type CSVReporter struct{}

var csvHeader = []string{
	"id",
	"severity",
	"package_name",
	"package_version",
	"vulnerability_id",
	"cvss_score",
	"fix_available",
	"first_observed",
	"last_observed",
	"description",
}

// Report generates CSV output for the given scan result
func (r *CSVReporter) Report(result *models.ScanResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, f := range result.Findings {
		fix := "No"
		if f.FixAvailable {
			fix = "Yes"
		}
		first, last := "", ""
		if f.FirstObservedAt != nil {
			first = f.FirstObservedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		if f.LastObservedAt != nil {
			last = f.LastObservedAt.Format("2006-01-02T15:04:05Z07:00")
		}

		row := []string{
			f.ID,
			string(f.Severity),
			f.PackageName,
			f.PackageVersion,
			f.VulnerabilityID,
			strconv.FormatFloat(f.CVSSScore, 'f', 1, 64),
			fix,
			first,
			last,
			f.Description,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
