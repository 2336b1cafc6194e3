package reporter

import (
	"bytes"
	"html/template"
	"sort"
	"time"

	"github.com/scanwell/sbomscan/internal/classify"
	"github.com/scanwell/sbomscan/internal/models"
)

// HTMLReporter outputs a standalone HTML report
type HTMLReporter struct{}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>SBOM Vulnerability Analysis Report</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 1200px; margin: 0 auto; padding: 20px; color: #333; }
        h1, h2 { color: #2c3e50; }
        .summary-box { background-color: #f8f9fa; border-left: 4px solid #4285f4; padding: 15px; margin-bottom: 20px; }
        .severity-CRITICAL { color: #d13212; font-weight: bold; }
        .severity-HIGH { color: #ff9900; font-weight: bold; }
        .severity-MEDIUM { color: #d9b43f; font-weight: bold; }
        .severity-LOW { color: #7fba00; font-weight: bold; }
        .severity-INFORMATIONAL { color: #999999; font-weight: bold; }
        table { border-collapse: collapse; width: 100%; margin: 20px 0; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
    </style>
</head>
<body>
    <h1>SBOM Vulnerability Analysis Report</h1>
    <p>Generated: {{.Generated}}</p>
    {{if .ScanID}}<p>Scan: {{.ScanID}}{{if .ScanName}} ({{.ScanName}}){{end}}</p>{{end}}

    <div class="summary-box">
        <h2>Executive Summary</h2>
        <p>Total vulnerabilities: <strong>{{.Total}}</strong></p>
        <ul>
        {{range .Buckets}}
            <li>{{.Severity}}: <span class="severity-{{.Severity}}">{{.Count}}</span></li>
        {{end}}
        </ul>
        <p>Fixable vulnerabilities: <strong>{{.Fixable}}</strong> ({{printf "%.1f" .FixablePct}}%)</p>
    </div>

    {{if .Top}}
    <h2>Most Severe Findings</h2>
    <table>
        <tr>
            <th>Severity</th>
            <th>Package</th>
            <th>Version</th>
            <th>Vulnerability ID</th>
            <th>CVSS Score</th>
            <th>Fix Available</th>
        </tr>
        {{range .Top}}
        <tr>
            <td><span class="severity-{{.Severity}}">{{.Severity}}</span></td>
            <td>{{.PackageName}}</td>
            <td>{{.PackageVersion}}</td>
            <td>{{.VulnerabilityID}}</td>
            <td>{{printf "%.1f" .CVSSScore}}</td>
            <td>{{if .FixAvailable}}Yes{{else}}No{{end}}</td>
        </tr>
        {{end}}
    </table>
    {{else}}
    <p>No CRITICAL or HIGH findings.</p>
    {{end}}
</body>
</html>
`))

type htmlBucket struct {
	Severity models.Severity
	Count    int
}

type htmlData struct {
	Generated  string
	ScanID     string
	ScanName   string
	Total      int
	Buckets    []htmlBucket
	Fixable    int
	FixablePct float64
	Top        []models.Finding
}

// Report generates HTML output for the given scan result
func (r *HTMLReporter) Report(result *models.ScanResult) ([]byte, error) {
	// The table is score-descending like the CSV/summary tooling that
	// preceded it; the classifier's severity-ordered slice stays untouched.
	top := make([]models.Finding, len(result.TopFindings))
	copy(top, result.TopFindings)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].CVSSScore > top[j].CVSSScore
	})

	data := htmlData{
		Generated: time.Now().Format("2006-01-02 15:04:05"),
		ScanID:    result.Job.ID,
		ScanName:  result.Job.Name,
		Total:     result.Summary.Total,
		Fixable:   classify.FixableCount(result.Findings),
		Top:       top,
	}
	for _, sev := range models.Severities {
		data.Buckets = append(data.Buckets, htmlBucket{Severity: sev, Count: result.Summary.Count(sev)})
	}
	if data.Total > 0 {
		data.FixablePct = float64(data.Fixable) / float64(data.Total) * 100
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
