package reporter

import (
	"bytes"
	"html/template"
	"time"

	"github.com/scanwell/sbomscan/internal/models"
)

// DashboardScan is one persisted scan shown on the dashboard.
type DashboardScan struct {
	ScanID      string
	ScanName    string
	Status      models.ScanStatus
	CompletedAt *time.Time
	Summary     models.SeveritySummary
}

// Count is a template helper taking the severity as a plain string.
func (s DashboardScan) Count(sev string) int {
	return s.Summary.Counts[models.Severity(sev)]
}

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <title>SBOM Scan Dashboard</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 1200px; margin: 0 auto; padding: 20px; color: #333; }
        h1, h2 { color: #2c3e50; }
        .totals { display: flex; gap: 20px; margin: 20px 0; }
        .total-card { padding: 15px 25px; border-radius: 6px; color: #fff; text-align: center; }
        .severity-CRITICAL { background-color: #d13212; }
        .severity-HIGH { background-color: #ff9900; }
        .severity-MEDIUM { background-color: #d9b43f; }
        .severity-LOW { background-color: #7fba00; }
        .severity-INFORMATIONAL { background-color: #999999; }
        .severity-badge { padding: 2px 8px; border-radius: 4px; color: #fff; font-size: 0.85em; }
        table { border-collapse: collapse; width: 100%; margin: 20px 0; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
    </style>
</head>
<body>
    <h1>SBOM Scan Dashboard</h1>
    <p>Generated: {{.Generated}} · {{len .Scans}} scan(s)</p>

    <div class="totals">
    {{range .Totals}}
        <div class="total-card severity-{{.Severity}}">
            <div>{{.Severity}}</div>
            <strong>{{.Count}}</strong>
        </div>
    {{end}}
    </div>

    <h2>Recent Scans</h2>
    <table>
        <tr>
            <th>Scan</th>
            <th>Status</th>
            <th>Completed</th>
            <th>Critical</th>
            <th>High</th>
            <th>Medium</th>
            <th>Low</th>
            <th>Total</th>
        </tr>
        {{range .Scans}}
        <tr>
            <td>{{.ScanName}}{{if not .ScanName}}{{.ScanID}}{{end}}</td>
            <td>{{.Status}}</td>
            <td>{{if .CompletedAt}}{{.CompletedAt.Format "2006-01-02 15:04"}}{{end}}</td>
            <td>{{.Count "CRITICAL"}}</td>
            <td>{{.Count "HIGH"}}</td>
            <td>{{.Count "MEDIUM"}}</td>
            <td>{{.Count "LOW"}}</td>
            <td>{{.Summary.Total}}</td>
        </tr>
        {{end}}
    </table>

    {{if .Findings}}
    <h2>Findings</h2>
    <table>
        <tr>
            <th>Severity</th>
            <th>Package</th>
            <th>Version</th>
            <th>Vulnerability ID</th>
            <th>CVSS</th>
            <th>Fix</th>
        </tr>
        {{range .Findings}}
        <tr>
            <td><span class="severity-badge severity-{{.Severity}}">{{.Severity}}</span></td>
            <td>{{.PackageName}}</td>
            <td>{{.PackageVersion}}</td>
            <td>{{.VulnerabilityID}}</td>
            <td>{{printf "%.1f" .CVSSScore}}</td>
            <td>{{if .FixAvailable}}Yes{{else}}No{{end}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}
</body>
</html>
`))

type dashboardData struct {
	Generated string
	Scans     []DashboardScan
	Totals    []htmlBucket
	Findings  []models.Finding
}

// RenderDashboard builds a single HTML page over the persisted scans, newest
// first, with their merged findings.
func RenderDashboard(scans []DashboardScan, findings []models.Finding) ([]byte, error) {
	data := dashboardData{
		Generated: time.Now().Format("2006-01-02 15:04:05"),
		Scans:     scans,
		Findings:  findings,
	}

	totals := make(map[models.Severity]int)
	for _, s := range scans {
		for sev, n := range s.Summary.Counts {
			totals[sev] += n
		}
	}
	for _, sev := range models.Severities {
		data.Totals = append(data.Totals, htmlBucket{Severity: sev, Count: totals[sev]})
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
