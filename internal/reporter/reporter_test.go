package reporter

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/scanwell/sbomscan/internal/classify"
	"github.com/scanwell/sbomscan/internal/models"
)

func sampleResult() *models.ScanResult {
	findings := []models.Finding{
		{
			ID:              "f1",
			Title:           "CVE-2024-0001 - openssl",
			Severity:        models.SeverityCritical,
			VulnerabilityID: "CVE-2024-0001",
			PackageName:     "openssl",
			PackageVersion:  "1.1.1",
			CVSSScore:       9.8,
			FixAvailable:    true,
		},
		{
			ID:              "f2",
			Title:           "CVE-2024-0002 - zlib",
			Severity:        models.SeverityHigh,
			VulnerabilityID: "CVE-2024-0002",
			PackageName:     "zlib",
			PackageVersion:  "1.2.11",
			CVSSScore:       7.5,
		},
		{
			ID:       "f3",
			Title:    "CVE-2024-0003 - bash",
			Severity: models.SeverityLow,
		},
	}
	return &models.ScanResult{
		Job:         models.ScanJob{ID: "scan-123", Name: "sbom-scan-test", Status: models.StatusSucceeded},
		Findings:    findings,
		Summary:     classify.Summarize(findings),
		TopFindings: classify.Top(findings, 10),
	}
}

func TestGetSelectsFormat(t *testing.T) {
	if _, ok := Get("json").(*JSONReporter); !ok {
		t.Error("json should select JSONReporter")
	}
	if _, ok := Get("csv").(*CSVReporter); !ok {
		t.Error("csv should select CSVReporter")
	}
	if _, ok := Get("html").(*HTMLReporter); !ok {
		t.Error("html should select HTMLReporter")
	}
	if _, ok := Get("terminal").(*TerminalReporter); !ok {
		t.Error("terminal should select TerminalReporter")
	}
	if _, ok := Get("").(*TerminalReporter); !ok {
		t.Error("unknown format should fall back to TerminalReporter")
	}
}

func TestTerminalReport(t *testing.T) {
	out, err := (&TerminalReporter{}).Report(sampleResult())
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	text := string(out)
	for _, want := range []string{
		"scan-123",
		"Total vulnerabilities: 3",
		"CRITICAL:     1",
		"HIGH:         1",
		"MEDIUM:       0",
		"LOW:          1",
		"openssl@1.1.1",
		"Fixable: 1 (33.3%)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("terminal output missing %q:\n%s", want, text)
		}
	}
}

func TestTerminalReportNoFindings(t *testing.T) {
	result := &models.ScanResult{
		Job:     models.ScanJob{ID: "scan-123", Status: models.StatusSucceeded},
		Summary: classify.Summarize(nil),
	}

	out, err := (&TerminalReporter{}).Report(result)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if !strings.Contains(string(out), "No vulnerabilities found") {
		t.Errorf("expected clean-scan message, got:\n%s", out)
	}
}

func TestJSONReport(t *testing.T) {
	out, err := (&JSONReporter{}).Report(sampleResult())
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	var parsed struct {
		Summary struct {
			ScanID        string         `json:"scanId"`
			FindingCounts map[string]int `json:"findingCounts"`
			TotalFindings int            `json:"totalFindings"`
			Fixable       int            `json:"fixable"`
		} `json:"summary"`
		Findings    []models.Finding `json:"findings"`
		TopFindings []models.Finding `json:"topFindings"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed.Summary.TotalFindings != 3 || parsed.Summary.Fixable != 1 {
		t.Errorf("summary = %+v", parsed.Summary)
	}
	if parsed.Summary.FindingCounts["CRITICAL"] != 1 {
		t.Errorf("critical count = %d", parsed.Summary.FindingCounts["CRITICAL"])
	}
	if len(parsed.Findings) != 3 || len(parsed.TopFindings) != 2 {
		t.Errorf("findings = %d, top = %d", len(parsed.Findings), len(parsed.TopFindings))
	}
}

func TestJSONReportEmptyFindingsIsArray(t *testing.T) {
	result := &models.ScanResult{Summary: classify.Summarize(nil)}
	out, err := (&JSONReporter{}).Report(result)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if !strings.Contains(string(out), `"findings": []`) {
		t.Errorf("expected empty findings array, got:\n%s", out)
	}
}

func TestCSVReport(t *testing.T) {
	out, err := (&CSVReporter{}).Report(sampleResult())
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[0][1] != "severity" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "CRITICAL" || rows[1][2] != "openssl" || rows[1][6] != "Yes" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
}

func TestHTMLReport(t *testing.T) {
	out, err := (&HTMLReporter{}).Report(sampleResult())
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	text := string(out)
	for _, want := range []string{
		"<title>SBOM Vulnerability Analysis Report</title>",
		"Total vulnerabilities: <strong>3</strong>",
		"severity-CRITICAL",
		"CVE-2024-0001",
		"openssl",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("html output missing %q", want)
		}
	}
}

func TestValid(t *testing.T) {
	for _, format := range []string{"terminal", "json", "csv", "html"} {
		if !Valid(format) {
			t.Errorf("expected %q to be valid", format)
		}
	}
	for _, format := range []string{"", "xml", "sarif", "all"} {
		if Valid(format) {
			t.Errorf("expected %q to be invalid", format)
		}
	}
}

func TestHTMLReportTopSortedByScore(t *testing.T) {
	findings := []models.Finding{
		{ID: "c1", Severity: models.SeverityCritical, VulnerabilityID: "CVE-2024-1001", CVSSScore: 7.5},
		{ID: "c2", Severity: models.SeverityCritical, VulnerabilityID: "CVE-2024-1002", CVSSScore: 9.8},
		{ID: "h1", Severity: models.SeverityHigh, VulnerabilityID: "CVE-2024-1003", CVSSScore: 8.1},
	}
	result := &models.ScanResult{
		Findings:    findings,
		Summary:     classify.Summarize(findings),
		TopFindings: classify.Top(findings, 10),
	}

	out, err := (&HTMLReporter{}).Report(result)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	text := string(out)
	ordered := []string{"CVE-2024-1002", "CVE-2024-1003", "CVE-2024-1001"}
	last := -1
	for _, id := range ordered {
		pos := strings.Index(text, id)
		if pos < 0 {
			t.Fatalf("html output missing %s", id)
		}
		if pos < last {
			t.Errorf("%s appears before the higher-scored finding preceding it", id)
		}
		last = pos
	}

	// The classifier output itself stays severity-ordered.
	if result.TopFindings[0].ID != "c1" || result.TopFindings[1].ID != "c2" || result.TopFindings[2].ID != "h1" {
		t.Errorf("classifier order changed: %s, %s, %s",
			result.TopFindings[0].ID, result.TopFindings[1].ID, result.TopFindings[2].ID)
	}
}

func reporterDashboardFixture() DashboardScan {
	findings := []models.Finding{{Severity: models.SeverityCritical}}
	return DashboardScan{
		ScanID:   "scan-1",
		ScanName: "sbom-scan-a",
		Status:   models.StatusSucceeded,
		Summary:  classify.Summarize(findings),
	}
}

func TestRenderDashboardOutput(t *testing.T) {
	scans := []DashboardScan{
		reporterDashboardFixture(),
		{
			ScanID:  "scan-2",
			Status:  models.StatusSucceeded,
			Summary: classify.Summarize([]models.Finding{{Severity: models.SeverityLow}}),
		},
	}
	findings := []models.Finding{
		{Severity: models.SeverityCritical, PackageName: "openssl", PackageVersion: "1.1.1", VulnerabilityID: "CVE-2024-0001", CVSSScore: 9.8},
		{Severity: models.SeverityLow, PackageName: "bash"},
	}

	out, err := RenderDashboard(scans, findings)
	if err != nil {
		t.Fatalf("RenderDashboard failed: %v", err)
	}

	text := string(out)
	for _, want := range []string{
		"<title>SBOM Scan Dashboard</title>",
		"2 scan(s)",
		"sbom-scan-a",
		"scan-2",
		"CVE-2024-0001",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("dashboard output missing %q", want)
		}
	}
}
