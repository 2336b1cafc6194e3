package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/scanwell/sbomscan/internal/models"
	"github.com/scanwell/sbomscan/internal/store"
)

// fakeBackend replays a scripted status sequence and records call counts.
type fakeBackend struct {
	submitErr error
	statuses  []models.ScanStatus
	job       models.ScanJob
	findings  []models.Finding

	submitCalls int
	statusCalls int
	getJobCalls int
	listCalls   int
}

func (b *fakeBackend) CreateSbomScan(_ context.Context, req models.ScanRequest) (string, error) {
	b.submitCalls++
	if b.submitErr != nil {
		return "", b.submitErr
	}
	return "scan-123", nil
}

func (b *fakeBackend) GetStatus(context.Context, string) (models.ScanStatus, error) {
	i := b.statusCalls
	if i >= len(b.statuses) {
		i = len(b.statuses) - 1
	}
	b.statusCalls++
	return b.statuses[i], nil
}

func (b *fakeBackend) GetSbomScan(context.Context, string) (models.ScanJob, error) {
	b.getJobCalls++
	return b.job, nil
}

func (b *fakeBackend) ListFindings(context.Context, string) ([]models.Finding, error) {
	b.listCalls++
	return b.findings, nil
}

func testWorkflow(t *testing.T, backend Backend, results store.BlobStore) (*Workflow, *int) {
	t.Helper()
	cfg := models.DefaultConfig()
	cfg.MaxAttempts = 5
	cfg.PollInterval = 10 * time.Second

	w := New(cfg, backend, results)
	sleeps := 0
	w.sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}
	w.logf = func(string, ...any) {}
	return w, &sleeps
}

func TestPollStopsAtTerminalStatus(t *testing.T) {
	backend := &fakeBackend{statuses: []models.ScanStatus{
		models.StatusInProgress,
		models.StatusInProgress,
		models.StatusSucceeded,
	}}
	w, sleeps := testWorkflow(t, backend, nil)

	status, err := w.Poll(context.Background(), "scan-123")
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if status != models.StatusSucceeded {
		t.Fatalf("status = %s, want SUCCEEDED", status)
	}
	if backend.statusCalls != 3 {
		t.Errorf("expected 3 status calls, got %d", backend.statusCalls)
	}
	if *sleeps != 2 {
		t.Errorf("expected 2 sleeps, got %d", *sleeps)
	}
}

func TestPollExhaustsBudget(t *testing.T) {
	backend := &fakeBackend{statuses: []models.ScanStatus{models.StatusInProgress}}
	w, _ := testWorkflow(t, backend, nil)

	status, err := w.Poll(context.Background(), "scan-123")

	var timeout *PollTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected *PollTimeoutError, got %T: %v", err, err)
	}
	if timeout.Attempts != 5 {
		t.Errorf("reported attempts = %d, want 5", timeout.Attempts)
	}
	if timeout.LastStatus != models.StatusInProgress {
		t.Errorf("last status = %s, want IN_PROGRESS", timeout.LastStatus)
	}
	if backend.statusCalls != 5 {
		t.Errorf("expected exactly 5 status calls, got %d", backend.statusCalls)
	}
	if status != models.StatusInProgress {
		t.Errorf("returned status = %s, want IN_PROGRESS", status)
	}
}

func TestPollCancelled(t *testing.T) {
	backend := &fakeBackend{statuses: []models.ScanStatus{models.StatusInProgress}}
	w, _ := testWorkflow(t, backend, nil)
	w.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	_, err := w.Poll(context.Background(), "scan-123")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if backend.statusCalls != 1 {
		t.Errorf("expected 1 status call before cancellation, got %d", backend.statusCalls)
	}
}

func TestRetrieveRejectsNonSucceeded(t *testing.T) {
	for _, status := range []models.ScanStatus{
		models.StatusPending,
		models.StatusInProgress,
		models.StatusFailed,
	} {
		backend := &fakeBackend{}
		w, _ := testWorkflow(t, backend, nil)

		_, err := w.Retrieve(context.Background(), "scan-123", status)

		var retrieval *RetrievalError
		if !errors.As(err, &retrieval) {
			t.Fatalf("status %s: expected *RetrievalError, got %T: %v", status, err, err)
		}
		if backend.getJobCalls != 0 || backend.listCalls != 0 {
			t.Errorf("status %s: expected no backend calls, got job=%d list=%d",
				status, backend.getJobCalls, backend.listCalls)
		}
	}
}

func TestSubmitWrapsRejection(t *testing.T) {
	rejection := errors.New("unsupported sbomFormat")
	backend := &fakeBackend{submitErr: rejection}
	w, _ := testWorkflow(t, backend, nil)

	_, err := w.Submit(context.Background(), "s3://bucket/sboms/app.json", models.FormatCycloneDX14)

	var submission *SubmissionError
	if !errors.As(err, &submission) {
		t.Fatalf("expected *SubmissionError, got %T: %v", err, err)
	}
	if !errors.Is(err, rejection) {
		t.Error("expected wrapped backend error")
	}
	if backend.submitCalls != 1 {
		t.Errorf("expected exactly 1 submit call, got %d", backend.submitCalls)
	}
}

func TestRunEndToEnd(t *testing.T) {
	backend := &fakeBackend{
		statuses: []models.ScanStatus{
			models.StatusInProgress,
			models.StatusInProgress,
			models.StatusSucceeded,
		},
		job: models.ScanJob{ID: "scan-123", Name: "sbom-scan-test", Status: models.StatusSucceeded},
		findings: []models.Finding{
			{ID: "f1", Severity: models.SeverityCritical},
			{ID: "f2", Severity: models.SeverityHigh},
			{ID: "f3", Severity: models.SeverityLow},
		},
	}
	w, _ := testWorkflow(t, backend, nil)

	result, err := w.Run(context.Background(), "s3://bucket/sboms/app.json", models.FormatCycloneDX14)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := map[models.Severity]int{
		models.SeverityCritical:      1,
		models.SeverityHigh:          1,
		models.SeverityMedium:        0,
		models.SeverityLow:           1,
		models.SeverityInformational: 0,
	}
	for sev, n := range want {
		if result.Summary.Count(sev) != n {
			t.Errorf("severity %s: expected %d, got %d", sev, n, result.Summary.Count(sev))
		}
	}
	if result.Summary.Total != 3 {
		t.Errorf("total = %d, want 3", result.Summary.Total)
	}

	if len(result.TopFindings) != 2 {
		t.Fatalf("expected 2 top findings, got %d", len(result.TopFindings))
	}
	if result.TopFindings[0].ID != "f1" || result.TopFindings[1].ID != "f2" {
		t.Errorf("top findings = %s, %s; want f1, f2",
			result.TopFindings[0].ID, result.TopFindings[1].ID)
	}
}

func TestRunZeroFindingsIsSuccess(t *testing.T) {
	backend := &fakeBackend{
		statuses: []models.ScanStatus{models.StatusSucceeded},
		job:      models.ScanJob{ID: "scan-123", Status: models.StatusSucceeded},
	}
	w, _ := testWorkflow(t, backend, nil)

	result, err := w.Run(context.Background(), "s3://bucket/sboms/app.json", models.FormatCycloneDX14)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Summary.Total != 0 {
		t.Errorf("total = %d, want 0", result.Summary.Total)
	}
	for sev, n := range result.Summary.Counts {
		if n != 0 {
			t.Errorf("severity %s: expected 0, got %d", sev, n)
		}
	}
	if len(result.TopFindings) != 0 {
		t.Errorf("expected empty top list, got %d entries", len(result.TopFindings))
	}
}

func TestRunFailedScan(t *testing.T) {
	backend := &fakeBackend{statuses: []models.ScanStatus{
		models.StatusInProgress,
		models.StatusFailed,
	}}
	w, _ := testWorkflow(t, backend, nil)

	_, err := w.Run(context.Background(), "s3://bucket/sboms/app.json", models.FormatCycloneDX14)

	var failed *PollFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected *PollFailedError, got %T: %v", err, err)
	}
	if backend.getJobCalls != 0 || backend.listCalls != 0 {
		t.Error("failed scan must not be retrieved")
	}
}

func TestRetrievePersistsArtifacts(t *testing.T) {
	backend := &fakeBackend{
		job: models.ScanJob{ID: "scan-123", Name: "sbom-scan-test", Status: models.StatusSucceeded},
		findings: []models.Finding{
			{ID: "f1", Severity: models.SeverityCritical},
		},
	}
	results, err := store.NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore failed: %v", err)
	}
	w, _ := testWorkflow(t, backend, results)

	if _, err := w.Retrieve(context.Background(), "scan-123", models.StatusSucceeded); err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	ctx := context.Background()
	for _, key := range []string{
		store.ScanDetailsKey("scan-123"),
		store.FindingsKey("scan-123"),
		store.SummaryKey("scan-123"),
	} {
		if _, err := results.Get(ctx, key); err != nil {
			t.Errorf("expected artifact %s: %v", key, err)
		}
	}

	data, err := results.Get(ctx, store.SummaryKey("scan-123"))
	if err != nil {
		t.Fatalf("failed to read summary: %v", err)
	}
	var summary struct {
		ScanID        string                  `json:"scanId"`
		FindingCounts map[models.Severity]int `json:"findingCounts"`
		TotalFindings int                     `json:"totalFindings"`
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("failed to parse summary: %v", err)
	}
	if summary.ScanID != "scan-123" {
		t.Errorf("scanId = %s", summary.ScanID)
	}
	if summary.TotalFindings != 1 || summary.FindingCounts[models.SeverityCritical] != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestScanNameIsQualified(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 30, 45, 0, time.UTC)
	a := ScanName(now)
	b := ScanName(now)

	const prefix = "sbom-scan-20250301-123045-"
	if len(a) != len(prefix)+8 || a[:len(prefix)] != prefix {
		t.Fatalf("unexpected scan name %q", a)
	}
	if a == b {
		t.Fatal("two names from the same instant must differ")
	}
}
