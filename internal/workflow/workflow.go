// Package workflow runs the scan lifecycle: submit a staged SBOM to the
// backend, poll the job to a terminal state, retrieve the findings, and
// classify them by severity.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/scanwell/sbomscan/internal/classify"
	"github.com/scanwell/sbomscan/internal/models"
	"github.com/scanwell/sbomscan/internal/store"
)

// Backend is the asynchronous scan job API the workflow drives.
type Backend interface {
	CreateSbomScan(ctx context.Context, req models.ScanRequest) (string, error)
	GetSbomScan(ctx context.Context, scanID string) (models.ScanJob, error)
	GetStatus(ctx context.Context, scanID string) (models.ScanStatus, error)
	ListFindings(ctx context.Context, scanID string) ([]models.Finding, error)
}

// Workflow orchestrates one scan end to end. Independent scans get
// independent Workflow values; nothing here is shared.
type Workflow struct {
	config  *models.Config
	backend Backend
	results store.BlobStore // nil disables raw-result persistence

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
	logf  func(format string, args ...any)
}

// New creates a workflow. results may be nil, in which case retrieval does
// not persist raw artifacts.
func New(config *models.Config, backend Backend, results store.BlobStore) *Workflow {
	return &Workflow{
		config:  config,
		backend: backend,
		results: results,
		sleep:   sleepCtx,
		logf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ScanName builds a submission name unique enough to disambiguate concurrent
// submissions: a timestamp plus a short uuid suffix.
func ScanName(now time.Time) string {
	return fmt.Sprintf("sbom-scan-%s-%s", now.Format("20060102-150405"), uuid.NewString()[:8])
}

// Submit requests a new scan job and returns its identifier. Backend
// rejections surface immediately as *SubmissionError.
func (w *Workflow) Submit(ctx context.Context, sbomURL string, format models.SBOMFormat) (string, error) {
	req := models.ScanRequest{
		SBOMURL: sbomURL,
		Format:  format,
		Name:    ScanName(time.Now()),
	}

	scanID, err := w.backend.CreateSbomScan(ctx, req)
	if err != nil {
		return "", &SubmissionError{Name: req.Name, Err: err}
	}
	w.logf("Created SBOM scan %s (%s)", scanID, req.Name)
	return scanID, nil
}

// Poll queries job status until a terminal state or until MaxAttempts status
// reads have been made, sleeping PollInterval between reads. The delay is
// deliberately constant: jobs complete in tens of seconds and the budget
// exists for fast feedback, not backend load shedding. Exhausting the budget
// returns *PollTimeoutError with the last observed status.
func (w *Workflow) Poll(ctx context.Context, scanID string) (models.ScanStatus, error) {
	last := models.StatusInProgress
	for attempt := 1; attempt <= w.config.MaxAttempts; attempt++ {
		status, err := w.backend.GetStatus(ctx, scanID)
		if err != nil {
			return "", fmt.Errorf("failed to check status of scan %s: %w", scanID, err)
		}
		w.logf("Scan %s status: %s (attempt %d/%d)", scanID, status, attempt, w.config.MaxAttempts)

		if status.Terminal() {
			return status, nil
		}
		last = status

		if attempt < w.config.MaxAttempts {
			if err := w.sleep(ctx, w.config.PollInterval); err != nil {
				return last, err
			}
		}
	}
	return last, &PollTimeoutError{ScanID: scanID, Attempts: w.config.MaxAttempts, LastStatus: last}
}

// Retrieve fetches the final job record and findings for a scan whose last
// observed status is SUCCEEDED. Calling it in any other state is a sequencing
// error and makes no backend calls. When a results store is configured the
// raw job record, raw findings, and derived summary are persisted under
// scans/<id>/.
func (w *Workflow) Retrieve(ctx context.Context, scanID string, observed models.ScanStatus) (*models.ScanResult, error) {
	if observed != models.StatusSucceeded {
		return nil, &RetrievalError{ScanID: scanID, Status: observed}
	}

	job, err := w.backend.GetSbomScan(ctx, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scan record %s: %w", scanID, err)
	}

	findings, err := w.backend.ListFindings(ctx, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list findings for scan %s: %w", scanID, err)
	}

	result := &models.ScanResult{
		Job:         job,
		Findings:    findings,
		Summary:     classify.Summarize(findings),
		TopFindings: classify.Top(findings, w.config.TopCap),
	}

	if w.results != nil {
		if err := w.persist(ctx, result); err != nil {
			return nil, fmt.Errorf("failed to persist scan results: %w", err)
		}
	}
	return result, nil
}

// summaryRecord is the persisted summary.json shape.
type summaryRecord struct {
	ScanID        string                  `json:"scanId"`
	ScanName      string                  `json:"scanName"`
	Status        models.ScanStatus       `json:"status"`
	CompletedAt   *time.Time              `json:"completedAt,omitempty"`
	FindingCounts map[models.Severity]int `json:"findingCounts"`
	TotalFindings int                     `json:"totalFindings"`
	SBOMURL       string                  `json:"sbomUrl,omitempty"`
}

func (w *Workflow) persist(ctx context.Context, result *models.ScanResult) error {
	scanID := result.Job.ID

	artifacts := []struct {
		key string
		val any
	}{
		{store.ScanDetailsKey(scanID), result.Job},
		{store.FindingsKey(scanID), struct {
			Findings []models.Finding `json:"findings"`
		}{result.Findings}},
		{store.SummaryKey(scanID), summaryRecord{
			ScanID:        scanID,
			ScanName:      result.Job.Name,
			Status:        result.Job.Status,
			CompletedAt:   result.Job.CompletedAt,
			FindingCounts: result.Summary.Counts,
			TotalFindings: result.Summary.Total,
			SBOMURL:       result.Job.SBOMURL,
		}},
	}

	for _, a := range artifacts {
		data, err := json.Marshal(a.val)
		if err != nil {
			return err
		}
		if err := w.results.Put(ctx, a.key, data, "application/json"); err != nil {
			return err
		}
		w.logf("Saved %s", a.key)
	}
	return nil
}

// Run executes the full lifecycle for one SBOM document. A FAILED job
// surfaces as *PollFailedError; an exhausted poll budget as
// *PollTimeoutError.
func (w *Workflow) Run(ctx context.Context, sbomURL string, format models.SBOMFormat) (*models.ScanResult, error) {
	scanID, err := w.Submit(ctx, sbomURL, format)
	if err != nil {
		return nil, err
	}

	status, err := w.Poll(ctx, scanID)
	if err != nil {
		return nil, err
	}
	if status == models.StatusFailed {
		return nil, &PollFailedError{ScanID: scanID}
	}

	return w.Retrieve(ctx, scanID, status)
}
