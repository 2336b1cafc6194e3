package workflow

import (
	"fmt"

	"github.com/scanwell/sbomscan/internal/models"
)

// SubmissionError is a backend rejection at submit time: bad format,
// unreachable document, permission denied. Never retried — resubmitting a
// malformed request wastes quota.
type SubmissionError struct {
	Name string
	Err  error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("scan submission %q rejected: %v", e.Name, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// PollTimeoutError means the attempt budget ran out while the job was still
// non-terminal. The outcome is unknown: the job keeps running remotely and
// can be re-polled later by scan id.
type PollTimeoutError struct {
	ScanID     string
	Attempts   int
	LastStatus models.ScanStatus
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("scan %s still %s after %d poll attempts", e.ScanID, e.LastStatus, e.Attempts)
}

// PollFailedError means the backend reported the job as terminally FAILED.
// This is an authoritative answer, not a transient condition.
type PollFailedError struct {
	ScanID string
}

func (e *PollFailedError) Error() string {
	return fmt.Sprintf("scan %s failed", e.ScanID)
}

// RetrievalError means results were requested for a job not in SUCCEEDED
// state. A sequencing bug in the caller, fatal and never retried.
type RetrievalError struct {
	ScanID string
	Status models.ScanStatus
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("cannot retrieve results for scan %s in state %s", e.ScanID, e.Status)
}
