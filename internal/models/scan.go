package models

import "time"

// SBOMFormat identifies the declared format of a submitted SBOM document.
type SBOMFormat string

const (
	FormatCycloneDX14 SBOMFormat = "CYCLONEDX_1_4"
	FormatCycloneDX15 SBOMFormat = "CYCLONEDX_1_5"
	FormatSPDX23      SBOMFormat = "SPDX_2_3"
)

// ParseSBOMFormat validates a format tag supplied on the command line.
func ParseSBOMFormat(s string) (SBOMFormat, bool) {
	switch SBOMFormat(s) {
	case FormatCycloneDX14, FormatCycloneDX15, FormatSPDX23:
		return SBOMFormat(s), true
	}
	return "", false
}

// ScanStatus is the lifecycle state of a backend scan job.
type ScanStatus string

const (
	StatusPending    ScanStatus = "PENDING"
	StatusInProgress ScanStatus = "IN_PROGRESS"
	StatusSucceeded  ScanStatus = "SUCCEEDED"
	StatusFailed     ScanStatus = "FAILED"
)

// Terminal reports whether no further status transition can occur.
func (s ScanStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// ScanRequest describes a single scan submission. Constructed once, never
// mutated.
type ScanRequest struct {
	SBOMURL string     // s3://bucket/key location of the staged document
	Format  SBOMFormat // declared format of the document
	Name    string     // unique per submission, see workflow.ScanName
}

// ScanJob is the backend's record of a submitted scan. Status changes only
// by re-fetching from the backend.
type ScanJob struct {
	ID          string     `json:"scanId"`
	Name        string     `json:"scanName"`
	Status      ScanStatus `json:"status"`
	SBOMURL     string     `json:"sbomUrl,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
