package models

import "time"

// Severity is the risk classification attached to a finding.
type Severity string

const (
	SeverityCritical      Severity = "CRITICAL"
	SeverityHigh          Severity = "HIGH"
	SeverityMedium        Severity = "MEDIUM"
	SeverityLow           Severity = "LOW"
	SeverityInformational Severity = "INFORMATIONAL"
)

// Severities lists the canonical buckets in descending order of risk.
var Severities = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInformational,
}

// ParseSeverity maps a backend severity string onto the canonical enum.
// Anything outside the five known values folds into INFORMATIONAL so that a
// new or malformed backend value never fails a scan.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(s)
	}
	return SeverityInformational
}

// Finding represents a single reported vulnerability from the scan backend.
// Immutable once fetched.
type Finding struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Severity        Severity   `json:"severity"`
	VulnerabilityID string     `json:"vulnerabilityId,omitempty"`
	PackageName     string     `json:"packageName,omitempty"`
	PackageVersion  string     `json:"packageVersion,omitempty"`
	CVSSScore       float64    `json:"cvssScore,omitempty"`
	FixAvailable    bool       `json:"fixAvailable"`
	FirstObservedAt *time.Time `json:"firstObservedAt,omitempty"`
	LastObservedAt  *time.Time `json:"lastObservedAt,omitempty"`
	Description     string     `json:"description,omitempty"`
}

// String returns a human-readable representation.
func (f Finding) String() string {
	if f.PackageName == "" {
		return f.Title
	}
	return f.PackageName + "@" + f.PackageVersion
}
