package reporter

import "github.com/scanwell/sbomscan/internal/models"

// Reporter is the interface for output formatters
type Reporter interface {
	// Report generates output for the given scan result
	Report(result *models.ScanResult) ([]byte, error)
}

// Get returns a reporter for the specified format
func Get(format string) Reporter {
	switch format {
	case "json":
		return &JSONReporter{}
	case "csv":
		return &CSVReporter{}
	case "html":
		return &HTMLReporter{}
	default:
		return &TerminalReporter{}
	}
}

// Formats lists the machine-readable artifact formats written by `scan` in
// addition to the terminal summary.
var Formats = []string{"json", "csv", "html"}

// Valid reports whether format names a known reporter.
func Valid(format string) bool {
	switch format {
	case "terminal", "json", "csv", "html":
		return true
	}
	return false
}

// Extension returns the file extension for a format.
func Extension(format string) string {
	switch format {
	case "json":
		return ".json"
	case "csv":
		return ".csv"
	case "html":
		return ".html"
	default:
		return ".txt"
	}
}
