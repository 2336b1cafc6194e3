package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/scanwell/sbomscan/internal/cache"
	"github.com/scanwell/sbomscan/internal/classify"
	"github.com/scanwell/sbomscan/internal/clients"
	"github.com/scanwell/sbomscan/internal/models"
	"github.com/scanwell/sbomscan/internal/reporter"
	"github.com/scanwell/sbomscan/internal/store"
)

var (
	flagReportInput     string
	flagReportBucket    string
	flagReportKey       string
	flagReportScanID    string
	flagReportFormat    string
	flagReportOutputDir string
	flagReportNoCache   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Re-derive the severity summary and reports from stored findings",
	Long: `report classifies an existing findings collection without running a scan.

The findings come from one of three sources: a local JSON file (--input), an
object in the results bucket (--bucket and --key), or the backend itself by
scan id (--scan-id, cached locally between runs).`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&flagReportInput, "input", "i", "", "Path to a findings JSON file")
	reportCmd.Flags().StringVarP(&flagReportBucket, "bucket", "b", "", "Bucket containing the findings object")
	reportCmd.Flags().StringVarP(&flagReportKey, "key", "k", "", "Key of the findings object")
	reportCmd.Flags().StringVarP(&flagReportScanID, "scan-id", "s", "", "Scan id to fetch findings for")
	reportCmd.Flags().StringVarP(&flagReportFormat, "format", "f", "all", "Report format: terminal, json, csv, html, all")
	reportCmd.Flags().StringVarP(&flagReportOutputDir, "output-dir", "o", "", "Directory for report artifacts (default: ./sbom-analysis)")
	reportCmd.Flags().BoolVar(&flagReportNoCache, "no-cache", false, "Bypass the local findings cache")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if flagReportFormat != "all" && !reporter.Valid(flagReportFormat) {
		return fmt.Errorf("unknown report format %q (want terminal, json, csv, html, or all)", flagReportFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagReportOutputDir != "" {
		cfg.OutputDir = flagReportOutputDir
	}

	ctx := context.Background()
	findings, err := loadFindings(ctx, cfg)
	if err != nil {
		return err
	}

	result := &models.ScanResult{
		Job:         models.ScanJob{ID: flagReportScanID},
		Findings:    findings,
		Summary:     classify.Summarize(findings),
		TopFindings: classify.Top(findings, cfg.TopCap),
	}

	if flagReportFormat == "terminal" || flagReportFormat == "all" {
		out, err := reporter.Get("terminal").Report(result)
		if err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		fmt.Print(string(out))
		if flagReportFormat == "terminal" {
			return nil
		}
	}

	if flagReportFormat == "all" {
		return writeArtifacts(cfg.OutputDir, result)
	}
	return writeArtifact(cfg.OutputDir, flagReportFormat, result)
}

// loadFindings resolves the findings source: local file, blob store object,
// or backend by scan id.
func loadFindings(ctx context.Context, cfg *models.Config) ([]models.Finding, error) {
	switch {
	case flagReportInput != "":
		data, err := os.ReadFile(flagReportInput)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", flagReportInput, err)
		}
		return decodeFindings(data)

	case flagReportBucket != "" && flagReportKey != "":
		ac, err := awsConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		data, err := store.NewS3Store(ac, flagReportBucket).Get(ctx, flagReportKey)
		if err != nil {
			return nil, err
		}
		return decodeFindings(data)

	case flagReportScanID != "":
		return fetchFindings(ctx, cfg, flagReportScanID)
	}
	return nil, fmt.Errorf("provide --input, --bucket and --key, or --scan-id")
}

func fetchFindings(ctx context.Context, cfg *models.Config, scanID string) ([]models.Finding, error) {
	var c *cache.Cache
	if !cfg.NoCache && !flagReportNoCache {
		c, _ = cache.New("sbomscan", cfg.CacheTTL)
	}
	if c != nil {
		if findings, ok := c.GetFindings(scanID); ok {
			return findings, nil
		}
	}

	ac, err := awsConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	findings, err := clients.NewInspectorClient(ac, cfg.Timeout).ListFindings(ctx, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch findings for scan %s: %w", scanID, err)
	}

	if c != nil {
		c.SetFindings(scanID, findings)
	}
	return findings, nil
}

// decodeFindings accepts both a bare findings array and the persisted
// {"findings": [...]} wrapper.
func decodeFindings(data []byte) ([]models.Finding, error) {
	var wrapped struct {
		Findings []models.Finding `json:"findings"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		return wrapped.Findings, nil
	}

	var findings []models.Finding
	if err := json.Unmarshal(data, &findings); err != nil {
		return nil, fmt.Errorf("failed to parse findings JSON: %w", err)
	}
	return findings, nil
}

func writeArtifact(dir, format string, result *models.ScanResult) error {
	out, err := reporter.Get(format).Report(result)
	if err != nil {
		return fmt.Errorf("failed to generate %s report: %w", format, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("sbom_report_%s%s", time.Now().Format("20060102-150405"), reporter.Extension(format))
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	fmt.Fprintf(os.Stderr, "Report written to %s\n", target)
	return nil
}
