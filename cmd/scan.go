package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"

	"github.com/scanwell/sbomscan/internal/clients"
	"github.com/scanwell/sbomscan/internal/models"
	"github.com/scanwell/sbomscan/internal/reporter"
	"github.com/scanwell/sbomscan/internal/store"
	"github.com/scanwell/sbomscan/internal/workflow"
)

var (
	flagScanSBOM          string
	flagScanFormat        string
	flagScanSBOMBucket    string
	flagScanResultsBucket string
	flagScanOutputDir     string
	flagScanMaxAttempts   int
	flagScanPollInterval  time.Duration
	flagScanTopCap        int
	flagScanNoFail        bool
	flagScanNoPersist     bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Submit an SBOM for scanning, wait for completion, and report findings",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&flagScanSBOM, "sbom", "", "SBOM document: local file path or s3:// location (required)")
	scanCmd.Flags().StringVar(&flagScanFormat, "sbom-format", string(models.FormatCycloneDX14), "Declared SBOM format: CYCLONEDX_1_4, CYCLONEDX_1_5, SPDX_2_3")
	scanCmd.Flags().StringVar(&flagScanSBOMBucket, "sbom-bucket", "", "Bucket to stage a local SBOM into")
	scanCmd.Flags().StringVar(&flagScanResultsBucket, "results-bucket", "", "Bucket for raw result artifacts")
	scanCmd.Flags().StringVarP(&flagScanOutputDir, "output-dir", "o", "", "Directory for report artifacts (default: ./sbom-analysis)")
	scanCmd.Flags().IntVar(&flagScanMaxAttempts, "max-attempts", 0, "Maximum status poll attempts (default: 30)")
	scanCmd.Flags().DurationVar(&flagScanPollInterval, "poll-interval", 0, "Delay between status polls, as a duration like 10s (default: 10s)")
	scanCmd.Flags().IntVar(&flagScanTopCap, "top", 0, "Maximum CRITICAL/HIGH findings to list (default: 10)")
	scanCmd.Flags().BoolVar(&flagScanNoFail, "no-fail", false, "Don't exit with code 1 on CRITICAL findings")
	scanCmd.Flags().BoolVar(&flagScanNoPersist, "no-persist", false, "Don't persist raw results to the results bucket")
	scanCmd.MarkFlagRequired("sbom")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyScanFlags(cfg)

	format, ok := models.ParseSBOMFormat(flagScanFormat)
	if !ok {
		return fmt.Errorf("unknown SBOM format %q", flagScanFormat)
	}

	ctx := context.Background()
	ac, err := awsConfig(ctx, cfg)
	if err != nil {
		return err
	}

	sbomURL, err := resolveSBOMLocation(ctx, ac, cfg)
	if err != nil {
		return fmt.Errorf("staging failed: %w", err)
	}

	backend := clients.NewInspectorClient(ac, cfg.Timeout)
	var results store.BlobStore
	if cfg.PersistResults && cfg.ResultsBucket != "" {
		results = store.NewS3Store(ac, cfg.ResultsBucket)
	}

	w := workflow.New(cfg, backend, results)
	result, err := w.Run(ctx, sbomURL, format)
	if err != nil {
		return describePhase(err)
	}

	out, err := reporter.Get("terminal").Report(result)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	fmt.Print(string(out))

	if err := writeArtifacts(cfg.OutputDir, result); err != nil {
		return err
	}

	if result.Summary.Count(models.SeverityCritical) > 0 && cfg.FailOnCritical {
		fmt.Fprintf(os.Stderr, "CRITICAL findings present, failing the build\n")
		os.Exit(1)
	}
	return nil
}

func applyScanFlags(cfg *models.Config) {
	if flagScanSBOMBucket != "" {
		cfg.SBOMBucket = flagScanSBOMBucket
	}
	if flagScanResultsBucket != "" {
		cfg.ResultsBucket = flagScanResultsBucket
	}
	if flagScanOutputDir != "" {
		cfg.OutputDir = flagScanOutputDir
	}
	if flagScanMaxAttempts > 0 {
		cfg.MaxAttempts = flagScanMaxAttempts
	}
	if flagScanPollInterval > 0 {
		cfg.PollInterval = flagScanPollInterval
	}
	if flagScanTopCap > 0 {
		cfg.TopCap = flagScanTopCap
	}
	if flagScanNoFail {
		cfg.FailOnCritical = false
	}
	if flagScanNoPersist {
		cfg.PersistResults = false
	}
}

// resolveSBOMLocation returns the s3:// location of the document to scan,
// uploading a local file to the SBOM bucket first when needed.
func resolveSBOMLocation(ctx context.Context, ac aws.Config, cfg *models.Config) (string, error) {
	if _, _, ok := store.ParseS3URL(flagScanSBOM); ok {
		return flagScanSBOM, nil
	}

	if cfg.SBOMBucket == "" {
		return "", fmt.Errorf("--sbom is a local file but no SBOM bucket is configured")
	}

	data, err := os.ReadFile(flagScanSBOM)
	if err != nil {
		return "", fmt.Errorf("failed to read SBOM %s: %w", flagScanSBOM, err)
	}

	key := path.Join("sboms", filepath.Base(flagScanSBOM))
	sboms := store.NewS3Store(ac, cfg.SBOMBucket)
	if err := sboms.Put(ctx, key, data, "application/json"); err != nil {
		return "", err
	}

	url := store.S3URL(cfg.SBOMBucket, key)
	fmt.Fprintf(os.Stderr, "Uploaded %s to %s\n", flagScanSBOM, url)
	return url, nil
}

// describePhase prefixes workflow errors with the phase that failed, so CI
// logs say more than the bare message.
func describePhase(err error) error {
	var (
		submission *workflow.SubmissionError
		timeout    *workflow.PollTimeoutError
		failed     *workflow.PollFailedError
		retrieval  *workflow.RetrievalError
	)
	switch {
	case errors.As(err, &submission):
		return fmt.Errorf("submission failed: %w", err)
	case errors.As(err, &timeout):
		return fmt.Errorf("poll budget exhausted (outcome unknown, re-check scan %s later): %w", timeout.ScanID, err)
	case errors.As(err, &failed):
		return fmt.Errorf("scan failed on the backend: %w", err)
	case errors.As(err, &retrieval):
		return fmt.Errorf("retrieval failed: %w", err)
	}
	return err
}

func writeArtifacts(dir string, result *models.ScanResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	timestamp := time.Now().Format("20060102-150405")
	names := map[string]string{
		"json": fmt.Sprintf("scan_result_%s.json", timestamp),
		"csv":  fmt.Sprintf("vulnerability_details_%s.csv", timestamp),
		"html": fmt.Sprintf("sbom_analysis_report_%s.html", timestamp),
	}

	for _, format := range reporter.Formats {
		out, err := reporter.Get(format).Report(result)
		if err != nil {
			return fmt.Errorf("failed to generate %s report: %w", format, err)
		}
		target := filepath.Join(dir, names[format])
		if err := os.WriteFile(target, out, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", target)
	}
	return nil
}
