package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/scanwell/sbomscan/internal/models"
)

var (
	flagConfig string
	flagRegion string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sbomscan",
	Short: "Submit SBOM documents for vulnerability scanning and summarize the findings",
	Long: `sbomscan drives an SBOM vulnerability scan end to end: it stages an SBOM
document in S3, submits it to the Amazon Inspector scan API, polls the job
until it completes, fetches the findings, and classifies them by severity.

The scan command exits with code 1 when CRITICAL findings are present, so it
can gate CI pipelines.

Examples:
  # Scan an already-staged SBOM
  sbomscan scan --sbom s3://my-sboms/sboms/app.json

  # Upload a local SBOM and scan it
  sbomscan scan --sbom ./app.cdx.json --sbom-bucket my-sboms

  # Re-render reports from stored findings
  sbomscan report --input findings.json --format html

  # Dashboard over recent persisted scans
  sbomscan dashboard --bucket my-results --output dashboard.html`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to TOML config file (default: ~/.config/sbomscan/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagRegion, "region", "", "AWS region (default: from environment/profile)")
}

// loadConfig reads the config file and applies the persistent flag overrides.
func loadConfig() (*models.Config, error) {
	cfg, err := models.LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagRegion != "" {
		cfg.Region = flagRegion
	}
	return cfg, nil
}

// awsConfig resolves credentials and region for the backend and blob store.
func awsConfig(ctx context.Context, cfg *models.Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	ac, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	if ac.Region == "" {
		return aws.Config{}, fmt.Errorf("no AWS region configured; set --region or AWS_REGION")
	}
	return ac, nil
}
