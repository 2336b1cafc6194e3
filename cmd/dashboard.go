package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/scanwell/sbomscan/internal/models"
	"github.com/scanwell/sbomscan/internal/reporter"
	"github.com/scanwell/sbomscan/internal/store"
)

var (
	flagDashBucket   string
	flagDashMaxScans int
	flagDashOutput   string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render an HTML dashboard over recent persisted scans",
	RunE:  runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVarP(&flagDashBucket, "bucket", "b", "", "Results bucket to read scans from")
	dashboardCmd.Flags().IntVar(&flagDashMaxScans, "max-scans", 10, "Number of most recent scans to include")
	dashboardCmd.Flags().StringVarP(&flagDashOutput, "output", "o", "inspector-dashboard.html", "Output HTML file")
	rootCmd.AddCommand(dashboardCmd)
}

// persistedSummary mirrors the summary.json artifact written by the workflow.
type persistedSummary struct {
	ScanID        string                  `json:"scanId"`
	ScanName      string                  `json:"scanName"`
	Status        models.ScanStatus       `json:"status"`
	CompletedAt   *time.Time              `json:"completedAt"`
	FindingCounts map[models.Severity]int `json:"findingCounts"`
	TotalFindings int                     `json:"totalFindings"`
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bucket := flagDashBucket
	if bucket == "" {
		bucket = cfg.ResultsBucket
	}
	if bucket == "" {
		return fmt.Errorf("no results bucket configured; set --bucket")
	}

	ctx := context.Background()
	ac, err := awsConfig(ctx, cfg)
	if err != nil {
		return err
	}
	results := store.NewS3Store(ac, bucket)

	scans, findings, err := collectScans(ctx, results, flagDashMaxScans)
	if err != nil {
		return err
	}
	if len(scans) == 0 {
		return fmt.Errorf("no persisted scans under s3://%s/%s", bucket, store.ScansPrefix())
	}

	out, err := reporter.RenderDashboard(scans, findings)
	if err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	if err := os.WriteFile(flagDashOutput, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", flagDashOutput, err)
	}
	fmt.Fprintf(os.Stderr, "Dashboard written to %s (%d scans)\n", flagDashOutput, len(scans))
	return nil
}

// collectScans loads the newest maxScans summaries and their findings from
// the results store.
func collectScans(ctx context.Context, results store.BlobStore, maxScans int) ([]reporter.DashboardScan, []models.Finding, error) {
	keys, err := results.List(ctx, store.ScansPrefix())
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool)
	var scanIDs []string
	for _, key := range keys {
		if id := store.ScanIDFromKey(key); id != "" && !seen[id] {
			seen[id] = true
			scanIDs = append(scanIDs, id)
		}
	}

	var scans []reporter.DashboardScan
	for _, id := range scanIDs {
		data, err := results.Get(ctx, store.SummaryKey(id))
		if err != nil {
			// Incomplete scan directory, skip it.
			continue
		}
		var summary persistedSummary
		if err := json.Unmarshal(data, &summary); err != nil {
			continue
		}
		scans = append(scans, reporter.DashboardScan{
			ScanID:      summary.ScanID,
			ScanName:    summary.ScanName,
			Status:      summary.Status,
			CompletedAt: summary.CompletedAt,
			Summary: models.SeveritySummary{
				Counts: summary.FindingCounts,
				Total:  summary.TotalFindings,
			},
		})
	}

	sort.SliceStable(scans, func(i, j int) bool {
		a, b := scans[i].CompletedAt, scans[j].CompletedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	if len(scans) > maxScans {
		scans = scans[:maxScans]
	}

	var findings []models.Finding
	for _, s := range scans {
		data, err := results.Get(ctx, store.FindingsKey(s.ScanID))
		if err != nil {
			continue
		}
		var wrapped struct {
			Findings []models.Finding `json:"findings"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			continue
		}
		findings = append(findings, wrapped.Findings...)
	}

	return scans, findings, nil
}
