package cmd

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scanwell/sbomscan/internal/store"
)

var (
	flagUploadFile   string
	flagUploadBucket string
	flagUploadKey    string
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Stage an SBOM document in the SBOM bucket",
	RunE:  runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&flagUploadFile, "file", "", "Local SBOM document to upload (required)")
	uploadCmd.Flags().StringVarP(&flagUploadBucket, "bucket", "b", "", "Target bucket (default: configured SBOM bucket)")
	uploadCmd.Flags().StringVarP(&flagUploadKey, "key", "k", "", "Target key (default: sboms/<filename>)")
	uploadCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	bucket := flagUploadBucket
	if bucket == "" {
		bucket = cfg.SBOMBucket
	}
	if bucket == "" {
		return fmt.Errorf("no SBOM bucket configured; set --bucket")
	}

	key := flagUploadKey
	if key == "" {
		key = path.Join("sboms", filepath.Base(flagUploadFile))
	}

	data, err := os.ReadFile(flagUploadFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", flagUploadFile, err)
	}

	ctx := context.Background()
	ac, err := awsConfig(ctx, cfg)
	if err != nil {
		return err
	}
	if err := store.NewS3Store(ac, bucket).Put(ctx, key, data, "application/json"); err != nil {
		return err
	}

	fmt.Println(store.S3URL(bucket, key))
	return nil
}
