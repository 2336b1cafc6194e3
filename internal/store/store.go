// Package store abstracts the blob store used to stage SBOM documents and to
// persist raw scan results for audit.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BlobStore is the narrow put/get/list contract the workflow depends on.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Result artifact layout under the results bucket. One directory per scan,
// holding the raw job record, the raw findings, and the derived summary.
const scansPrefix = "scans/"

func ScanDetailsKey(scanID string) string { return scansPrefix + scanID + "/scan-details.json" }
func FindingsKey(scanID string) string    { return scansPrefix + scanID + "/findings.json" }
func SummaryKey(scanID string) string     { return scansPrefix + scanID + "/summary.json" }

// ScansPrefix is the listing prefix covering all persisted scans.
func ScansPrefix() string { return scansPrefix }

// ScanIDFromKey extracts the scan id from a scans/<id>/... key.
func ScanIDFromKey(key string) string {
	rest, ok := strings.CutPrefix(key, scansPrefix)
	if !ok {
		return ""
	}
	id, _, ok := strings.Cut(rest, "/")
	if !ok {
		return ""
	}
	return id
}

// DirStore is a BlobStore over a local directory, used for local workflows
// and tests. Keys map onto relative file paths.
type DirStore struct {
	root string
}

// NewDirStore creates the root directory if needed.
func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", root, err)
	}
	return &DirStore{root: root}, nil
}

func (s *DirStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *DirStore) Put(_ context.Context, key string, data []byte, _ string) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *DirStore) Get(_ context.Context, key string) ([]byte, error) {
	return os.ReadFile(s.path(key))
}

func (s *DirStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
