package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/scanwell/sbomscan/internal/models"
)

// Cache is a local TTL file cache for fetched findings, keyed by scan id, so
// re-rendering reports for a scan does not hit the backend again.
type Cache struct {
	Dir string
	TTL time.Duration
}

// DefaultTTL is the default cache time-to-live
const DefaultTTL = 24 * time.Hour

// New creates a new cache with the specified app name
func New(appName string, ttl time.Duration) (*Cache, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cacheDir := filepath.Join(homeDir, ".cache", appName)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, err
	}

	if ttl == 0 {
		ttl = DefaultTTL
	}

	return &Cache{
		Dir: cacheDir,
		TTL: ttl,
	}, nil
}

// keyToFilename converts a scan id to a safe filename
func (c *Cache) keyToFilename(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16]) + ".json"
}

// Path returns the full path to the cache file for a key
func (c *Cache) Path(key string) string {
	return filepath.Join(c.Dir, c.keyToFilename(key))
}

// GetFindings retrieves cached findings for a scan id if present and fresh.
func (c *Cache) GetFindings(scanID string) ([]models.Finding, bool) {
	path := c.Path(scanID)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > c.TTL {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var findings []models.Finding
	if err := json.Unmarshal(data, &findings); err != nil {
		return nil, false
	}
	return findings, true
}

// SetFindings stores findings for a scan id.
func (c *Cache) SetFindings(scanID string, findings []models.Finding) error {
	data, err := json.Marshal(findings)
	if err != nil {
		return err
	}
	return os.WriteFile(c.Path(scanID), data, 0644)
}

// Clear removes all cached files
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			os.Remove(filepath.Join(c.Dir, entry.Name()))
		}
	}
	return nil
}
