package main

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// importCache remembers which statement files were already imported per
// owner, keyed by content hash, so re-running an import skips them.
type importCache struct {
	ProcessedFiles map[string]processedFile `json:"processed_files"`
}

type processedFile struct {
	Path       string    `json:"path"`
	OwnerID    int64     `json:"owner_id"`
	Expenses   int       `json:"expenses"`
	ImportedAt time.Time `json:"imported_at"`
}

func cacheKey(ownerID int64, hash string) string {
	return fmt.Sprintf("%d:%s", ownerID, hash)
}

func loadCache(cacheFile string) (*importCache, error) {
	cache := &importCache{ProcessedFiles: make(map[string]processedFile)}
	if cacheFile == "" {
		return cache, nil
	}

	data, err := os.ReadFile(cacheFile)
	if os.IsNotExist(err) {
		return cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return cache, nil
	}

	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	if cache.ProcessedFiles == nil {
		cache.ProcessedFiles = make(map[string]processedFile)
	}
	return cache, nil
}

func saveCache(cacheFile string, cache *importCache) error {
	if cacheFile == "" {
		return nil
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	if err := os.WriteFile(cacheFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

func fileHash(r io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}
	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
