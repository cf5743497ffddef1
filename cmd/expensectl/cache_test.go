package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	cache, err := loadCache(path)
	require.NoError(t, err)
	assert.Empty(t, cache.ProcessedFiles)

	cache.ProcessedFiles[cacheKey(1, "abc")] = processedFile{Path: "a.csv", OwnerID: 1, Expenses: 3, ImportedAt: time.Now()}
	require.NoError(t, saveCache(path, cache))

	loaded, err := loadCache(path)
	require.NoError(t, err)
	require.Contains(t, loaded.ProcessedFiles, "1:abc")
	assert.Equal(t, 3, loaded.ProcessedFiles["1:abc"].Expenses)
}

func TestLoadCache_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := loadCache(path)
	assert.Error(t, err)
}

func TestFileHashIsStable(t *testing.T) {
	a, err := fileHash(strings.NewReader("date,description,amount\n"))
	require.NoError(t, err)
	b, err := fileHash(strings.NewReader("date,description,amount\n"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestCollectStatements(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.PDF", "notes.txt", filepath.Join("sub", "c.csv")} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	files, err := collectStatements([]string{dir, filepath.Join(dir, "b.csv")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.PDF"),
		filepath.Join(dir, "b.csv"),
		filepath.Join(dir, "sub", "c.csv"),
	}, files)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate(" abc ", 5))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"import", "migrate", "token"})
}
