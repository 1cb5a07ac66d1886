package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"codeberg.org/snonux/kikitori/internal/wordstore"
)

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileContains checks if a file contains a substring
func AssertFileContains(t *testing.T, path string, substring string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}

	if !strings.Contains(string(content), substring) {
		t.Errorf("File %s does not contain expected substring: %q", path, substring)
	}
}

// NewTestStore opens an in-memory store holding words. IDs are "w1", "w2",
// ... in insertion order, including words added later.
func NewTestStore(t *testing.T, words ...wordstore.Word) *wordstore.Store {
	t.Helper()

	next := len(words)
	store, err := wordstore.Open(context.Background(), wordstore.NewMemoryPersister(words...),
		wordstore.WithIDGenerator(func() string {
			next++
			return "w" + strconv.Itoa(next)
		}))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	return store
}

// Words builds stored words from word/reading pairs, all dated date
func Words(date string, pairs ...string) []wordstore.Word {
	var words []wordstore.Word
	for i := 0; i+1 < len(pairs); i += 2 {
		words = append(words, wordstore.Word{
			ID:      "w" + strconv.Itoa(len(words)+1),
			Word:    pairs[i],
			Reading: pairs[i+1],
			Date:    date,
		})
	}
	return words
}
