package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/msgir/internal/testutil"
)

// createTestStore creates a new store in a temp directory for testing.
// Compilation ids come from a FixedIDGenerator.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewFixedIDGenerator("")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
