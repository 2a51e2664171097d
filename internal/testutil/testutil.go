// Package testutil provides shared test helpers for setting up entry
// repositories.
package testutil

import (
	"testing"
	"time"

	"github.com/starford/ansuz/internal/idgen"
	"github.com/starford/ansuz/internal/layout"
	"github.com/starford/ansuz/internal/storage"
)

// Dir names used by test repositories. Kept short so expected paths in
// assertions stay readable.
const (
	ActiveDir        = "active"
	KnowledgeBaseDir = "kb"
	ArchiveDir       = "archive"
)

// TestRepo creates a temporary repository directory with a storage
// provider and the standard three-class layout.
func TestRepo(t *testing.T) (string, storage.Provider, *layout.Layout) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store, layout.New(ActiveDir, KnowledgeBaseDir, ArchiveDir)
}

// TestAllocator returns an ID allocator with the default date format.
func TestAllocator(t *testing.T) *idgen.Allocator {
	t.Helper()
	return idgen.New("2006-01-02")
}

// FixedClock returns a deterministic time source stepping one second per
// call, so creation order is always distinguishable.
func FixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(time.Second)
		return now
	}
}
