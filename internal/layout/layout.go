// Package layout maps an entry's kind and status to its canonical
// location inside the repository. Every entry is exactly one file at
// <class>/<kind-plural>/<id>.md, where class is the active root while the
// entry is in flight, the knowledge-base root once it concluded, and the
// archive root when archived.
package layout

import (
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// Layout derives directories and filenames from the configured class
// roots. It is pure path arithmetic; nothing here touches the disk.
type Layout struct {
	active        string
	knowledgeBase string
	archive       string
}

// New returns a layout over the three class roots, each a path relative
// to the repository root.
func New(activeDir, knowledgeBaseDir, archiveDir string) *Layout {
	return &Layout{
		active:        activeDir,
		knowledgeBase: knowledgeBaseDir,
		archive:       archiveDir,
	}
}

// Locate returns the directory an entry of the given kind and status must
// reside in.
func (l *Layout) Locate(kind models.Kind, status models.Status) string {
	return filepath.Join(l.classRoot(status), kind.Plural())
}

func (l *Layout) classRoot(status models.Status) string {
	switch {
	case status == models.StatusArchived:
		return l.archive
	case status.Concluded():
		return l.knowledgeBase
	default:
		return l.active
	}
}

// EntryPath returns the canonical repository-relative path for an entry.
func (l *Layout) EntryPath(e *models.Entry) string {
	return filepath.Join(l.Locate(e.Kind, e.Status), Filename(e.ID))
}

// Dirs enumerates every directory an entry may legally live in, for
// scaffolding and scanning.
func (l *Layout) Dirs() []string {
	out := make([]string, 0, len(models.Kinds)*3)
	for _, root := range l.Roots() {
		for _, k := range models.Kinds {
			out = append(out, filepath.Join(root, k.Plural()))
		}
	}
	return out
}

// Roots returns the three class roots in active, knowledge-base, archive
// order.
func (l *Layout) Roots() []string {
	return []string{l.active, l.knowledgeBase, l.archive}
}

// Filename derives the file name holding an entry.
func Filename(id string) string { return id + ".md" }

// EntryID recovers the entry id from a file path.
func EntryID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".md")
}
