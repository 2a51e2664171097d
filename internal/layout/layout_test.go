package layout

import (
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func testLayout() *Layout {
	return New("active", "kb", "archive")
}

func TestLocate_Table(t *testing.T) {
	l := testLayout()
	cases := []struct {
		kind   models.Kind
		status models.Status
		want   string
	}{
		{models.KindHypothesis, models.StatusActive, "active/hypotheses"},
		{models.KindHypothesis, models.StatusProven, "kb/hypotheses"},
		{models.KindHypothesis, models.StatusDisproven, "kb/hypotheses"},
		{models.KindHypothesis, models.StatusArchived, "archive/hypotheses"},
		{models.KindLiterature, models.StatusPending, "active/literature"},
		{models.KindLiterature, models.StatusInProgress, "active/literature"},
		{models.KindLiterature, models.StatusCompleted, "kb/literature"},
		{models.KindLiterature, models.StatusArchived, "archive/literature"},
		{models.KindKnowledge, models.StatusDraft, "active/knowledge"},
		{models.KindKnowledge, models.StatusPublished, "kb/knowledge"},
		{models.KindKnowledge, models.StatusArchived, "archive/knowledge"},
	}
	for _, c := range cases {
		want := filepath.FromSlash(c.want)
		if got := l.Locate(c.kind, c.status); got != want {
			t.Errorf("Locate(%s, %s) = %q, want %q", c.kind, c.status, got, want)
		}
	}
}

func TestEntryPath(t *testing.T) {
	l := testLayout()
	e := &models.Entry{
		ID:     "2026-01-10-impact-of-quantum-noise-00a1b2",
		Kind:   models.KindHypothesis,
		Status: models.StatusActive,
	}
	want := filepath.FromSlash("active/hypotheses/2026-01-10-impact-of-quantum-noise-00a1b2.md")
	if got := l.EntryPath(e); got != want {
		t.Errorf("EntryPath = %q, want %q", got, want)
	}
}

func TestDirs_CoversEveryClassAndKind(t *testing.T) {
	l := testLayout()
	dirs := l.Dirs()
	if len(dirs) != 9 {
		t.Fatalf("len(Dirs) = %d, want 9", len(dirs))
	}
	seen := make(map[string]struct{}, len(dirs))
	for _, d := range dirs {
		seen[d] = struct{}{}
	}
	for _, k := range models.Kinds {
		for _, s := range models.Statuses(k) {
			if _, ok := seen[l.Locate(k, s)]; !ok {
				t.Errorf("Locate(%s, %s) = %q not produced by Dirs", k, s, l.Locate(k, s))
			}
		}
	}
}

func TestEntryID(t *testing.T) {
	path := filepath.FromSlash("kb/hypotheses/2026-01-10-x-00a1b2.md")
	if got := EntryID(path); got != "2026-01-10-x-00a1b2" {
		t.Errorf("EntryID = %q", got)
	}
}
