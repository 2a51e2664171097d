package idgen

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/models"
)

func TestAllocate_Unique(t *testing.T) {
	a := New("2006-01-02")
	now := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := a.Allocate(models.KindHypothesis, "Impact of quantum noise", now)
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d allocations: %s", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestAllocate_MonotonicWithinRun(t *testing.T) {
	a := New("2006-01-02")
	now := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = a.Allocate(models.KindKnowledge, "Same title", now)
	}
	if !sort.StringsAreSorted(ids) {
		t.Error("ids from one run with identical title/day must sort in allocation order")
	}
}

func TestAllocate_Format(t *testing.T) {
	a := New("2006-01-02")
	now := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	id := a.Allocate(models.KindHypothesis, "Impact of Quantum Noise!", now)
	if !strings.HasPrefix(id, "2026-01-10-impact-of-quantum-noise-") {
		t.Errorf("id = %q, want prefix 2026-01-10-impact-of-quantum-noise-", id)
	}
	suffix := id[strings.LastIndex(id, "-")+1:]
	if len(suffix) != disambigLen {
		t.Errorf("disambiguator = %q, want %d chars", suffix, disambigLen)
	}
}

func TestAllocate_EmptySlugFallsBackToKind(t *testing.T) {
	a := New("2006-01-02")
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	id := a.Allocate(models.KindLiterature, "???", now)
	if !strings.HasPrefix(id, "2026-01-10-literature-") {
		t.Errorf("id = %q, want kind fallback slug", id)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Impact of Quantum Noise", "impact-of-quantum-noise"},
		{"  spaces   everywhere  ", "spaces-everywhere"},
		{"C++ vs. Rust!!", "c-vs-rust"},
		{"MiXeD CaSe123", "mixed-case123"},
		{"???", ""},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSlugify_Bounded(t *testing.T) {
	long := strings.Repeat("word ", 30)
	slug := Slugify(long)
	if len(slug) > 40 {
		t.Errorf("len(slug) = %d, want <= 40", len(slug))
	}
	if strings.HasSuffix(slug, "-") {
		t.Errorf("slug %q has trailing separator", slug)
	}
}
