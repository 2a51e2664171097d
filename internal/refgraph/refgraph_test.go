package refgraph

import (
	"reflect"
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func entry(id string, refs ...string) *models.Entry {
	return &models.Entry{ID: id, References: refs}
}

func TestReaches(t *testing.T) {
	g := Build([]*models.Entry{
		entry("a", "b"),
		entry("b", "c"),
		entry("c"),
		entry("d"),
	})
	cases := []struct {
		from, to string
		want     bool
	}{
		{"a", "b", true},
		{"a", "c", true}, // transitive
		{"c", "a", false},
		{"a", "d", false},
		{"a", "a", true},
	}
	for _, c := range cases {
		if got := g.Reaches(c.from, c.to); got != c.want {
			t.Errorf("Reaches(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestWouldCycle_SelfLoop(t *testing.T) {
	g := Build(nil)
	if !g.WouldCycle("a", "a") {
		t.Error("self loop must count as a cycle")
	}
}

func TestWouldCycle_DirectAndTransitive(t *testing.T) {
	g := Build([]*models.Entry{
		entry("a", "b"),
		entry("b", "c"),
		entry("c"),
	})
	if !g.WouldCycle("b", "a") {
		t.Error("adding b->a closes a direct cycle")
	}
	if !g.WouldCycle("c", "a") {
		t.Error("adding c->a closes a transitive cycle")
	}
	if g.WouldCycle("a", "c") {
		t.Error("a->c is forward only, no cycle")
	}
}

func TestWouldCycle_HandlesExistingCycleWithoutLooping(t *testing.T) {
	// A hand-edited repository may already contain a cycle; reachability
	// must still terminate.
	g := Build([]*models.Entry{
		entry("a", "b"),
		entry("b", "a"),
		entry("c"),
	})
	if g.Reaches("a", "c") {
		t.Error("c is not reachable from a")
	}
	if !g.Reaches("a", "b") {
		t.Error("b is reachable from a")
	}
}

func TestBacklinks(t *testing.T) {
	g := Build([]*models.Entry{
		entry("h1", "lit1"),
		entry("h2", "lit1", "lit2"),
		entry("lit1"),
		entry("lit2", "lit1"),
	})
	got := g.Backlinks("lit1")
	want := []string{"h1", "h2", "lit2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Backlinks = %v, want %v", got, want)
	}
	if got := g.Backlinks("h1"); len(got) != 0 {
		t.Errorf("Backlinks(h1) = %v, want empty", got)
	}
}
