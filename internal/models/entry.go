// Package models defines the domain types for Ansuz.
package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

// Kind is the immutable category of an entry.
type Kind string

const (
	KindHypothesis Kind = "hypothesis"
	KindLiterature Kind = "literature"
	KindKnowledge  Kind = "knowledge"
)

// Kinds lists all recognized kinds in display order.
var Kinds = []Kind{KindHypothesis, KindLiterature, KindKnowledge}

// ParseKind maps a metadata value to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", apperr.ErrUnknownKind, s)
	}
	return k, nil
}

// Valid reports whether k is one of the recognized kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindHypothesis, KindLiterature, KindKnowledge:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Plural is the directory segment used for the kind's subdirectory.
func (k Kind) Plural() string {
	switch k {
	case KindHypothesis:
		return "hypotheses"
	case KindLiterature:
		return "literature"
	case KindKnowledge:
		return "knowledge"
	}
	return string(k)
}

// Author identifies who created an entry, taken from git configuration
// when available.
type Author struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

func (a Author) String() string {
	if a.Email == "" {
		return a.Name
	}
	return a.Name + " <" + a.Email + ">"
}

// Entry represents one research item: a hypothesis, a literature review,
// or a knowledge note. Its authoritative state is a single file on disk;
// Path is derived from kind and status and never serialized.
type Entry struct {
	ID         string         `json:"id"`
	Kind       Kind           `json:"kind"`
	Title      string         `json:"title"`
	Status     Status         `json:"status"`
	Tags       []string       `json:"tags,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	References []string       `json:"references,omitempty"`
	CreatedBy  *Author        `json:"created_by,omitempty"`
	SourceURL  string         `json:"source_url,omitempty"`
	Body       string         `json:"-"`
	Extra      map[string]any `json:"-"`
	Path       string         `json:"path,omitempty"`
}

// HasTag reports whether the entry carries the tag.
func (e *Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasReference reports whether the entry already points at id.
func (e *Entry) HasReference(id string) bool {
	for _, r := range e.References {
		if r == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand out entries without
// aliasing internal slices.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.Tags != nil {
		c.Tags = append([]string(nil), e.Tags...)
	}
	if e.References != nil {
		c.References = append([]string(nil), e.References...)
	}
	if e.CreatedBy != nil {
		a := *e.CreatedBy
		c.CreatedBy = &a
	}
	if e.Extra != nil {
		c.Extra = make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// NormalizeTags collapses duplicates, trims whitespace, drops empties and
// sorts. Tag order carries no meaning, so the canonical form is sorted.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// ListFilter narrows a listing. Zero-valued fields match everything;
// set fields are combined conjunctively.
type ListFilter struct {
	Kind   Kind
	Status Status
	Tag    string
	// Stale keeps only open entries untouched for the staleness window.
	// The window itself is engine configuration, so the engine applies
	// this predicate; Match ignores it.
	Stale bool
}

// Match reports whether the entry satisfies every set predicate.
func (f ListFilter) Match(e *Entry) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Tag != "" && !e.HasTag(f.Tag) {
		return false
	}
	return true
}
