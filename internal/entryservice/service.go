// Package entryservice is the engine orchestrating entry lifecycle:
// creation, lookup, listing, status transitions and the reference graph.
// The filesystem is the system of record; every read scans it fresh.
package entryservice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/gitsync"
	"github.com/starford/ansuz/internal/idgen"
	"github.com/starford/ansuz/internal/layout"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/refgraph"
	"github.com/starford/ansuz/internal/render"
	"github.com/starford/ansuz/internal/storage"
)

// ParseIssue reports one file that could not be parsed during a scan.
// Listings skip the offending file instead of failing wholesale.
type ParseIssue struct {
	Path string `json:"path"`
	Err  error  `json:"error"`
}

// Service coordinates storage, layout, identifiers, templates and git.
type Service struct {
	store     storage.Provider
	layout    *layout.Layout
	alloc     *idgen.Allocator
	renderer  *render.Renderer
	sync      *gitsync.Syncer
	templates map[models.Kind]string
	author    models.Author
	staleDays int
	clock     func() time.Time
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithGitSync enables commit-on-mutation through the given syncer.
func WithGitSync(g *gitsync.Syncer) Option {
	return func(s *Service) { s.sync = g }
}

// WithTemplates sets the per-kind template paths used on create.
func WithTemplates(t map[models.Kind]string) Option {
	return func(s *Service) { s.templates = t }
}

// WithAuthor sets the author recorded on new entries.
func WithAuthor(a models.Author) Option {
	return func(s *Service) { s.author = a }
}

// WithStaleDays sets the window after which an open entry counts as
// stale in listings.
func WithStaleDays(days int) Option {
	return func(s *Service) { s.staleDays = days }
}

// WithClock overrides the time source.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.clock = fn }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates the engine over the given collaborators.
func NewService(store storage.Provider, lay *layout.Layout, alloc *idgen.Allocator, renderer *render.Renderer, opts ...Option) *Service {
	s := &Service{
		store:     store,
		layout:    lay,
		alloc:     alloc,
		renderer:  renderer,
		staleDays: 14,
		clock:     time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the entry with exactly the given ID.
func (s *Service) Get(_ context.Context, id string) (*models.Entry, error) {
	return s.getByID(id)
}

// Resolve finds an entry by full ID or unique ID prefix. Zero matches is
// ErrNotFound, more than one is ErrAmbiguousID.
func (s *Service) Resolve(_ context.Context, partial string) (*models.Entry, error) {
	if partial == "" {
		return nil, fmt.Errorf("%w: empty id", apperr.ErrNotFound)
	}
	paths, err := s.scanPaths()
	if err != nil {
		return nil, err
	}
	var exact []string
	prefixed := make(map[string][]string)
	for _, p := range paths {
		stem := layout.EntryID(p)
		switch {
		case stem == partial:
			exact = append(exact, p)
		case strings.HasPrefix(stem, partial):
			prefixed[stem] = append(prefixed[stem], p)
		}
	}
	if len(exact) > 0 {
		return s.loadPreferred(partial, exact)
	}
	stems := make([]string, 0, len(prefixed))
	for stem := range prefixed {
		stems = append(stems, stem)
	}
	sort.Strings(stems)
	switch len(stems) {
	case 0:
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, partial)
	case 1:
		return s.loadPreferred(stems[0], prefixed[stems[0]])
	default:
		return nil, fmt.Errorf("%w: %s matches %s", apperr.ErrAmbiguousID, partial, strings.Join(stems, ", "))
	}
}

// List scans the repository and returns the entries matching the filter,
// in creation order. Files that fail to parse are skipped and reported as
// issues so one corrupt file cannot hide the rest. A stale filter keeps
// only open entries untouched for the configured window.
func (s *Service) List(_ context.Context, filter models.ListFilter) ([]*models.Entry, []ParseIssue, error) {
	entries, issues, err := s.loadAll()
	if err != nil {
		return nil, nil, err
	}
	var cutoff time.Time
	if filter.Stale {
		cutoff = s.now().Add(-time.Duration(s.staleDays) * 24 * time.Hour)
	}
	out := entries[:0]
	for _, e := range entries {
		if !filter.Match(e) {
			continue
		}
		if filter.Stale && !stale(e, cutoff) {
			continue
		}
		out = append(out, e)
	}
	return out, issues, nil
}

// stale reports whether the entry is still open yet untouched since the
// cutoff. Concluded and archived entries never count: no further work is
// expected on them. An update exactly at the cutoff is already stale.
func stale(e *models.Entry, cutoff time.Time) bool {
	if e.Status == models.StatusArchived || e.Status.Concluded() {
		return false
	}
	return !e.UpdatedAt.After(cutoff)
}

// Backlinks returns the entries whose references include id, in creation
// order.
func (s *Service) Backlinks(_ context.Context, id string) ([]*models.Entry, error) {
	if _, err := s.getByID(id); err != nil {
		return nil, err
	}
	entries, issues, err := s.loadAll()
	if err != nil {
		return nil, err
	}
	s.reportIssues(issues)
	g := refgraph.Build(entries)
	byID := make(map[string]*models.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	var out []*models.Entry
	for _, src := range g.Backlinks(id) {
		if e, ok := byID[src]; ok {
			out = append(out, e)
		}
	}
	sortByCreation(out)
	return out, nil
}

// idTaken reports whether any class directory already holds a file named
// after the id, whatever status that copy carries.
func (s *Service) idTaken(id string) (bool, error) {
	name := layout.Filename(id)
	for _, dir := range s.layout.Dirs() {
		taken, err := s.store.Exists(filepath.Join(dir, name))
		if err != nil {
			return false, err
		}
		if taken {
			return true, nil
		}
	}
	return false, nil
}

// getByID locates an entry file named after the exact id.
func (s *Service) getByID(id string) (*models.Entry, error) {
	paths, err := s.scanPaths()
	if err != nil {
		return nil, err
	}
	name := layout.Filename(id)
	var matches []string
	for _, p := range paths {
		if filepath.Base(p) == name {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, id)
	}
	return s.loadPreferred(id, matches)
}

// loadPreferred picks among candidate paths for one entry. More than one
// candidate means a crashed transition left a stale copy behind.
func (s *Service) loadPreferred(id string, paths []string) (*models.Entry, error) {
	if len(paths) == 1 {
		return s.loadEntry(paths[0])
	}
	s.logger.Warn("entry present at multiple paths", "id", id, "paths", paths)
	var best *models.Entry
	for _, p := range paths {
		e, err := s.loadEntry(p)
		if err != nil {
			continue
		}
		if best == nil || s.preferred(e, best) {
			best = e
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, id)
	}
	return best, nil
}

// preferred reports whether a should shadow b when both claim the same
// ID. A copy at its canonical path beats a drifted one; between two
// canonical copies the most recently updated is the one whose write
// completed, the other is the leftover of an interrupted transition.
func (s *Service) preferred(a, b *models.Entry) bool {
	aCanon := s.layout.EntryPath(a) == a.Path
	bCanon := s.layout.EntryPath(b) == b.Path
	if aCanon != bCanon {
		return aCanon
	}
	return aCanon && a.UpdatedAt.After(b.UpdatedAt)
}

func (s *Service) loadEntry(path string) (*models.Entry, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	e, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	e.Path = path
	return e, nil
}

// scanPaths lists every entry file under the three class roots.
func (s *Service) scanPaths() ([]string, error) {
	var out []string
	for _, root := range s.layout.Roots() {
		paths, err := s.store.List(root)
		if err != nil {
			return nil, err
		}
		out = append(out, paths...)
	}
	return out, nil
}

// loadAll reads and parses every entry in the repository, in creation
// order, collecting per-file parse issues along the way.
func (s *Service) loadAll() ([]*models.Entry, []ParseIssue, error) {
	paths, err := s.scanPaths()
	if err != nil {
		return nil, nil, err
	}
	entries := make([]*models.Entry, 0, len(paths))
	var issues []ParseIssue
	for _, p := range paths {
		e, err := s.loadEntry(p)
		if err != nil {
			issues = append(issues, ParseIssue{Path: p, Err: err})
			continue
		}
		entries = append(entries, e)
	}
	entries = s.dedupe(entries)
	sortByCreation(entries)
	return entries, issues, nil
}

// dedupe collapses duplicate IDs left behind by an interrupted
// transition, keeping the copy at its canonical path.
func (s *Service) dedupe(entries []*models.Entry) []*models.Entry {
	at := make(map[string]int, len(entries))
	out := entries[:0]
	for _, e := range entries {
		i, seen := at[e.ID]
		if !seen {
			at[e.ID] = len(out)
			out = append(out, e)
			continue
		}
		s.logger.Warn("entry present at multiple paths",
			"id", e.ID, "path", e.Path, "other", out[i].Path)
		if s.preferred(e, out[i]) {
			out[i] = e
		}
	}
	return out
}

func (s *Service) reportIssues(issues []ParseIssue) {
	for _, issue := range issues {
		s.logger.Warn("skipping unparseable entry file", "path", issue.Path, "error", issue.Err)
	}
}

func sortByCreation(entries []*models.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}
