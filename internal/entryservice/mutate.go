package entryservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/refgraph"
)

// CreateParams describes a new entry. Tags are normalized; SourceURL is
// only meaningful for literature.
type CreateParams struct {
	Kind      models.Kind
	Title     string
	Tags      []string
	SourceURL string
}

// Create allocates an ID, renders the body template, writes the entry at
// its canonical path and commits when git sync is on. Nothing is written
// when template rendering fails. An allocated ID colliding with any
// existing file is ErrDuplicateID, whichever directory holds the file.
func (s *Service) Create(_ context.Context, p CreateParams) (*models.Entry, error) {
	if !p.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnknownKind, p.Kind)
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, fmt.Errorf("create: title must not be empty")
	}
	if p.SourceURL != "" && p.Kind != models.KindLiterature {
		return nil, fmt.Errorf("create: source_url is only valid for literature")
	}

	now := s.now()
	e := &models.Entry{
		ID:        s.alloc.Allocate(p.Kind, title, now),
		Kind:      p.Kind,
		Title:     title,
		Status:    models.InitialStatus(p.Kind),
		Tags:      models.NormalizeTags(p.Tags),
		CreatedAt: now,
		UpdatedAt: now,
		SourceURL: p.SourceURL,
	}
	if s.author.Name != "" {
		a := s.author
		e.CreatedBy = &a
	}

	taken, err := s.idTaken(e.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", apperr.ErrDuplicateID, e.ID)
	}
	path := s.layout.EntryPath(e)

	body, err := s.renderer.Render(s.templates[p.Kind], e)
	if err != nil {
		return nil, err
	}
	e.Body = body

	data, err := parser.Serialize(e)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	e.Path = path
	s.logger.Info("created entry", "id", e.ID, "kind", e.Kind, "path", path)

	s.commit([]string{path}, fmt.Sprintf("Add %s: %s", e.Kind, e.Title))
	return e, nil
}

// Transition moves an entry to a new status, relocating its file to the
// status's directory. Moving to the current status is an idempotent
// no-op. The new file is written before the old one is removed, so a
// crash can duplicate the entry but never lose it.
func (s *Service) Transition(_ context.Context, id string, to models.Status) (*models.Entry, error) {
	e, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if e.Status == to {
		return e, nil
	}
	if !models.ValidStatus(e.Kind, to) || !models.CanTransition(e.Kind, e.Status, to) {
		return nil, fmt.Errorf("%w: %s %s -> %s", apperr.ErrInvalidTransition, e.Kind, e.Status, to)
	}

	oldPath := e.Path
	from := e.Status
	e.Status = to
	e.UpdatedAt = s.now()
	newPath := s.layout.EntryPath(e)

	data, err := parser.Serialize(e)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(newPath, data); err != nil {
		return nil, err
	}
	if oldPath != newPath {
		if err := s.store.Remove(oldPath); err != nil {
			return nil, fmt.Errorf("transition: entry written to %s but stale copy remains at %s: %w", newPath, oldPath, err)
		}
	}
	e.Path = newPath
	s.logger.Info("transitioned entry", "id", e.ID, "from", from, "to", to)

	s.commit(commitPaths(oldPath, newPath), fmt.Sprintf("Move %s to %s", e.ID, to))
	return e, nil
}

// AddReference records a directed reference on the source entry. Both
// entries must exist, self-references are rejected, and an edge that
// would close a cycle is rejected. Re-adding an existing edge is a no-op.
func (s *Service) AddReference(_ context.Context, fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("%w: entry cannot reference itself", apperr.ErrInvalidReference)
	}
	from, err := s.getByID(fromID)
	if err != nil {
		return asUnknownEntry(err, fromID)
	}
	if _, err := s.getByID(toID); err != nil {
		return asUnknownEntry(err, toID)
	}
	if from.HasReference(toID) {
		return nil
	}

	entries, issues, err := s.loadAll()
	if err != nil {
		return err
	}
	s.reportIssues(issues)
	if refgraph.Build(entries).WouldCycle(fromID, toID) {
		return fmt.Errorf("%w: %s -> %s would create a cycle", apperr.ErrInvalidReference, fromID, toID)
	}

	from.References = append(from.References, toID)
	if err := s.writeBack(from); err != nil {
		return err
	}
	s.logger.Info("added reference", "from", fromID, "to", toID)

	s.commit([]string{from.Path}, fmt.Sprintf("Link %s -> %s", fromID, toID))
	return nil
}

// RemoveReference drops a reference from the source entry. Removing an
// edge that is not present is a no-op, so dangling references left by
// hand edits can always be cleaned up.
func (s *Service) RemoveReference(_ context.Context, fromID, toID string) error {
	from, err := s.getByID(fromID)
	if err != nil {
		return err
	}
	if !from.HasReference(toID) {
		return nil
	}
	refs := from.References[:0]
	for _, r := range from.References {
		if r != toID {
			refs = append(refs, r)
		}
	}
	from.References = refs
	if err := s.writeBack(from); err != nil {
		return err
	}
	s.logger.Info("removed reference", "from", fromID, "to", toID)

	s.commit([]string{from.Path}, fmt.Sprintf("Unlink %s -> %s", fromID, toID))
	return nil
}

// UpdateBody replaces an entry's body text in place.
func (s *Service) UpdateBody(_ context.Context, id, body string) (*models.Entry, error) {
	e, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	e.Body = strings.TrimLeft(body, "\n\r")
	if err := s.writeBack(e); err != nil {
		return nil, err
	}
	s.logger.Info("updated entry body", "id", e.ID)

	s.commit([]string{e.Path}, fmt.Sprintf("Update %s", e.ID))
	return e, nil
}

// writeBack persists a mutated entry. The canonical path is written
// first; when the entry had drifted elsewhere the stale file is removed
// after, mirroring the transition ordering.
func (s *Service) writeBack(e *models.Entry) error {
	e.UpdatedAt = s.now()
	oldPath := e.Path
	newPath := s.layout.EntryPath(e)
	data, err := parser.Serialize(e)
	if err != nil {
		return err
	}
	if err := s.store.Write(newPath, data); err != nil {
		return err
	}
	if oldPath != "" && oldPath != newPath {
		if err := s.store.Remove(oldPath); err != nil {
			return fmt.Errorf("entry written to %s but stale copy remains at %s: %w", newPath, oldPath, err)
		}
	}
	e.Path = newPath
	return nil
}

// now returns the timestamp recorded on mutations, second granularity in
// UTC so files stay tidy and round-trips stay exact.
func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Second)
}

// commit records a mutation in git when enabled. Sync failures are
// logged, never propagated: the filesystem mutation already happened and
// is not rolled back.
func (s *Service) commit(paths []string, message string) {
	if s.sync == nil {
		return
	}
	if err := s.sync.Commit(paths, message); err != nil {
		s.logger.Warn("git sync failed", "error", err, "message", message)
	}
}

func commitPaths(oldPath, newPath string) []string {
	if oldPath == newPath {
		return []string{newPath}
	}
	return []string{oldPath, newPath}
}

// asUnknownEntry maps a failed lookup to ErrUnknownEntry; anything other
// than a missing entry (storage trouble, parse failure) passes through.
func asUnknownEntry(err error, id string) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%w: %s", apperr.ErrUnknownEntry, id)
	}
	return err
}
