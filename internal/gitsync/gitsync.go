// Package gitsync records repository mutations as git commits. It is a
// best-effort side effect: a failed commit is reported to the caller and
// never rolls back the filesystem mutation that preceded it.
package gitsync

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/starford/ansuz/internal/models"
)

// Syncer stages and commits entry files in the work tree at root.
type Syncer struct {
	root     string
	override models.Author
}

// New returns a syncer for the work tree at root. A non-empty override
// author takes precedence over the signature found in git configuration.
func New(root string, override models.Author) *Syncer {
	return &Syncer{root: root, override: override}
}

// Init creates a git repository at root. An existing repository is fine.
func (s *Syncer) Init() error {
	_, err := git.PlainInit(s.root, false)
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("gitsync: init repository: %w", err)
	}
	return nil
}

// IsRepo reports whether root is inside a git repository.
func (s *Syncer) IsRepo() bool {
	_, err := git.PlainOpen(s.root)
	return err == nil
}

// Commit stages the given repository-relative paths and records a commit
// signed by Author.
func (s *Syncer) Commit(paths []string, message string) error {
	repo, err := git.PlainOpen(s.root)
	if err != nil {
		return fmt.Errorf("gitsync: open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("gitsync: worktree: %w", err)
	}
	for _, p := range paths {
		if _, err := wt.Add(filepath.ToSlash(p)); err != nil {
			return fmt.Errorf("gitsync: stage %s: %w", p, err)
		}
	}
	author := s.Author()
	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  author.Name,
			Email: author.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("gitsync: commit: %w", err)
	}
	return nil
}

// Author resolves the signature used for commits and for new entries'
// created_by field: the configured override when set, then user.name and
// user.email from git configuration, then a bare fallback so commits
// always carry a name.
func (s *Syncer) Author() models.Author {
	if s.override.Name != "" {
		return s.override
	}
	if repo, err := git.PlainOpen(s.root); err == nil {
		if cfg, err := repo.ConfigScoped(gitconfig.SystemScope); err == nil && cfg.User.Name != "" {
			return models.Author{Name: cfg.User.Name, Email: cfg.User.Email}
		}
	}
	return models.Author{Name: "ansuz"}
}
