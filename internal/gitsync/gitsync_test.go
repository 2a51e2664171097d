package gitsync

import (
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"

	"github.com/starford/ansuz/internal/models"
)

func initSyncer(t *testing.T) (*Syncer, string) {
	t.Helper()
	dir := t.TempDir()
	s := New(dir, models.Author{Name: "Test User", Email: "test@example.com"})
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s, dir
}

func TestInit_Idempotent(t *testing.T) {
	s, _ := initSyncer(t)
	if err := s.Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if !s.IsRepo() {
		t.Error("IsRepo = false after Init")
	}
}

func TestIsRepo_False(t *testing.T) {
	s := New(t.TempDir(), models.Author{})
	if s.IsRepo() {
		t.Error("IsRepo = true for plain directory")
	}
}

func TestCommit_RecordsAuthorAndMessage(t *testing.T) {
	s, dir := initSyncer(t)
	path := filepath.Join(dir, "entry.md")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := s.Commit([]string{"entry.md"}, "create entry"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatalf("PlainOpen: %v", err)
	}
	ref, err := repo.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		t.Fatalf("CommitObject: %v", err)
	}
	if commit.Message != "create entry" {
		t.Errorf("message = %q", commit.Message)
	}
	if commit.Author.Name != "Test User" || commit.Author.Email != "test@example.com" {
		t.Errorf("author = %s <%s>", commit.Author.Name, commit.Author.Email)
	}
}

func TestCommit_MultiplePaths(t *testing.T) {
	s, dir := initSyncer(t)
	for _, name := range []string{"a.md", "b.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := s.Commit([]string{"a.md", "b.md"}, "two files"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestCommit_NotARepo(t *testing.T) {
	s := New(t.TempDir(), models.Author{})
	if err := s.Commit([]string{"x.md"}, "msg"); err == nil {
		t.Error("expected error committing outside a repository")
	}
}

func TestAuthor_OverrideWins(t *testing.T) {
	s, _ := initSyncer(t)
	a := s.Author()
	if a.Name != "Test User" {
		t.Errorf("author = %q, want override", a.Name)
	}
}

func TestAuthor_FallbackOutsideRepo(t *testing.T) {
	s := New(t.TempDir(), models.Author{})
	a := s.Author()
	if a.Name == "" {
		t.Error("author name must never be empty")
	}
}
