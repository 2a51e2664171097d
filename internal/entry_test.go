package internal

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/entryservice"
	"github.com/starford/ansuz/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Git.Enabled = false
	cfg.Git.AutoCommit = false
	return cfg
}

func TestNewApp_InitThenCreate(t *testing.T) {
	dir := t.TempDir()
	app, err := NewApp(WithConfig(testConfig()), WithWorkingDir(dir), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	if app.Root() != dir {
		t.Errorf("root = %q, want %q", app.Root(), dir)
	}

	if err := app.InitRepository(); err != nil {
		t.Fatalf("InitRepository: %v", err)
	}
	for _, d := range app.Layout.Dirs() {
		if info, err := os.Stat(filepath.Join(dir, d)); err != nil || !info.IsDir() {
			t.Errorf("class directory %s missing: %v", d, err)
		}
	}
	// No config file was discovered, so init seeds one.
	if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); err != nil {
		t.Errorf("seed config missing: %v", err)
	}

	e, err := app.Service.Create(context.Background(), entryservice.CreateParams{
		Kind:  models.KindHypothesis,
		Title: "Wired end to end",
		Tags:  []string{"wiring"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, e.Path)); err != nil {
		t.Errorf("entry file not on disk: %v", err)
	}
	// The body comes from the template init just seeded.
	if !strings.Contains(e.Body, "# Wired end to end") {
		t.Errorf("body not rendered from template:\n%s", e.Body)
	}
}

func TestNewApp_ExplicitConfigPath(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "custom.yaml")
	cfgYAML := `repository:
  root: repo
  active_dir: wip
  knowledge_base_dir: done
  archive_dir: old
  date_format: "2006-01-02"
  stale_days: 7
git:
  enabled: false
  auto_commit: false
`
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	app, err := NewApp(WithConfigPath(cfgPath), WithWorkingDir(t.TempDir()), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	// A relative root is anchored at the config file's directory.
	if want := filepath.Join(dir, "repo"); app.Root() != want {
		t.Errorf("root = %q, want %q", app.Root(), want)
	}
	if app.Config.Repository.ActiveDir != "wip" || app.Config.Repository.StaleDays != 7 {
		t.Errorf("config not loaded: %+v", app.Config.Repository)
	}

	entries, issues, err := app.Service.List(context.Background(), models.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 || len(issues) != 0 {
		t.Errorf("fresh repository lists %d entries, %d issues", len(entries), len(issues))
	}
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Git.Enabled = false
	cfg.Git.AutoCommit = true

	if _, err := NewApp(WithConfig(cfg), WithWorkingDir(t.TempDir()), WithLogger(quietLogger())); err == nil {
		t.Fatal("NewApp accepted auto_commit without git enabled")
	}
}
