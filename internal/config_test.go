package internal

import (
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestRepositoryConfig_RequiredFields(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Repository.ActiveDir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty active_dir should fail validation")
	}

	cfg = NewDefaultConfig()
	cfg.Repository.DateFormat = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty date_format should fail validation")
	}
}

func TestRepositoryConfig_DistinctDirs(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Repository.ArchiveDir = cfg.Repository.ActiveDir
	err := cfg.Validate()
	if err == nil {
		t.Fatal("identical class dirs should fail validation")
	}
	if !strings.Contains(err.Error(), "distinct") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRepositoryConfig_NegativeStaleDays(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Repository.StaleDays = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative stale_days should fail validation")
	}
}

func TestGitConfig_AutoCommitRequiresEnabled(t *testing.T) {
	cfg := GitConfig{Enabled: false, AutoCommit: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("auto_commit without enabled should fail")
	}
}

func TestGitConfig_CommitsOnMutation(t *testing.T) {
	cases := []struct {
		cfg  GitConfig
		want bool
	}{
		{GitConfig{Enabled: true, AutoCommit: true}, true},
		{GitConfig{Enabled: true, AutoCommit: false}, false},
		{GitConfig{Enabled: false, AutoCommit: false}, false},
	}
	for _, c := range cases {
		if got := c.cfg.CommitsOnMutation(); got != c.want {
			t.Errorf("CommitsOnMutation(%+v) = %v, want %v", c.cfg, got, c.want)
		}
	}
}

func TestTemplatesConfig_ForKind(t *testing.T) {
	cfg := TemplatesConfig{
		Hypothesis: "templates/h.md",
		Literature: "templates/l.md",
		Knowledge:  "templates/k.md",
	}
	if got := cfg.ForKind(models.KindHypothesis); got != "templates/h.md" {
		t.Errorf("hypothesis template = %q", got)
	}
	if got := cfg.ForKind(models.KindLiterature); got != "templates/l.md" {
		t.Errorf("literature template = %q", got)
	}
	if got := cfg.ForKind(models.KindKnowledge); got != "templates/k.md" {
		t.Errorf("knowledge template = %q", got)
	}
}
