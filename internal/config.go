package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/models"
)

// Config represents the application configuration, normally loaded from
// an ansuz.yaml at the repository root.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Repository RepositoryConfig  `yaml:"repository"`
	Templates  TemplatesConfig   `yaml:"templates"`
	Git        GitConfig         `yaml:"git"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Repository.Validate(); err != nil {
		return err
	}
	return c.Git.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// RepositoryConfig holds the repository root and the class directory
// names the layout is built from. Root is resolved relative to the
// config file's directory when the config was discovered on disk.
type RepositoryConfig struct {
	Root             string `yaml:"root"`
	ActiveDir        string `yaml:"active_dir"`
	KnowledgeBaseDir string `yaml:"knowledge_base_dir"`
	ArchiveDir       string `yaml:"archive_dir"`
	DateFormat       string `yaml:"date_format"`
	StaleDays        int    `yaml:"stale_days"`
}

// Validate validates the repository configuration.
func (c *RepositoryConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.ActiveDir, validation.Required),
		validation.Field(&c.KnowledgeBaseDir, validation.Required),
		validation.Field(&c.ArchiveDir, validation.Required),
		validation.Field(&c.DateFormat, validation.Required),
		validation.Field(&c.StaleDays, validation.Min(0)),
	); err != nil {
		return err
	}
	if c.ActiveDir == c.KnowledgeBaseDir || c.ActiveDir == c.ArchiveDir || c.KnowledgeBaseDir == c.ArchiveDir {
		return fmt.Errorf("repository: active_dir, knowledge_base_dir and archive_dir must be distinct")
	}
	return nil
}

// TemplatesConfig holds per-kind template paths, relative to the
// repository root. An empty path means no template: new entries of that
// kind start with an empty body.
type TemplatesConfig struct {
	Hypothesis string `yaml:"hypothesis"`
	Literature string `yaml:"literature"`
	Knowledge  string `yaml:"knowledge"`
}

// ForKind returns the configured template path for a kind.
func (c *TemplatesConfig) ForKind(k models.Kind) string {
	switch k {
	case models.KindHypothesis:
		return c.Hypothesis
	case models.KindLiterature:
		return c.Literature
	case models.KindKnowledge:
		return c.Knowledge
	}
	return ""
}

// GitConfig controls version-control synchronization.
//
// Enabled governs whether the repository is expected to be a git work
// tree at all; AutoCommit additionally commits after every successful
// mutation. AuthorName/AuthorEmail override the signature read from git
// configuration.
type GitConfig struct {
	Enabled     bool   `yaml:"enabled"`
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Validate validates the git configuration.
func (c *GitConfig) Validate() error {
	if c.AutoCommit && !c.Enabled {
		return fmt.Errorf("git: auto_commit requires enabled")
	}
	return nil
}

// CommitsOnMutation returns true when every successful mutation should be
// committed.
func (c *GitConfig) CommitsOnMutation() bool {
	return c.Enabled && c.AutoCommit
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Repository: RepositoryConfig{
			Root:             ".",
			ActiveDir:        "research-logs",
			KnowledgeBaseDir: "knowledge-base",
			ArchiveDir:       "archived",
			DateFormat:       "2006-01-02",
			StaleDays:        14,
		},
		Templates: TemplatesConfig{
			Hypothesis: "templates/hypothesis.md",
			Literature: "templates/literature.md",
			Knowledge:  "templates/knowledge.md",
		},
		Git: GitConfig{
			Enabled:    true,
			AutoCommit: true,
		},
	}
}
