// Package scaffold bootstraps a directory into an ansuz repository:
// the class directories for every kind, default entry templates, and a
// seed configuration file.
package scaffold

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/starford/ansuz/internal/gitsync"
	"github.com/starford/ansuz/internal/layout"
	"github.com/starford/ansuz/internal/models"
)

//go:embed templates/hypothesis.md
var hypothesisTemplate string

//go:embed templates/literature.md
var literatureTemplate string

//go:embed templates/knowledge.md
var knowledgeTemplate string

//go:embed ansuz.yaml
var defaultConfig string

// TemplateDir is the directory under the repository root holding the
// per-kind entry templates.
const TemplateDir = "templates"

// Options configures a scaffolding run.
type Options struct {
	// Root is the directory to prepare. It is created when missing.
	Root string
	// Layout supplies the class directories to create.
	Layout *layout.Layout
	// ConfigFile names the configuration file to seed at Root. Empty
	// skips seeding.
	ConfigFile string
	// InitGit also initializes a git repository at Root.
	InitGit bool
}

// Run prepares the repository. It is idempotent: directories are created
// when missing and existing files are never overwritten, so re-running
// cannot clobber user edits. The returned paths, relative to Root, are
// the files this run actually wrote.
func Run(opts Options) ([]string, error) {
	if opts.Layout == nil {
		return nil, fmt.Errorf("scaffold: layout is required")
	}
	for _, dir := range append(opts.Layout.Dirs(), TemplateDir) {
		if err := os.MkdirAll(filepath.Join(opts.Root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("scaffold: create %s: %w", dir, err)
		}
	}

	seeds := make(map[string]string, len(models.Kinds)+1)
	for _, k := range models.Kinds {
		seeds[filepath.Join(TemplateDir, string(k)+".md")] = templateFor(k)
	}
	if opts.ConfigFile != "" {
		seeds[opts.ConfigFile] = defaultConfig
	}

	var written []string
	for rel, content := range seeds {
		ok, err := writeIfMissing(filepath.Join(opts.Root, rel), content)
		if err != nil {
			return nil, err
		}
		if ok {
			written = append(written, rel)
		}
	}
	sort.Strings(written)

	if opts.InitGit {
		if err := gitsync.New(opts.Root, models.Author{}).Init(); err != nil {
			return nil, fmt.Errorf("scaffold: git init: %w", err)
		}
	}
	return written, nil
}

func templateFor(k models.Kind) string {
	switch k {
	case models.KindHypothesis:
		return hypothesisTemplate
	case models.KindLiterature:
		return literatureTemplate
	default:
		return knowledgeTemplate
	}
}

func writeIfMissing(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("scaffold: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("scaffold: write %s: %w", path, err)
	}
	return true, nil
}
