// Package render produces entry bodies from templates stored in the
// repository. Rendering is a pure function of the template text and the
// entry's fields; the engine calls it once, on create.
package render

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// Renderer loads repository-relative template files and executes them
// against an entry.
type Renderer struct {
	store storage.Provider
}

// New returns a renderer reading templates through the given provider.
func New(store storage.Provider) *Renderer {
	return &Renderer{store: store}
}

// Render executes the template at path against the entry and returns the
// body text. An empty path means no template is configured, which yields
// an empty body, not an error. A configured but missing template file is
// ErrTemplateNotFound.
func (r *Renderer) Render(path string, e *models.Entry) (string, error) {
	if path == "" {
		return "", nil
	}
	raw, err := r.store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", apperr.ErrTemplateNotFound, path)
		}
		return "", err
	}
	tmpl, err := template.New(path).Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("render: parse template %s: %w", path, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, e); err != nil {
		return "", fmt.Errorf("render: execute template %s: %w", path, err)
	}
	return strings.TrimLeft(b.String(), "\n\r"), nil
}
