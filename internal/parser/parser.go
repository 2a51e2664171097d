// Package parser converts entry files to and from their on-disk form: a
// YAML metadata block between --- delimiters followed by a free-text body.
package parser

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

const delim = "---"

// frontmatter is the serialized shape of an entry's metadata block. Field
// order here is the canonical key order in written files.
type frontmatter struct {
	ID         string         `yaml:"id"`
	Kind       string         `yaml:"kind"`
	Title      string         `yaml:"title"`
	Status     string         `yaml:"status"`
	Tags       []string       `yaml:"tags,omitempty"`
	CreatedAt  time.Time      `yaml:"created_at"`
	UpdatedAt  time.Time      `yaml:"updated_at"`
	References []string       `yaml:"references,omitempty"`
	CreatedBy  *models.Author `yaml:"created_by,omitempty"`
	SourceURL  string         `yaml:"source_url,omitempty"`
}

// knownKeys are the metadata keys owned by the schema. Anything else found
// in a file is carried in Entry.Extra and written back on serialize.
var knownKeys = map[string]struct{}{
	"id": {}, "kind": {}, "title": {}, "status": {}, "tags": {},
	"created_at": {}, "updated_at": {}, "references": {},
	"created_by": {}, "source_url": {},
}

// Parse decodes raw file content into an Entry. The metadata block must be
// present and well-formed; kind and status are validated eagerly so an
// unrecognized combination never enters the system silently.
func Parse(data []byte) (*models.Entry, error) {
	block, body, err := splitMetadata(data)
	if err != nil {
		return nil, err
	}

	var fm frontmatter
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedMetadata, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(block, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedMetadata, err)
	}

	if strings.TrimSpace(fm.Kind) == "" {
		return nil, fmt.Errorf("%w: kind is missing", apperr.ErrUnknownKind)
	}
	kind, err := models.ParseKind(fm.Kind)
	if err != nil {
		return nil, err
	}
	status, err := models.ParseStatus(kind, fm.Status)
	if err != nil {
		return nil, err
	}
	if fm.ID == "" {
		return nil, fmt.Errorf("%w: id is missing", apperr.ErrMalformedMetadata)
	}
	if strings.TrimSpace(fm.Title) == "" {
		return nil, fmt.Errorf("%w: title is missing", apperr.ErrMalformedMetadata)
	}

	extra := make(map[string]any)
	for k, v := range raw {
		if _, known := knownKeys[k]; !known {
			extra[k] = v
		}
	}
	if len(extra) == 0 {
		extra = nil
	}

	return &models.Entry{
		ID:         fm.ID,
		Kind:       kind,
		Title:      fm.Title,
		Status:     status,
		Tags:       models.NormalizeTags(fm.Tags),
		CreatedAt:  fm.CreatedAt,
		UpdatedAt:  fm.UpdatedAt,
		References: dedupe(fm.References),
		CreatedBy:  fm.CreatedBy,
		SourceURL:  fm.SourceURL,
		Body:       body,
		Extra:      extra,
	}, nil
}

// Serialize encodes an entry into file content: canonical metadata block,
// unknown keys sorted after the known ones, then the body verbatim. For
// every valid entry, Parse(Serialize(e)) reproduces e field for field.
func Serialize(e *models.Entry) ([]byte, error) {
	if e.ID == "" {
		return nil, fmt.Errorf("%w: id is missing", apperr.ErrMalformedMetadata)
	}
	if strings.TrimSpace(e.Title) == "" {
		return nil, fmt.Errorf("%w: title is missing", apperr.ErrMalformedMetadata)
	}
	if !e.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnknownKind, e.Kind)
	}
	if !models.ValidStatus(e.Kind, e.Status) {
		return nil, fmt.Errorf("%w: %q is not a %s status", apperr.ErrInvalidStatus, e.Status, e.Kind)
	}

	fm := frontmatter{
		ID:         e.ID,
		Kind:       string(e.Kind),
		Title:      e.Title,
		Status:     string(e.Status),
		Tags:       e.Tags,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
		References: e.References,
		CreatedBy:  e.CreatedBy,
		SourceURL:  e.SourceURL,
	}
	head, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	buf.Write(head)
	if len(e.Extra) > 0 {
		keys := make([]string, 0, len(e.Extra))
		for k := range e.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			line, err := yaml.Marshal(map[string]any{k: e.Extra[k]})
			if err != nil {
				return nil, fmt.Errorf("marshal metadata key %q: %w", k, err)
			}
			buf.Write(line)
		}
	}
	buf.WriteString(delim + "\n")
	if e.Body != "" {
		buf.WriteString("\n")
		buf.WriteString(e.Body)
	}
	return buf.Bytes(), nil
}

// splitMetadata separates the YAML block between leading --- delimiters
// from the body. Unlike a generic Markdown splitter the block is
// mandatory: an entry file without one is malformed. Only the closing
// delimiter's line break and the one blank separator line Serialize
// emits are consumed; further leading blank lines belong to the body.
func splitMetadata(data []byte) ([]byte, string, error) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, "", fmt.Errorf("%w: metadata block is missing", apperr.ErrMalformedMetadata)
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, "", fmt.Errorf("%w: metadata block is not closed", apperr.ErrMalformedMetadata)
	}
	block := rest[:idx]
	body := string(rest[idx+1+len(delim):])
	body = cutLineBreak(body) // closes the delimiter line
	body = cutLineBreak(body) // the separator blank line, when present
	return block, body, nil
}

// cutLineBreak removes one leading line break, if any.
func cutLineBreak(s string) string {
	if strings.HasPrefix(s, "\r\n") {
		return s[2:]
	}
	return strings.TrimPrefix(s, "\n")
}

func dedupe(ss []string) []string {
	if len(ss) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
