// Package storage defines the repository file-system abstraction.
package storage

// Provider is the interface for repository file operations. All paths are
// relative to the repository root.
type Provider interface {
	// List returns the relative paths of every .md file under dir, in
	// lexical order. A missing dir yields an empty listing, not an error.
	List(dir string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating directories as
	// needed.
	Write(path string, content []byte) error
	// Remove deletes the file at path.
	Remove(path string) error
	// Exists reports whether a file exists at path.
	Exists(path string) (bool, error)
	// Root returns the absolute repository root.
	Root() string
}
