// Package vault defines the note file-system boundary.
package vault

// Provider is the interface for note file operations.
type Provider interface {
	// Read returns the raw bytes of the note at path (relative to the vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the vault root).
	Write(path string, content []byte) error
}
