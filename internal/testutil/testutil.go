// Package testutil provides shared test helpers for setting up vaults and
// settings stores.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/raido/internal/settings"
	"github.com/starford/raido/internal/vault"
)

// TestVault creates a temporary vault directory with a vault.Provider.
func TestVault(t *testing.T) (string, *vault.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := vault.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestSettings creates a settings store backed by a file in a temp dir.
func TestSettings(t *testing.T) *settings.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := settings.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	return store
}
