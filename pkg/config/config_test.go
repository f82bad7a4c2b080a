package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Limit int    `yaml:"limit"`
}

func TestParse_KeepsDefaultsForAbsentKeys(t *testing.T) {
	target := sample{Name: "default", Limit: 10}
	if err := Parse([]byte("limit: 5\n"), &target); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if target.Name != "default" || target.Limit != 5 {
		t.Errorf("target = %+v", target)
	}
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("CONFIG_TEST_NAME", "expanded")
	var target sample
	if err := Parse([]byte("name: ${CONFIG_TEST_NAME}\n"), &target); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if target.Name != "expanded" {
		t.Errorf("Name = %q", target.Name)
	}
}

func TestLoad_MissingFileIsNotExist(t *testing.T) {
	var target sample
	err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &target)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	src := sample{Name: "n", Limit: 3}
	if err := Save(path, &src); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	var got sample
	if err := Load(path, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != src {
		t.Errorf("got = %+v, want %+v", got, src)
	}
}
