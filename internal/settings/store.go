package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/starford/raido/pkg/config"
)

// deprecatedKeys are fields from earlier releases that are removed from the
// persisted record on load. The single default-project id predates favorites.
var deprecatedKeys = []string{"project_id"}

// Store owns the settings file: it loads (and migrates) the record on
// startup and persists it after every mutation.
type Store struct {
	path     string
	settings *Settings
}

// DefaultPath returns the settings file location under the user config dir.
func DefaultPath() (string, error) {
	if custom := os.Getenv("RAIDO_SETTINGS"); custom != "" {
		return custom, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("settings: determine config dir: %w", err)
	}
	return filepath.Join(configDir, "raido", "settings.yaml"), nil
}

// Open loads the settings at path, merging the stored record over defaults
// and applying migrations. A missing file yields pure defaults. When a
// migration changed the record, the cleaned version is persisted right away.
func Open(path string) (*Store, error) {
	st := &Store{path: path, settings: NewDefaultSettings()}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}

	migrated, changed, err := migrate(data)
	if err != nil {
		return nil, fmt.Errorf("settings: migrate %s: %w", path, err)
	}
	if err := config.Parse(migrated, st.settings); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	if changed {
		slog.Debug("settings migrated, persisting cleaned record", slog.String("path", path))
		if err := st.save(); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// migrate drops deprecated keys from the raw record before it is merged with
// defaults. Unknown extra keys are dropped later by the typed decode.
func migrate(data []byte) ([]byte, bool, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, false, err
	}
	if raw == nil {
		return data, false, nil
	}

	changed := false
	for _, key := range deprecatedKeys {
		if _, ok := raw[key]; ok {
			delete(raw, key)
			changed = true
		}
	}
	if !changed {
		return data, false, nil
	}
	cleaned, err := yaml.Marshal(raw)
	if err != nil {
		return nil, false, err
	}
	return cleaned, true, nil
}

// Settings returns the current settings. The returned value is owned by the
// store; mutate it only through store methods so changes are persisted.
func (s *Store) Settings() *Settings {
	return s.settings
}

// ToggleFavorite flips membership of the project id in the favorites set,
// persists immediately, and reports the new state.
func (s *Store) ToggleFavorite(id int) (bool, error) {
	fav := s.settings.toggleFavorite(id)
	if err := s.save(); err != nil {
		return fav, err
	}
	return fav, nil
}

// IsFavorite reports whether the project id is in the favorites set.
func (s *Store) IsFavorite(id int) bool {
	return s.settings.IsFavorite(id)
}

// SetToken updates the access token and persists.
func (s *Store) SetToken(token string) error {
	s.settings.Token = token
	return s.save()
}

// SetGitLabURL updates the service base URL and persists.
func (s *Store) SetGitLabURL(url string) error {
	s.settings.GitLabURL = url
	return s.save()
}

// SetDefaultLabels updates the comma-separated label list and persists.
func (s *Store) SetDefaultLabels(labels string) error {
	s.settings.DefaultLabels = labels
	return s.save()
}

func (s *Store) save() error {
	if err := config.Save(s.path, s.settings); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}
