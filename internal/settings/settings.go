// Package settings manages the persisted user configuration: token, remote
// service URL, default labels, and favorite projects. Every mutation is
// written back to disk immediately; there is no unsaved in-memory state.
package settings

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultGitLabURL is the public instance used when no URL is configured.
const DefaultGitLabURL = "https://gitlab.com"

// Settings represents the persisted user configuration.
type Settings struct {
	Token         string `yaml:"token"`
	DefaultLabels string `yaml:"default_labels"`
	GitLabURL     string `yaml:"gitlab_url"`
	FavProjects   []int  `yaml:"fav_projects"`
}

// Validate validates the settings.
func (s *Settings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.GitLabURL, validation.Required),
	)
}

// NewDefaultSettings returns Settings with default values.
func NewDefaultSettings() *Settings {
	return &Settings{
		GitLabURL: DefaultGitLabURL,
	}
}

// HasToken reports whether a non-blank token is configured.
func (s *Settings) HasToken() bool {
	return strings.TrimSpace(s.Token) != ""
}

// Labels parses the comma-separated default label list, trimming entries and
// dropping empty ones.
func (s *Settings) Labels() []string {
	var out []string
	for _, l := range strings.Split(s.DefaultLabels, ",") {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// IsFavorite reports whether the project id is in the favorites set.
func (s *Settings) IsFavorite(id int) bool {
	for _, fav := range s.FavProjects {
		if fav == id {
			return true
		}
	}
	return false
}

// toggleFavorite flips membership of id in the favorites set and reports the
// new state.
func (s *Settings) toggleFavorite(id int) bool {
	for i, fav := range s.FavProjects {
		if fav == id {
			s.FavProjects = append(s.FavProjects[:i], s.FavProjects[i+1:]...)
			return false
		}
	}
	s.FavProjects = append(s.FavProjects, id)
	return true
}
