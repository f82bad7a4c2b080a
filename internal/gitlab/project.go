// Package gitlab implements the HTTP client for the GitLab REST API surface
// this tool needs: project listing/search, issue creation, and a
// connection check.
package gitlab

import (
	"fmt"
	"sort"
)

// Project is a remote project the token's principal is a member of.
type Project struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	PathWithNamespace string `json:"path_with_namespace"`
	Description       string `json:"description"`
	WebURL            string `json:"web_url"`
}

// projectPayload is the raw wire item before validation.
type projectPayload struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	PathWithNamespace string `json:"path_with_namespace"`
	Description       string `json:"description"`
	WebURL            string `json:"web_url"`
}

// validate checks the required fields and returns the typed project.
func (p projectPayload) validate() (Project, error) {
	switch {
	case p.ID == 0:
		return Project{}, fmt.Errorf("project missing id")
	case p.Name == "":
		return Project{}, fmt.Errorf("project %d missing name", p.ID)
	case p.PathWithNamespace == "":
		return Project{}, fmt.Errorf("project %d missing path_with_namespace", p.ID)
	case p.WebURL == "":
		return Project{}, fmt.Errorf("project %d missing web_url", p.ID)
	}
	return Project(p), nil
}

// partition splits raw items into valid projects and per-item rejection
// reasons. Invalid items never abort a fetch; they are dropped.
func partition(items []projectPayload) ([]Project, []error) {
	valid := make([]Project, 0, len(items))
	var invalid []error
	for _, item := range items {
		p, err := item.validate()
		if err != nil {
			invalid = append(invalid, err)
			continue
		}
		valid = append(valid, p)
	}
	return valid, invalid
}

// SortProjects orders projects favorites-first, alphabetically by name
// within each group.
func SortProjects(projects []Project, isFavorite func(id int) bool) {
	sort.SliceStable(projects, func(i, j int) bool {
		fi, fj := isFavorite(projects[i].ID), isFavorite(projects[j].ID)
		if fi != fj {
			return fi
		}
		return projects[i].Name < projects[j].Name
	})
}

// MergeProjects appends extras to base, dropping extras whose id already
// appears (first occurrence wins).
func MergeProjects(base, extra []Project) []Project {
	seen := make(map[int]struct{}, len(base))
	for _, p := range base {
		seen[p.ID] = struct{}{}
	}
	out := append([]Project(nil), base...)
	for _, p := range extra {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
