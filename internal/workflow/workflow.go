// Package workflow drives the publish command: pick a project, create the
// issue, record the issue URL in the note's frontmatter.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/gitlab"
	"github.com/starford/raido/internal/settings"
	"github.com/starford/raido/internal/transform"
	"github.com/starford/raido/internal/vault"
)

// IssueCreator is the remote call the workflow needs.
type IssueCreator interface {
	CreateIssue(ctx context.Context, projectID int, title, description string, labels []string) (string, error)
}

// Selector resolves to the chosen project, or ok=false when the user
// dismissed the picker.
type Selector func(ctx context.Context) (gitlab.Project, bool, error)

// Deps are the collaborators of one publish run.
type Deps struct {
	Vault    vault.Provider
	Settings *settings.Settings
	Client   IssueCreator
	Select   Selector
	Notify   Notifier
	Progress Progress
}

// Publish runs the publish command for the note at notePath (relative to the
// vault root). Every terminal outcome produces exactly one notification; the
// returned error only signals the exit status. A failed local update after a
// successful remote creation is reported as success-with-warning, since the
// issue already exists and must not be silently lost.
func Publish(ctx context.Context, d Deps, notePath string) error {
	if !d.Settings.HasToken() {
		d.Notify.Error("GitLab token is not set. Run `raido config set token <value>` first.")
		return fmt.Errorf("%w: token not set", apperr.ErrValidation)
	}

	if notePath == "" {
		d.Notify.Error("No note given. Pass the path of the note to publish.")
		return fmt.Errorf("%w: no note given", apperr.ErrValidation)
	}
	if !strings.EqualFold(filepath.Ext(notePath), ".md") {
		d.Notify.Error(fmt.Sprintf("%s is not a Markdown note.", notePath))
		return fmt.Errorf("%w: not a markdown note: %s", apperr.ErrValidation, notePath)
	}

	project, chosen, err := d.Select(ctx)
	if err != nil {
		d.Notify.Error(fmt.Sprintf("Project selection failed: %v", err))
		return err
	}
	if !chosen {
		d.Notify.Info("Issue creation cancelled.")
		return apperr.ErrCancelled
	}

	data, err := d.Vault.Read(notePath)
	if err != nil {
		d.Notify.Error(fmt.Sprintf("Could not read note: %v", err))
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	original := string(data)

	title := strings.TrimSuffix(filepath.Base(notePath), filepath.Ext(notePath))
	if strings.TrimSpace(title) == "" {
		d.Notify.Error("The note has no usable title.")
		return fmt.Errorf("%w: blank title", apperr.ErrValidation)
	}

	d.Progress.Start("Creating issue…")
	defer d.Progress.Stop()

	description := transform.Content(original)
	url, err := d.Client.CreateIssue(ctx, project.ID, title, description, d.Settings.Labels())
	if err != nil {
		d.Notify.Error(errMessage(err))
		return err
	}

	// The frontmatter edit works on the original note text; the transformed
	// copy only ever leaves the process in the create request.
	updated := frontmatter.SetIssueURL(original, url)
	if updated == original {
		// The editor guarantees a change for a non-empty URL; reaching this
		// means the note was not updated.
		d.Notify.Warn(fmt.Sprintf("Issue created at %s, but the note was not updated.", url))
		return fmt.Errorf("%w: frontmatter unchanged", apperr.ErrLocalWrite)
	}
	if err := d.Vault.Write(notePath, []byte(updated)); err != nil {
		d.Notify.Warn(fmt.Sprintf("Issue created at %s, but the note could not be updated: %v", url, err))
		return fmt.Errorf("%w: %v", apperr.ErrLocalWrite, err)
	}

	d.Notify.Success("Issue created: " + url)
	return nil
}

// errMessage converts a taxonomy error into the user-facing failure reason.
func errMessage(err error) string {
	switch {
	case errors.Is(err, apperr.ErrAuth):
		return "GitLab rejected the access token. Check the configured token."
	case errors.Is(err, apperr.ErrPermission):
		return "The access token lacks permission for this project."
	case errors.Is(err, apperr.ErrNotFound):
		return "The GitLab project could not be found."
	case errors.Is(err, apperr.ErrServer):
		return "GitLab reported a server error. Try again later."
	case errors.Is(err, apperr.ErrNetwork):
		return "Could not reach GitLab. Check the network and the configured URL."
	case errors.Is(err, apperr.ErrTimeout):
		return "The request to GitLab timed out."
	case errors.Is(err, apperr.ErrInvalidResponse):
		return "GitLab returned an unexpected response."
	default:
		return fmt.Sprintf("Creating the issue failed: %v", err)
	}
}
