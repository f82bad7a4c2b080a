package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/gitlab"
	"github.com/starford/raido/internal/picker"
	"github.com/starford/raido/internal/settings"
	"github.com/starford/raido/internal/vault"
	"github.com/starford/raido/internal/workflow"
)

func main() {
	cmd := &cli.Command{
		Name:  "raido",
		Usage: "Publish Markdown notes as GitLab issues",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "settings",
				Aliases: []string{"s"},
				Usage:   "Path to the settings file",
				Sources: cli.EnvVars("RAIDO_SETTINGS"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Path to the note vault root",
				Value:   ".",
				Sources: cli.EnvVars("RAIDO_VAULT"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "GitLab access token (overrides the stored one for this run)",
				Sources: cli.EnvVars("GITLAB_TOKEN"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			issueCommand(),
			verifyCommand(),
			projectsCommand(),
			configCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		if msg := err.Error(); msg != "" {
			slog.Error("command failed", slog.String("error", msg))
		}
		os.Exit(1)
	}
}

// openSettings initialises logging, loads the settings store, and applies
// the per-run token override without persisting it.
func openSettings(cmd *cli.Command) (*settings.Store, *settings.Settings, error) {
	level := slog.LevelWarn
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	path := cmd.String("settings")
	if path == "" {
		var err error
		path, err = settings.DefaultPath()
		if err != nil {
			return nil, nil, err
		}
	}
	store, err := settings.Open(path)
	if err != nil {
		return nil, nil, err
	}
	effective := *store.Settings()
	if token := cmd.String("token"); token != "" {
		effective.Token = token
	}
	return store, &effective, nil
}

func issueCommand() *cli.Command {
	return &cli.Command{
		Name:      "issue",
		Usage:     "Create a GitLab issue from a note and record its URL in the frontmatter",
		ArgsUsage: "NOTE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, effective, err := openSettings(cmd)
			if err != nil {
				return err
			}
			notes, err := vault.NewFS(cmd.String("vault"))
			if err != nil {
				return err
			}
			client := gitlab.NewClient(effective.GitLabURL, effective.Token)

			deps := workflow.Deps{
				Vault:    notes,
				Settings: effective,
				Client:   client,
				Select: func(ctx context.Context) (gitlab.Project, bool, error) {
					return picker.Select(ctx, client, store)
				},
				Notify:   &workflow.ConsoleNotifier{Out: os.Stdout},
				Progress: &workflow.ConsoleProgress{Out: os.Stderr},
			}

			err = workflow.Publish(ctx, deps, cmd.Args().First())
			if err != nil && !errors.Is(err, apperr.ErrCancelled) {
				// The workflow already notified the user.
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Check the configured token against the GitLab instance",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, effective, err := openSettings(cmd)
			if err != nil {
				return err
			}
			client := gitlab.NewClient(effective.GitLabURL, effective.Token)
			status := client.TestConnection(ctx)
			if !status.OK {
				return fmt.Errorf("connection failed: %s", status.Message)
			}
			fmt.Printf("Connected to %s as %s\n", effective.GitLabURL, status.Identity)
			return nil
		},
	}
}

func projectsCommand() *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "List the projects the token is a member of",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, effective, err := openSettings(cmd)
			if err != nil {
				return err
			}
			client := gitlab.NewClient(effective.GitLabURL, effective.Token)
			projects, err := client.ListProjects(ctx)
			if err != nil {
				return err
			}
			gitlab.SortProjects(projects, store.IsFavorite)

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"", "ID", "Name", "Path", "URL"})
			for _, p := range projects {
				star := ""
				if store.IsFavorite(p.ID) {
					star = "★"
				}
				t.AppendRow(table.Row{star, p.ID, p.Name, p.PathWithNamespace, p.WebURL})
			}
			t.Render()
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect and change settings",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the current settings (token redacted)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store, _, err := openSettings(cmd)
					if err != nil {
						return err
					}
					s := store.Settings()
					token := "(not set)"
					if s.HasToken() {
						token = "(set)"
					}
					fmt.Printf("token:          %s\n", token)
					fmt.Printf("gitlab_url:     %s\n", s.GitLabURL)
					fmt.Printf("default_labels: %s\n", s.DefaultLabels)
					fmt.Printf("fav_projects:   %v\n", s.FavProjects)
					return nil
				},
			},
			{
				Name:      "set",
				Usage:     "Set a settings field",
				ArgsUsage: "KEY VALUE  (keys: token, gitlab_url, default_labels)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store, _, err := openSettings(cmd)
					if err != nil {
						return err
					}
					key, value := cmd.Args().Get(0), cmd.Args().Get(1)
					switch key {
					case "token":
						return store.SetToken(value)
					case "gitlab_url":
						if value == "" {
							return fmt.Errorf("gitlab_url must not be empty")
						}
						return store.SetGitLabURL(value)
					case "default_labels":
						return store.SetDefaultLabels(value)
					default:
						return fmt.Errorf("unknown settings key %q", key)
					}
				},
			},
			{
				Name:      "favorite",
				Usage:     "Toggle a project id in the favorites set",
				ArgsUsage: "PROJECT_ID",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store, _, err := openSettings(cmd)
					if err != nil {
						return err
					}
					id, err := strconv.Atoi(cmd.Args().First())
					if err != nil {
						return fmt.Errorf("project id must be a number: %w", err)
					}
					fav, err := store.ToggleFavorite(id)
					if err != nil {
						return err
					}
					if fav {
						fmt.Printf("Project %d added to favorites\n", id)
					} else {
						fmt.Printf("Project %d removed from favorites\n", id)
					}
					return nil
				},
			},
		},
	}
}
