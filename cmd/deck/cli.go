package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/promptdeck/internal/config"
	"github.com/hpungsan/promptdeck/internal/errors"
	"github.com/hpungsan/promptdeck/internal/library"
	"github.com/hpungsan/promptdeck/internal/ops"
	"github.com/hpungsan/promptdeck/internal/validation"
	"github.com/hpungsan/promptdeck/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(repo *ops.Repo, cfg *config.Config, logger *zap.Logger) *cli.App {
	v := validation.New()
	app := &cli.App{
		Name:    "deck",
		Usage:   "Local prompt library",
		Version: Version,
		Commands: []*cli.Command{
			stateCmd(repo),
			folderCmd(repo, v),
			promptCmd(repo, v),
			searchCmd(repo, v),
			settingsCmd(repo, v),
			exportCmd(repo),
			importCmd(repo),
			profileCmd(repo),
			optimizeCmd(repo),
			resetCmd(repo),
			serveCmd(repo, cfg, logger),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// stateCmd creates the state command.
func stateCmd(repo *ops.Repo) *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "Print the whole library",
		Action: func(c *cli.Context) error {
			state, err := repo.GetState(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, state)
		},
	}
}

// folderCmd creates the folder command group.
func folderCmd(repo *ops.Repo, v *validation.Validator) *cli.Command {
	return &cli.Command{
		Name:  "folder",
		Usage: "Manage folders",
		Subcommands: []*cli.Command{
			{
				Name:  "upsert",
				Usage: "Create a folder, or rename/move one with --id",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Existing folder id"},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Folder name"},
					&cli.StringFlag{Name: "parent", Aliases: []string{"p"}, Usage: "Parent folder id (omit for root)"},
				},
				Action: func(c *cli.Context) error {
					req := validation.FolderRequest{
						ID:       c.String("id"),
						Name:     c.String("name"),
						ParentID: optionalString(c, "parent"),
					}
					if err := v.Validate(req); err != nil {
						return outputError(err)
					}

					folder, err := repo.UpsertFolder(c.Context, req.ToInput())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, folder)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a folder; its prompts move to the root",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "folder id")
					if err != nil {
						return outputError(err)
					}
					if err := repo.DeleteFolder(c.Context, id); err != nil {
						return outputError(err)
					}
					return outputJSON(c, map[string]any{"id": id, "ok": true})
				},
			},
			{
				Name:  "list",
				Usage: "List folders with their paths",
				Action: func(c *cli.Context) error {
					folders, err := repo.GetFolders(c.Context)
					if err != nil {
						return outputError(err)
					}
					type row struct {
						library.Folder
						Path string `json:"path"`
					}
					rows := make([]row, len(folders))
					for i, f := range folders {
						rows[i] = row{Folder: f, Path: library.FolderPath(folders, f.ID)}
					}
					return outputJSON(c, rows)
				},
			},
			{
				Name:      "path",
				Usage:     "Print the display path of a folder",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "folder id")
					if err != nil {
						return outputError(err)
					}
					folders, err := repo.GetFolders(c.Context)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, map[string]string{"id": id, "path": library.FolderPath(folders, id)})
				},
			},
		},
	}
}

// promptCmd creates the prompt command group.
func promptCmd(repo *ops.Repo, v *validation.Validator) *cli.Command {
	byID := func(name, usage string, fn func(*cli.Context, string) error) *cli.Command {
		return &cli.Command{
			Name:      name,
			Usage:     usage,
			ArgsUsage: "<id>",
			Action: func(c *cli.Context) error {
				id, err := requireArg(c, "prompt id")
				if err != nil {
					return outputError(err)
				}
				if err := fn(c, id); err != nil {
					return outputError(err)
				}
				return outputJSON(c, map[string]any{"id": id, "ok": true})
			},
		}
	}

	return &cli.Command{
		Name:  "prompt",
		Usage: "Manage prompts",
		Subcommands: []*cli.Command{
			{
				Name:  "upsert",
				Usage: "Create a prompt, or update one with --id; on update, omitted flags keep the stored values",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Existing prompt id"},
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Prompt title"},
					&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "Prompt body (default: stdin)"},
					&cli.StringFlag{Name: "folder", Aliases: []string{"f"}, Usage: "Folder id ('' for root)"},
					&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
					&cli.BoolFlag{Name: "favorite", Usage: "Mark as favorite"},
				},
				Action: func(c *cli.Context) error {
					req := validation.PromptRequest{
						ID:       c.String("id"),
						Title:    c.String("title"),
						Content:  c.String("content"),
						FolderID: stringIfSet(c, "folder"),
					}
					if req.ID != "" {
						// The repository replaces the whole prompt, so start from the stored one
						if err := fillFromStored(c, repo, &req); err != nil {
							return outputError(err)
						}
					}
					if !c.IsSet("content") && stdinHasData() {
						text, err := readStdin()
						if err != nil {
							return outputError(errors.NewInternal(err))
						}
						req.Content = text
					}
					if c.IsSet("tags") {
						req.Tags = parseTags(c.String("tags"))
					}
					if c.IsSet("favorite") {
						fav := c.Bool("favorite")
						req.Favorite = &fav
					}
					if err := v.Validate(req); err != nil {
						return outputError(err)
					}

					p, err := repo.UpsertPrompt(c.Context, req.ToInput())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, p)
				},
			},
			byID("delete", "Delete a prompt", func(c *cli.Context, id string) error {
				return repo.DeletePrompt(c.Context, id)
			}),
			byID("touch", "Record a use of a prompt", func(c *cli.Context, id string) error {
				return repo.TouchUseStats(c.Context, id)
			}),
			byID("favorite", "Flip the favorite flag of a prompt", func(c *cli.Context, id string) error {
				return repo.ToggleFavorite(c.Context, id)
			}),
			{
				Name:  "list",
				Usage: "List every prompt in library order",
				Action: func(c *cli.Context) error {
					prompts, err := repo.GetPrompts(c.Context)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, prompts)
				},
			},
		},
	}
}

// searchCmd creates the search command.
func searchCmd(repo *ops.Repo, v *validation.Validator) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search prompts by title, content, and tags",
		ArgsUsage: "[term]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "filter", Usage: "all|favorites|recent"},
			&cli.StringFlag{Name: "folder", Aliases: []string{"f"}, Usage: "Restrict to a folder id"},
			&cli.StringFlag{Name: "sort", Aliases: []string{"s"}, Usage: "title|use|updated"},
		},
		Action: func(c *cli.Context) error {
			req := validation.SearchRequest{
				Query:    strings.Join(c.Args().Slice(), " "),
				Filter:   c.String("filter"),
				FolderID: optionalString(c, "folder"),
				Sort:     c.String("sort"),
			}
			if err := v.Validate(req); err != nil {
				return outputError(err)
			}

			out, err := repo.SearchPrompts(c.Context, req.ToInput())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// settingsCmd creates the settings command group.
func settingsCmd(repo *ops.Repo, v *validation.Validator) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change settings",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print settings",
				Action: func(c *cli.Context) error {
					s, err := repo.GetSettings(c.Context)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, s)
				},
			},
			{
				Name:  "set",
				Usage: "Change settings; omitted flags are left unchanged, --goal '' clears the goal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "language", Usage: "Preferred output language"},
					&cli.StringFlag{Name: "tone", Usage: "Preferred tone"},
					&cli.StringFlag{Name: "quality", Usage: "Quality bar"},
					&cli.StringFlag{Name: "goal", Usage: "Default goal"},
					&cli.StringFlag{Name: "ui-language", Usage: "zh|en"},
				},
				Action: func(c *cli.Context) error {
					req := validation.SettingsRequest{
						PreferredLanguage: stringIfSet(c, "language"),
						Tone:              stringIfSet(c, "tone"),
						QualityBar:        stringIfSet(c, "quality"),
						DefaultGoal:       stringIfSet(c, "goal"),
						UILanguage:        stringIfSet(c, "ui-language"),
					}
					if err := v.Validate(req); err != nil {
						return outputError(err)
					}

					s, err := repo.SetSettings(c.Context, req.ToPatch())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, s)
				},
			},
		},
	}
}

// exportCmd creates the export command.
func exportCmd(repo *ops.Repo) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the library to a JSON file (default <base>/exports) or stdout",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Destination .json file"},
			&cli.BoolFlag{Name: "stdout", Usage: "Print the bundle instead of writing a file"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("stdout") {
				text, err := repo.ExportJSON(c.Context)
				if err != nil {
					return outputError(err)
				}
				_, err = fmt.Fprintln(c.App.Writer, text)
				return err
			}

			out, err := repo.ExportToFile(c.Context, c.String("path"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// importCmd creates the import command.
func importCmd(repo *ops.Repo) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a bundle from a .json file, or from stdin with '-'",
		ArgsUsage: "<path|->",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Value: string(library.ImportMerge), Usage: "merge|overwrite"},
		},
		Action: func(c *cli.Context) error {
			path, err := requireArg(c, "import path")
			if err != nil {
				return outputError(err)
			}
			strategy := library.ImportStrategy(c.String("strategy"))

			if path == "-" {
				data, err := io.ReadAll(io.LimitReader(os.Stdin, ops.MaxImportBytes+1))
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if len(data) > ops.MaxImportBytes {
					return outputError(errors.NewInvalidRequest(
						fmt.Sprintf("import exceeds %d bytes", ops.MaxImportBytes)))
				}
				out, err := repo.ImportJSON(c.Context, string(data), strategy)
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c, out)
			}

			out, err := repo.ImportFromFile(c.Context, path, strategy)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// profileCmd creates the profile command.
func profileCmd(repo *ops.Repo) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Print the preference profile",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "text", Usage: "Print only the profile text"},
		},
		Action: func(c *cli.Context) error {
			out, err := repo.BuildProfile(c.Context)
			if err != nil {
				return outputError(err)
			}
			if c.Bool("text") {
				_, err := fmt.Fprintln(c.App.Writer, out.Profile)
				return err
			}
			return outputJSON(c, out)
		},
	}
}

// optimizeCmd creates the optimize command.
func optimizeCmd(repo *ops.Repo) *cli.Command {
	return &cli.Command{
		Name:      "optimize",
		Usage:     "Build an optimization request for a draft (args or stdin)",
		ArgsUsage: "[draft...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "text", Usage: "Print only the request text"},
		},
		Action: func(c *cli.Context) error {
			draft := strings.Join(c.Args().Slice(), " ")
			if draft == "" && stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				draft = text
			}

			out, err := repo.OptimizerRequest(c.Context, draft)
			if err != nil {
				return outputError(err)
			}
			if c.Bool("text") {
				_, err := fmt.Fprintln(c.App.Writer, out.Request)
				return err
			}
			return outputJSON(c, out)
		},
	}
}

// resetCmd creates the reset command.
func resetCmd(repo *ops.Repo) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Delete every folder and prompt and restore default settings",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm the reset"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return outputError(errors.NewInvalidRequest("reset deletes the whole library; pass --yes to confirm"))
			}
			if err := repo.ClearAll(c.Context); err != nil {
				return outputError(err)
			}
			return outputJSON(c, map[string]bool{"ok": true})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(repo *ops.Repo, cfg *config.Config, logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local web UI and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (default from config, 127.0.0.1)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (default from config, 7433)"},
		},
		Action: func(c *cli.Context) error {
			serveCfg := *cfg
			if c.IsSet("bind") {
				serveCfg.WebBind = c.String("bind")
			}
			if c.IsSet("port") {
				serveCfg.WebPort = c.Int("port")
			}

			srv, err := web.NewServer(repo, &serveCfg, Version, logger)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, logger)
		},
	}
}

// Helper functions

// outputJSON writes v to the app's writer as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if dErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", dErr.Code, dErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// requireArg returns the first positional argument.
func requireArg(c *cli.Context, what string) (string, error) {
	if c.NArg() == 0 || strings.TrimSpace(c.Args().First()) == "" {
		return "", errors.NewInvalidRequest(what + " is required")
	}
	return c.Args().First(), nil
}

// optionalString returns a pointer to a flag value, or nil when the flag is unset or empty.
func optionalString(c *cli.Context, name string) *string {
	if s := c.String(name); s != "" {
		return &s
	}
	return nil
}

// fillFromStored copies the stored prompt's fields into req wherever the matching flag
// was not given. Unknown ids are left for UpsertPrompt to create.
func fillFromStored(c *cli.Context, repo *ops.Repo, req *validation.PromptRequest) error {
	state, err := repo.GetState(c.Context)
	if err != nil {
		return err
	}
	i := state.FindPrompt(req.ID)
	if i < 0 {
		return nil
	}
	p := state.Prompts[i]

	if !c.IsSet("title") {
		req.Title = p.Title
	}
	if !c.IsSet("content") {
		req.Content = p.Content
	}
	if !c.IsSet("folder") {
		req.FolderID = p.FolderID
	}
	if !c.IsSet("tags") {
		req.Tags = p.Tags
	}
	if !c.IsSet("favorite") {
		req.Favorite = &p.Favorite
	}
	req.UseCount = &p.UseCount
	req.LastUsedAt = p.LastUsedAt
	return nil
}

// stringIfSet returns the flag value when the flag was given, even if empty.
func stringIfSet(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	s := c.String(name)
	return &s
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
