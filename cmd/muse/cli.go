package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/muse/internal/client"
	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/generate"
	"github.com/hpungsan/muse/internal/ops"
	"github.com/hpungsan/muse/internal/quote"
	"github.com/hpungsan/muse/internal/tui"
	"github.com/hpungsan/muse/internal/web"
)

// maxStdinBytes caps piped input for normalize and save.
const maxStdinBytes = 1 << 20

// appDeps are the collaborators CLI commands run against.
type appDeps struct {
	db     *sql.DB
	cfg    *config.Config
	quotes *generate.Service
	probe  probeFunc
	logger *zap.Logger
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(d appDeps) *cli.App {
	app := &cli.App{
		Name:    "muse",
		Usage:   "Inspirational quotes, cleaned up and kept",
		Version: Version,
		Commands: []*cli.Command{
			generateCmd(d),
			normalizeCmd(),
			saveCmd(d),
			fetchCmd(d),
			updateCmd(d),
			deleteCmd(d),
			listCmd(d),
			purgeCmd(d),
			exportCmd(d),
			importCmd(d),
			serveCmd(d),
			uiCmd(d),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

var categoryUsage = "Category: " + strings.Join(quote.CategoryKeys(), "|")

// generateCmd creates the generate command.
func generateCmd(d appDeps) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate a new quote",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: categoryUsage},
			&cli.BoolFlag{Name: "save", Aliases: []string{"s"}, Usage: "Save the generated quote"},
		},
		Action: func(c *cli.Context) error {
			out, err := ops.Generate(c.Context, d.quotes, d.cfg, ops.GenerateInput{
				Category: c.String("category"),
			})
			if err != nil {
				return outputError(err)
			}
			if !c.Bool("save") {
				return outputJSON(out)
			}

			saved, err := ops.Save(c.Context, d.db, d.cfg, ops.SaveInput{
				Text:        out.Quote,
				Category:    out.Category,
				AIGenerated: true,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"quote":    out.Quote,
				"category": out.Category,
				"model":    out.Model,
				"id":       saved.ID,
			})
		},
	}
}

// normalizeCmd creates the normalize command.
func normalizeCmd() *cli.Command {
	return &cli.Command{
		Name:      "normalize",
		Usage:     "Clean raw model output into one display line (reads stdin or arguments)",
		ArgsUsage: "[text...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output JSON with the character count"},
		},
		Action: func(c *cli.Context) error {
			raw, err := textFromArgsOrStdin(c)
			if err != nil {
				return outputError(err)
			}

			text := quote.Normalize(raw)
			if c.Bool("json") {
				return outputJSON(map[string]any{
					"text":  text,
					"chars": quote.CountChars(text),
				})
			}
			_, err = fmt.Fprintln(os.Stdout, text)
			return err
		},
	}
}

// saveCmd creates the save command.
func saveCmd(d appDeps) *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Save a quote (text from arguments or stdin)",
		ArgsUsage: "[text...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: categoryUsage},
			&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "Author (default: Anonymous)"},
			&cli.BoolFlag{Name: "ai", Usage: "Mark as AI generated"},
		},
		Action: func(c *cli.Context) error {
			text, err := textFromArgsOrStdin(c)
			if err != nil {
				return outputError(err)
			}

			out, err := ops.Save(c.Context, d.db, d.cfg, ops.SaveInput{
				Text:        text,
				Category:    c.String("category"),
				Author:      c.String("author"),
				AIGenerated: c.Bool("ai"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(d appDeps) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a saved quote by ID",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted quotes"},
		},
		Action: func(c *cli.Context) error {
			out, err := ops.Fetch(c.Context, d.db, ops.FetchInput{
				ID:             c.Args().First(),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(d appDeps) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Edit a saved quote",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "New quote text"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: categoryUsage},
			&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "New author"},
		},
		Action: func(c *cli.Context) error {
			input := ops.UpdateInput{ID: c.Args().First()}
			if c.IsSet("text") {
				v := c.String("text")
				input.Text = &v
			}
			if c.IsSet("category") {
				v := c.String("category")
				input.Category = &v
			}
			if c.IsSet("author") {
				v := c.String("author")
				input.Author = &v
			}

			out, err := ops.Update(c.Context, d.db, d.cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(d appDeps) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a saved quote",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			out, err := ops.Delete(c.Context, d.db, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// listCmd creates the list command.
func listCmd(d appDeps) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List saved quotes, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: categoryUsage},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max items (max 100)"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Items to skip"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted quotes"},
		},
		Action: func(c *cli.Context) error {
			out, err := ops.List(c.Context, d.db, ops.ListInput{
				Category:       c.String("category"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(d appDeps) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted quotes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if deleted more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{}
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			out, err := ops.Purge(c.Context, d.db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(d appDeps) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export saved quotes to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.muse/exports/<category|all>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted quotes"},
		},
		Action: func(c *cli.Context) error {
			out, err := ops.Export(c.Context, d.db, d.cfg, ops.ExportInput{
				Path:           c.String("path"),
				Category:       c.String("category"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// importCmd creates the import command.
func importCmd(d appDeps) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import quotes from a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace"},
		},
		Action: func(c *cli.Context) error {
			out, err := ops.Import(c.Context, d.db, d.cfg, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(d appDeps) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and web page",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8000, Usage: "Port to listen on"},
			&cli.BoolFlag{Name: "no-probe", Usage: "Skip the startup model check"},
		},
		Action: func(c *cli.Context) error {
			if d.probe != nil && !c.Bool("no-probe") {
				ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
				if err := d.probe(ctx); err != nil {
					d.logger.Warn("model check failed; quotes will be unavailable until it recovers", zap.Error(err))
				} else {
					st := d.quotes.Status()
					d.logger.Info("model ready", zap.String("model", st.Model))
				}
				cancel()
			}

			srv, err := web.NewServer(web.Deps{
				DB:      d.db,
				Config:  d.cfg,
				Quotes:  d.quotes,
				Logger:  d.logger,
				Version: Version,
			}, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, d.logger)
		},
	}
}

// uiCmd creates the ui command.
func uiCmd(d appDeps) *cli.Command {
	serverURL := ""
	if d.cfg != nil {
		serverURL = d.cfg.ServerURL
	}
	return &cli.Command{
		Name:  "ui",
		Usage: "Browse quotes in the terminal (talks to a running 'muse serve')",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: serverURL, Usage: "Server base URL"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: categoryUsage},
			&cli.BoolFlag{Name: "dark", Usage: "Start in dark mode"},
		},
		Action: func(c *cli.Context) error {
			category := c.String("category")
			if category == "" && d.cfg != nil {
				category = d.cfg.DefaultCategory
			}
			cl := client.New(c.String("server"), nil)
			return tui.Run(c.Context, cl, tui.Options{
				Category: category,
				Dark:     c.Bool("dark"),
			})
		},
	}
}

// outputJSON writes JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if qErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", qErr.Code, qErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads stdin up to maxBytes.
func readStdin(maxBytes int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("input exceeds %d bytes", maxBytes)
	}
	return string(data), nil
}

// textFromArgsOrStdin joins positional arguments, or reads piped stdin when
// there are none.
func textFromArgsOrStdin(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if !stdinHasData() {
		return "", errors.NewInvalidRequest("text must be given as arguments or piped via stdin")
	}
	text, err := readStdin(maxStdinBytes)
	if err != nil {
		return "", errors.NewInvalidRequest(err.Error())
	}
	return text, nil
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
