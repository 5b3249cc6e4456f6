package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/db"
	"github.com/hpungsan/muse/internal/generate"
	"github.com/hpungsan/muse/internal/logging"
	"github.com/hpungsan/muse/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"generate": true, "normalize": true,
	"save": true, "fetch": true, "update": true, "delete": true, "list": true,
	"export": true, "import": true, "purge": true,
	"serve": true, "ui": true,
	"help": true,
}

// storelessCommands run without the database or the generation backend.
var storelessCommands = map[string]bool{
	"normalize": true, "ui": true,
}

// isStoreless returns true if the requested command needs neither the
// database nor the generator.
func isStoreless() bool {
	return len(os.Args) >= 2 && storelessCommands[os.Args[1]]
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _ __ ___  _   _ ___  ___
  | '_ ` + "`" + ` _ \| | | / __|/ _ \
  | | | | | | |_| \__ \  __/
  |_| |_| |_|\__,_|___/\___|

  Inspirational quotes, cleaned up and kept

  Usage: muse <command> [options]
         muse --help

  MCP server mode requires piped input.`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(appDeps{logger: logging.Nop()})
		if err := app.Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fail("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".muse")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fail("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fail("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// normalize and ui only need config; skip opening the database
	if isStoreless() {
		app := newCLIApp(appDeps{cfg: cfg, logger: logger})
		if err := app.Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
	}

	database, err := db.Init(baseDir)
	if err != nil {
		fail("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	gemini := generate.NewGemini(generate.GeminiConfigFrom(cfg), logger)
	quotes, err := generate.NewService(gemini, cfg.RecentQuoteMemory, logger)
	if err != nil {
		fail("failed to create quote service: %v", err)
	}

	deps := appDeps{
		db:     database,
		cfg:    cfg,
		quotes: quotes,
		probe:  gemini.Probe,
		logger: logger,
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(deps)
		if err := app.Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'muse --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(database, cfg, quotes, Version); err != nil {
		fail("%v", err)
	}
}

// probeFunc checks that the generation backend answers.
type probeFunc func(ctx context.Context) error
