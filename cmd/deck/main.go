package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hpungsan/promptdeck/internal/config"
	"github.com/hpungsan/promptdeck/internal/kv"
	"github.com/hpungsan/promptdeck/internal/logging"
	"github.com/hpungsan/promptdeck/internal/mcp"
	"github.com/hpungsan/promptdeck/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"state": true, "folder": true, "prompt": true, "search": true,
	"settings": true, "export": true, "import": true,
	"profile": true, "optimize": true, "reset": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false // No args → MCP server
	}
	arg := args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
       _             _
   ___| | ___  ___  | | __
  / _  |/ _ \/ __| | |/ /
 | (_| |  __/ (__  |   <
  \__,_|\___|\___| |_|\_\

  promptdeck: local prompt library

  Usage: deck <command> [options]
         deck --help

  MCP server mode requires piped input.`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before touching storage
	if isHelpOrVersion(os.Args) {
		app := newCLIApp(nil, nil, nil)
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode(os.Args) && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'deck --help' for usage.\n")
		os.Exit(1)
	}

	baseDir, err := config.BaseDir()
	if err != nil {
		fatal("could not determine home directory: %v", err)
	}
	config.LoadEnv(baseDir)

	// Project .promptdeck/ overrides the global config; fall back to global only
	// if the working directory is unavailable.
	var cfg *config.Config
	if wd, wdErr := os.Getwd(); wdErr == nil {
		cfg, err = config.LoadWithRepo(baseDir, wd)
	} else {
		cfg, err = config.Load(baseDir)
	}
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fatal("%v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := kv.Open(baseDir, cfg, logger)
	if err != nil {
		fatal("failed to open %s store: %v", cfg.StorageBackend, err)
	}
	defer store.Close()

	repo := ops.NewRepo(store, logger, ops.WithFiles(baseDir, cfg))

	if isCLIMode(os.Args) {
		app := newCLIApp(repo, cfg, logger)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			store.Close()
			os.Exit(1)
		}
		return
	}

	// MCP server mode (default)
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("ignoring unknown disabled_tools", zap.Strings("tools", unknown))
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		logger.Warn("ignoring unknown disabled_types", zap.Strings("types", unknown))
	}
	if err := mcp.Run(repo, cfg, Version, logger); err != nil {
		logger.Error("mcp server stopped", zap.Error(err))
		store.Close()
		os.Exit(1)
	}
}
