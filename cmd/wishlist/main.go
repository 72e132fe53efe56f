package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hpungsan/wishlist/internal/app"
	"github.com/hpungsan/wishlist/internal/config"
	"github.com/hpungsan/wishlist/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"add": true, "list": true, "get": true, "update": true, "delete": true,
	"watch": true, "serve": true, "mcp": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// Global flags → CLI
	if arg == "--format" || arg == "-f" || strings.HasPrefix(arg, "--format=") {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
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
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  __      __ _  _    _     _  _      _
  \ \    / /(_)| |_ | |   (_)| |_   | |
   \ \/\/ / | ||  _|| |__ | ||  _|  |_|
    \_/\_/  |_| \__||____||_| \__|  (_)

  Local wish list

  Usage: wishlist <command> [options]
         wishlist --help

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
		if err := newCLIApp(nil, os.Stdout).Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	// A .env in the working directory may point WISHLIST_HOME elsewhere
	if err := config.LoadDotEnv("."); err != nil {
		fail("%v", err)
	}
	baseDir, err := config.BaseDir()
	if err != nil {
		fail("%v", err)
	}
	if err := config.LoadDotEnv(baseDir); err != nil {
		fail("%v", err)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		fail("failed to load config: %v", err)
	}

	// Logs go to stderr; stdout carries command output and the MCP stream
	a, err := app.Open(baseDir, cfg, os.Stderr)
	if err != nil {
		fail("%v", err)
	}
	defer a.Close()

	// CLI mode: known subcommand
	if isCLIMode() {
		if err := newCLIApp(a, os.Stdout).Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			a.Close()
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'wishlist --help' for usage.\n")
		a.Close()
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(a.Repo, cfg, a.Logger, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		a.Close()
		os.Exit(1)
	}
}
