// Command bogrep imports browser bookmarks, fetches and caches their
// content, and greps the cached corpus.
//
// Usage:
//
//	bogrep init
//	bogrep config --source <path> [--folders <list>] [--ignore <urls…>] [--underlying <urls…>]
//	bogrep import [--dry-run] [--urls <urls…>]
//	bogrep fetch [--replace] [--diff <urls…>] [--urls <urls…>]
//	bogrep sync
//	bogrep add <urls…>
//	bogrep remove <urls…>
//	bogrep clean [--all]
//	bogrep <pattern> [-i] [-l] [-w] [-m html|text]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	flag "github.com/spf13/pflag"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitCanceled = 130
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("bogrep", flag.ContinueOnError)
	var (
		verbose = fs.BoolP("verbose", "v", false, "enable debug logging")
		home    = fs.StringP("home", "H", "", "config root (overrides BOGREP_HOME)")
	)
	fs.SetInterspersed(false)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	configDir, err := resolveConfigDir(*home)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bogrep:", err)
		return exitFailure
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage()
		return exitUsage
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "init":
		return cmdInit(configDir, cmdArgs)
	case "config":
		return cmdConfig(configDir, cmdArgs)
	case "import":
		return cmdImport(configDir, cmdArgs)
	case "fetch":
		return cmdFetch(ctx, configDir, cmdArgs)
	case "sync":
		return cmdSync(ctx, configDir, cmdArgs)
	case "add":
		return cmdAdd(configDir, cmdArgs)
	case "remove":
		return cmdRemove(configDir, cmdArgs)
	case "clean":
		return cmdClean(configDir, cmdArgs)
	case "note":
		return cmdNote(configDir, cmdArgs)
	case "help", "-h", "--help":
		usage()
		return exitOK
	default:
		return cmdGrep(configDir, cmd, cmdArgs)
	}
}

// resolveConfigDir honors --home, then BOGREP_HOME, then ~/.bogrep
// (spec.md §6).
func resolveConfigDir(flagHome string) (string, error) {
	if flagHome != "" {
		return flagHome, nil
	}
	if env := os.Getenv("BOGREP_HOME"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(home, ".bogrep"), nil
}

func usage() {
	fmt.Fprint(os.Stderr, `bogrep - offline-searchable bookmark reading list

Usage:
  bogrep <command> [options]

Commands:
  init                    create config dir with default settings
  config                  view or update settings
  import                  read configured sources into the index
  fetch                   fetch and cache bookmarks per the current plan
  sync                    import, then fetch
  add <urls...>           manually add bookmarks
  remove <urls...>        remove bookmarks and purge their cache
  clean                   purge cache artifacts with no index entry
  note <url> [text]       show, set, or clear (with --clear) a bookmark's note
  <pattern>               grep the cached corpus

Global options:
  -H, --home <dir>   config root (overrides BOGREP_HOME)
  -v, --verbose      enable debug logging

Environment:
  BOGREP_HOME   config root, if --home is not given

`)
}
