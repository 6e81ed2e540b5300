package main

import (
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/bogrep/bogrep/internal/bogrep"
	"github.com/bogrep/bogrep/internal/config"
	"github.com/bogrep/bogrep/internal/grep"
)

// cmdGrep implements the `<pattern>` subcommand (spec.md §6).
func cmdGrep(configDir, pattern string, args []string) int {
	fs := flag.NewFlagSet("grep", flag.ContinueOnError)
	var (
		ignoreCase = fs.BoolP("ignore-case", "i", false, "case-insensitive match")
		listOnly   = fs.BoolP("list", "l", false, "list matching URLs only")
		wholeWord  = fs.BoolP("word", "w", false, "match whole words only")
		mode       = fs.StringP("mode", "m", "", "restrict to one cache mode: html|text|markdown")
	)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	svc, err := bogrep.Open(configDir)
	if err != nil {
		return fail(err)
	}
	defer svc.Close()

	index, err := svc.Index()
	if err != nil {
		return fail(err)
	}

	matches, err := grep.Search(svc.CacheStore(), index, pattern, grep.Options{
		IgnoreCase: *ignoreCase,
		ListOnly:   *listOnly,
		WholeWord:  *wholeWord,
		Mode:       config.CacheMode(*mode),
	})
	if err != nil {
		return fail(err)
	}

	for _, m := range matches {
		if *listOnly {
			fmt.Println(m.URL)
			continue
		}
		fmt.Printf("%s:%d:%s\n", m.URL, m.Line, m.Text)
	}
	if len(matches) == 0 {
		return exitFailure
	}
	return exitOK
}
