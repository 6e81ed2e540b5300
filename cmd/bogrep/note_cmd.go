package main

import (
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/bogrep/bogrep/internal/bogrep"
)

// cmdNote shows, sets, or clears a bookmark's free-text note
// (SPEC_FULL.md §4.2 expansion).
func cmdNote(configDir string, args []string) int {
	fs := flag.NewFlagSet("note", flag.ContinueOnError)
	clear := fs.Bool("clear", false, "delete the note")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Println("bogrep note: expected a URL")
		return exitUsage
	}
	url := rest[0]
	body := strings.Join(rest[1:], " ")

	svc, err := bogrep.Open(configDir)
	if err != nil {
		return fail(err)
	}
	defer svc.Close()

	if *clear {
		if err := svc.RemoveNote(url); err != nil {
			return fail(err)
		}
		printSuccess("note cleared")
		return exitOK
	}

	if body != "" {
		if err := svc.SetNote(url, body); err != nil {
			return fail(err)
		}
		printSuccess("note saved")
		return exitOK
	}

	note, ok, err := svc.GetNote(url)
	if err != nil {
		return fail(err)
	}
	if !ok {
		fmt.Println("(no note)")
		return exitOK
	}
	fmt.Println(note.Body)
	return exitOK
}
