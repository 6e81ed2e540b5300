package main

import (
	"fmt"
	"os"

	"github.com/bogrep/bogrep/internal/bogrep"
)

func cmdAdd(configDir string, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "bogrep add: expected at least one URL")
		return exitUsage
	}
	svc, err := bogrep.Open(configDir)
	if err != nil {
		return fail(err)
	}
	defer svc.Close()

	if err := svc.Add(args); err != nil {
		return fail(err)
	}
	printSuccess("added %d bookmark(s)", len(args))
	return exitOK
}

func cmdRemove(configDir string, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "bogrep remove: expected at least one URL")
		return exitUsage
	}
	svc, err := bogrep.Open(configDir)
	if err != nil {
		return fail(err)
	}
	defer svc.Close()

	if err := svc.Remove(args); err != nil {
		return fail(err)
	}
	printSuccess("removed %d bookmark(s)", len(args))
	return exitOK
}
