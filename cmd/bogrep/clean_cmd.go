package main

import (
	flag "github.com/spf13/pflag"

	"github.com/bogrep/bogrep/internal/bogrep"
)

func cmdClean(configDir string, args []string) int {
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	all := fs.Bool("all", false, "purge every cache file, regardless of the index")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	svc, err := bogrep.Open(configDir)
	if err != nil {
		return fail(err)
	}
	defer svc.Close()

	if err := svc.Clean(*all); err != nil {
		return fail(err)
	}
	printSuccess("cache cleaned")
	return exitOK
}
