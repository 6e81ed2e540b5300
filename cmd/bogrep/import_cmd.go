package main

import (
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/bogrep/bogrep/internal/bogrep"
)

func cmdImport(configDir string, args []string) int {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "plan without persisting the index")
	urls := fs.StringSlice("urls", nil, "restrict import to these source paths")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	svc, err := bogrep.Open(configDir)
	if err != nil {
		return fail(err)
	}
	defer svc.Close()

	var only map[string]struct{}
	if len(*urls) > 0 {
		only = make(map[string]struct{}, len(*urls))
		for _, u := range *urls {
			only[u] = struct{}{}
		}
	}

	updated, err := svc.Import(bogrep.ImportOptions{DryRun: *dryRun, Only: only})
	if err != nil {
		return fail(err)
	}
	fmt.Printf("imported %d bookmarks\n", len(updated))
	return exitOK
}
