package main

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/bogrep/bogrep/internal/bogrep"
)

func cmdSync(ctx context.Context, configDir string, args []string) int {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	var (
		replace = fs.Bool("replace", false, "re-fetch and replace already-cached bookmarks")
		quiet   = fs.Bool("quiet", false, "suppress the progress bar")
	)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	svc, err := bogrep.Open(configDir)
	if err != nil {
		return fail(err)
	}
	defer svc.Close()

	report, err := svc.Sync(ctx, bogrep.FetchOptions{
		Replace:    *replace,
		OnProgress: newProgressCallback(*quiet),
	})
	if err != nil {
		return fail(err)
	}
	return printFetchReport(report)
}
