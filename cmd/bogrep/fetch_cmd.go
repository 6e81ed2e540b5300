package main

import (
	"context"
	"net/http"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/bogrep/bogrep/internal/bogrep"
	"github.com/bogrep/bogrep/internal/render"
)

func cmdFetch(ctx context.Context, configDir string, args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	var (
		replace = fs.Bool("replace", false, "re-fetch and replace already-cached bookmarks")
		diff    = fs.StringSlice("diff", nil, "fetch these URLs and report a textual diff against the current cache")
		urls    = fs.StringSlice("urls", nil, "restrict fetch to these URLs")
		quiet   = fs.Bool("quiet", false, "suppress the progress bar")
		llmKey  = fs.String("llm-key", "", "API key for optional LLM markdown cleanup")
		llmURL  = fs.String("llm-url", "https://api.openai.com/v1", "base URL for the LLM cleanup service")
		llmMod  = fs.String("llm-model", "gpt-4o-mini", "model to use for LLM cleanup")
	)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	svc, err := bogrep.Open(configDir)
	if err != nil {
		return fail(err)
	}
	defer svc.Close()

	if *llmKey != "" {
		var respCache render.ResponseCache
		if fileCache, err := render.NewFileCache(filepath.Join(svc.Dir(), "llm-cache")); err != nil {
			printWarning("fetch: could not open LLM response cache: %v", err)
		} else {
			respCache = fileCache
		}
		cleaner := render.NewLLMCleaner(*llmKey, *llmURL, *llmMod, http.DefaultClient, respCache)
		svc.SetRenderer(render.New(render.Options{Cleaner: cleaner}))
	}

	report, err := svc.Fetch(ctx, bogrep.FetchOptions{
		Replace:    *replace,
		Diff:       *diff,
		URLs:       *urls,
		OnProgress: newProgressCallback(*quiet),
	})
	if err != nil {
		return fail(err)
	}
	return printFetchReport(report)
}
