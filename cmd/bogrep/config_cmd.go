package main

import (
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/bogrep/bogrep/internal/bogrep"
	"github.com/bogrep/bogrep/internal/config"
)

func cmdConfig(configDir string, args []string) int {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	var (
		source      = fs.String("source", "", "add a source path")
		folders     = fs.StringSlice("folders", nil, "folder filter for --source")
		ignore      = fs.StringSlice("ignore", nil, "URLs to add to the ignore list")
		underlying  = fs.StringSlice("underlying", nil, "URLs to add to the underlying-rewrite list")
		cacheMode   = fs.String("cache-mode", "", "cache mode: text|markdown|html")
		concurrency = fs.Int("max-concurrent-requests", 0, "bounded fetch concurrency")
		throttleMs  = fs.Int("request-throttling", -1, "per-host minimum interval between requests, in ms")
		timeoutMs   = fs.Int("request-timeout", 0, "per-request timeout, in ms")
		show        = fs.Bool("show", false, "print the current settings")
	)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	svc, err := bogrep.Open(configDir)
	if err != nil {
		return fail(err)
	}
	defer svc.Close()

	if *show {
		printSettings(svc.Settings)
		return exitOK
	}

	err = svc.Config(func(s *config.Settings) {
		if *source != "" {
			s.Sources = append(s.Sources, config.SourceConfig{Path: *source, Folders: *folders})
		}
		s.IgnoredURLs = append(s.IgnoredURLs, *ignore...)
		s.UnderlyingURLs = append(s.UnderlyingURLs, *underlying...)
		if *cacheMode != "" {
			s.CacheMode = config.CacheMode(*cacheMode)
		}
		if *concurrency > 0 {
			s.MaxConcurrentRequests = *concurrency
		}
		if *throttleMs >= 0 {
			s.RequestThrottlingMillis = *throttleMs
		}
		if *timeoutMs > 0 {
			s.RequestTimeoutMillis = *timeoutMs
		}
	})
	if err != nil {
		return fail(err)
	}
	printSuccess("settings updated")
	return exitOK
}

func printSettings(s config.Settings) {
	fmt.Printf("cache_mode: %s\n", s.CacheMode)
	fmt.Printf("max_concurrent_requests: %d\n", s.MaxConcurrentRequests)
	fmt.Printf("request_timeout: %dms\n", s.RequestTimeoutMillis)
	fmt.Printf("request_throttling: %dms\n", s.RequestThrottlingMillis)
	fmt.Printf("max_open_files: %d\n", s.MaxOpenFiles)
	fmt.Println("sources:")
	for _, src := range s.Sources {
		fmt.Printf("  - %s %v\n", src.Path, src.Folders)
	}
	fmt.Println("ignored_urls:", s.IgnoredURLs)
	fmt.Println("underlying_urls:", s.UnderlyingURLs)
}
