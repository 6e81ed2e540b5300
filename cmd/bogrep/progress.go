package main

import (
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/bogrep/bogrep/internal/fetch"
)

// newProgressCallback builds a fetch.ProgressEvent callback that drives a
// single progressbar.ProgressBar, grounded on kraklabs/cie's
// pipeline.SetProgressCallback -> *progressbar.ProgressBar wiring
// (cmd/cie/index.go). Bogrep's scheduler has one phase, so there is no
// per-phase bar swap.
func newProgressCallback(quiet bool) func(fetch.ProgressEvent) {
	if quiet {
		return nil
	}
	var bar *progressbar.ProgressBar
	return func(e fetch.ProgressEvent) {
		if bar == nil {
			bar = progressbar.NewOptions(e.Total,
				progressbar.OptionSetDescription("fetching"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(e.Completed)
	}
}
