package main

import (
	"fmt"

	"github.com/bogrep/bogrep/internal/fetch"
)

// printFetchReport prints a human-readable summary of a fetch.Report and
// returns the exit code it implies (spec.md §6: 130 on cancellation,
// 1 if any bookmark failed, 0 otherwise).
func printFetchReport(report fetch.Report) int {
	fmt.Printf("fetched %d, failed %d, skipped %d, ignored %d, removed %d\n",
		report.FetchedOK, report.Failed, report.Skipped, report.Ignored, report.Removed)
	for _, failure := range report.Failures {
		printWarning("  %s: %v", failure.URL, failure.Err)
	}
	for _, diff := range report.Diffs {
		fmt.Println(diff.Text)
	}

	if report.Cancelled {
		printWarning("cancelled: partial progress checkpointed")
		return exitCanceled
	}
	if report.Failed > 0 {
		return exitFailure
	}
	return exitOK
}
