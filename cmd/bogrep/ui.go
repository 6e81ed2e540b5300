package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// initColors disables color output when stdout isn't a terminal or
// NO_COLOR is set, grounded on kraklabs/cie's cmd/cie ui.InitColors.
func initColors() {
	if os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

var (
	colorOK   = color.New(color.FgGreen)
	colorWarn = color.New(color.FgYellow)
	colorErr  = color.New(color.FgRed)
)

func init() { initColors() }

func printSuccess(format string, args ...any) {
	colorOK.Fprintf(os.Stdout, format+"\n", args...)
}

func printWarning(format string, args ...any) {
	colorWarn.Fprintf(os.Stderr, format+"\n", args...)
}

func printError(format string, args ...any) {
	colorErr.Fprintf(os.Stderr, format+"\n", args...)
}

func fail(err error) int {
	printError("bogrep: %v", err)
	return exitFailure
}
