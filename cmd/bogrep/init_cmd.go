package main

import (
	"github.com/bogrep/bogrep/internal/bogrep"
)

func cmdInit(configDir string, args []string) int {
	if err := bogrep.Init(configDir); err != nil {
		return fail(err)
	}
	printSuccess("initialized %s", configDir)
	return exitOK
}
