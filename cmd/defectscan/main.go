// main is the entry point for the defectscan CLI.
package main

import (
	"github.com/defectlab/defectscan/cmd"
	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/internal/runstore"
)

func main() {
	// Wire the global run store manager into the command layer.
	cmd.SetRunManager(runstore.Manager)

	err := cmd.Execute()

	// Stores and profiles flush on every exit path, success or not.
	runstore.CloseStores()
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}

	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
