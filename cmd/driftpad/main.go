// Package main is the entry point for the driftpad CLI.
//
// Usage:
//
//	driftpad [flags] <command> [args]
//
// Commands:
//
//	serve    - Run the websocket streaming server
//	play     - Play generated audio on the local sound device
//	render   - Render generated audio to a WAV file
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/driftaudio/driftpad/cmd/driftpad/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
