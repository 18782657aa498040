package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Global flags
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "driftpad",
	Short: "Generative ambient audio that adapts to focus",
	Long: `driftpad - a generative ambient pad engine.

The engine synthesizes an endless evolving pad with a sub drone, rotating
chords and keys on a bar grid, and learns which textures keep the
listener focused.

The texture policy is stored in the OS config directory:
  macOS:   ~/Library/Application Support/driftpad/
  Linux:   ~/.config/driftpad/
  Windows: %AppData%/driftpad/

Examples:
  # Stream over websocket
  driftpad serve --listen :8977

  # Listen locally, reporting focus by hand
  driftpad play --focus 70

  # Render two minutes to a file
  driftpad render --seconds 120 --out drift.wav`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// defaultPolicyPath returns the per-user policy snapshot location.
func defaultPolicyPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("driftpad: config dir: %w", err)
	}
	return filepath.Join(dir, "driftpad", "policy.msgpack"), nil
}
