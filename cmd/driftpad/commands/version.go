package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/driftaudio/driftpad/cmd/driftpad/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(build.String())
		if IsVerbose() {
			fmt.Printf("  go:     %s\n", runtime.Version())
			if path, err := defaultPolicyPath(); err == nil {
				fmt.Printf("  policy: %s\n", path)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
