// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version information, overridden via -ldflags on release builds.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lyra %s (%s %s)\n", version, commit, date)
	},
}

func init() {
	// Fill version info from build info when not injected, e.g. on go
	// install.
	if version == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
				version = bi.Main.Version
			}
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					if commit == "none" && s.Value != "" {
						commit = s.Value
					}
				case "vcs.time":
					if date == "unknown" && s.Value != "" {
						date = s.Value
					}
				}
			}
		}
	}

	RootCmd.AddCommand(versionCmd)
}
