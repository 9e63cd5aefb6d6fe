// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package cli

import (
	"os"
	"path/filepath"

	"go.astrophena.name/lyra/internal/site"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove build artifacts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := site.LoadConfig(".")
		if err != nil {
			return err
		}
		// A missing artifact directory is an error, not a no-op: there
		// is nothing to clean here.
		for _, dir := range []string{c.Dst, filepath.Join(c.Src, site.CacheDir)} {
			if _, err := os.Stat(dir); err != nil {
				return err
			}
			if err := os.RemoveAll(dir); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(cleanCmd)
}
