// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package cli

import (
	"go.astrophena.name/lyra/internal/site"

	"github.com/spf13/cobra"
)

var buildProd bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the site once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := site.LoadConfig(".")
		if err != nil {
			return err
		}
		c.Prod = buildProd
		return site.Build(c)
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildProd, "prod", false, "build in production mode: skip drafts, derive absolute URLs")
	RootCmd.AddCommand(buildCmd)
}
