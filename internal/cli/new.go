// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package cli

import (
	"fmt"

	"go.astrophena.name/lyra/internal/scaffold"

	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Scaffold a new site in the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := scaffold.Create("."); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Created a new site. Run 'lyra watch' to see it.")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(newCmd)
}
