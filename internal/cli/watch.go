// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package cli

import (
	"os"
	"os/signal"
	"time"

	"go.astrophena.name/lyra/internal/site"
	"go.astrophena.name/lyra/internal/watch"

	"github.com/spf13/cobra"
)

var (
	watchAddr     string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Build the site, then rebuild on every change and serve it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()

		c, err := site.LoadConfig(".")
		if err != nil {
			return err
		}

		return watch.Run(ctx, watch.Options{
			Src:      ".",
			Dst:      c.Dst,
			Addr:     watchAddr,
			Debounce: watchDebounce,
			Build: func() error {
				bc, err := site.LoadConfig(".")
				if err != nil {
					return err
				}
				// The served directory stays fixed for the whole run,
				// even if site.yml changes it mid-watch.
				bc.Dst = c.Dst
				return site.Build(bc)
			},
		})
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchAddr, "listen", "localhost:3000", "listen on `host:port`")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", time.Second, "treat changes to the same file closer than this as one")
	RootCmd.AddCommand(watchCmd)
}
