// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package cli implements the lyra command line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"go.astrophena.name/base/logger"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// RootCmd is the base command. Each verb registers itself in its init.
var RootCmd = &cobra.Command{
	Use:   "lyra",
	Short: "A static site generator with a live-reloading dev loop",
	Long: `lyra generates static sites from Markdown and HTML pages.

Start with 'lyra new' in an empty directory, then 'lyra watch' to build
the site, serve it locally and rebuild it on every change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// A bare invocation fails so that scripts notice it; the usage
		// text cobra prints alongside tells a human what to do instead.
		return errors.New("no command given")
	},
}

// Execute runs the command named on the command line. It is called by
// main and its error decides the process exit code. The context it
// passes down carries the logger every verb reports through.
func Execute() error {
	l := newLogger(os.Stderr)
	return RootCmd.ExecuteContext(logger.Put(context.Background(), l))
}

// newLogger builds the operator logger: colored human-readable lines
// when w is a terminal, JSON records otherwise.
func newLogger(w io.Writer) *logger.Logger {
	l := logger.New(nil)
	opts := &tint.Options{Level: l.Level, TimeFormat: time.Kitchen}

	var handler slog.Handler
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		handler = tint.NewHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l.Level})
	}
	l.Attach(handler)
	return l
}
