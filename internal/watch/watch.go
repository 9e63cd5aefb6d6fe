// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package watch implements the development loop: watch a site source
// tree, debounce filesystem event bursts into single rebuilds, run those
// rebuilds one at a time and serve the output over HTTP in the meantime.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"go.astrophena.name/base/logger"
	"go.astrophena.name/lyra/internal/serve"
	"go.astrophena.name/lyra/internal/site"
)

// Options configures a watch mode run.
type Options struct {
	// Src is the site source directory to watch. If empty, uses the
	// current directory.
	Src string
	// Dst is the output directory the dev server serves. It is fixed for
	// the whole run. If empty, uses the build directory inside Src.
	Dst string
	// Addr is the host:port the dev server listens on. If empty, uses
	// localhost:3000.
	Addr string
	// Debounce is the minimum distance between modification times of two
	// accepted events for the same path. Zero means one second.
	Debounce time.Duration
	// Excludes are path substrings whose events never trigger a build. If
	// empty, covers the output directory, the highlight cache, version
	// control and editor state.
	Excludes []string
	// Build regenerates the site. Required.
	Build func() error
}

var readyHook func() // used in tests, called when watch mode is ready for changes

// Run enters watch mode and blocks until ctx is cancelled by the
// operator, the dev server fails, or a build fails fatally. On operator
// cancellation it shuts everything down and returns nil; any other way
// out returns the error after an orderly shutdown.
func Run(ctx context.Context, opts Options) error {
	if opts.Build == nil {
		return errors.New("watch: Options.Build is required")
	}
	if opts.Src == "" {
		opts.Src = "."
	}
	if opts.Dst == "" {
		opts.Dst = filepath.Join(opts.Src, site.OutDir)
	}
	if opts.Addr == "" {
		opts.Addr = "localhost:3000"
	}
	if len(opts.Excludes) == 0 {
		opts.Excludes = []string{filepath.Base(opts.Dst), site.CacheDir, ".git", ".vscode"}
	}

	root, err := filepath.Abs(opts.Src)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tr := NewTrigger(opts.Build)

	logger.Info(ctx, "performing an initial build")
	if tr.Build(ctx) == Fatal {
		return <-tr.Fatal()
	}

	w, err := NewWatcher(root, opts.Excludes)
	if err != nil {
		return err
	}
	defer w.Close()

	srv, err := serve.Start(ctx, opts.Addr, opts.Dst)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tr.Run(ctx)
	}()

	deb := NewDebouncer(opts.Debounce)
	go func() {
		logger.Info(ctx, "started watching for new changes", slog.String("dir", root))

		for ev := range w.Events() {
			if excluded(root, ev.Path, opts.Excludes) {
				continue
			}
			if !deb.Accept(ev) {
				continue
			}
			logger.Info(ctx, "detected change, scheduling build",
				slog.String("name", ev.Path),
				slog.Any("op", ev.Op),
			)
			tr.Kick()
		}
	}()

	if readyHook != nil {
		readyHook()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info(ctx, "shutting down, bye")
	case err := <-srv.Err():
		runErr = err
	case err := <-tr.Fatal():
		runErr = err
	}

	// Let an in-flight build finish before tearing the output dir's
	// server down.
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}

	return runErr
}
