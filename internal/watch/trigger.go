// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package watch

import (
	"context"
	"errors"
	"log/slog"

	"go.astrophena.name/base/logger"
	"go.astrophena.name/lyra/internal/site"
)

// Outcome is the result of a single guarded build.
type Outcome int

const (
	// Success means the build completed.
	Success Outcome = iota
	// Recoverable means the build failed with a problem the site author
	// can fix. Watch mode keeps running and keeps serving the previous
	// output.
	Recoverable
	// Fatal means the build failed in an unexpected way. The process must
	// not continue, since the generator is in an unverified state.
	Fatal
)

// Trigger runs builds one at a time.
//
// Kick requests a rebuild without ever blocking: requests that arrive
// while a build is in flight collapse into a single follow-up build. A
// fatal build failure is delivered on Fatal and stops the loop; it is the
// owner's job to observe it and shut everything down.
type Trigger struct {
	build    func() error
	requests chan struct{}
	fatal    chan error
}

// NewTrigger returns a Trigger that runs build on every request.
func NewTrigger(build func() error) *Trigger {
	return &Trigger{
		build:    build,
		requests: make(chan struct{}, 1),
		fatal:    make(chan error, 1),
	}
}

// Kick schedules a rebuild. It never blocks.
func (t *Trigger) Kick() {
	select {
	case t.requests <- struct{}{}:
	default:
	}
}

// Fatal delivers the error that made a build fatal, if any.
func (t *Trigger) Fatal() <-chan error { return t.fatal }

// Run executes requested builds until ctx is cancelled or a build fails
// fatally. Builds never overlap: Run is the only place Build is called
// after startup.
func (t *Trigger) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.requests:
			if t.Build(ctx) == Fatal {
				return
			}
		}
	}
}

// Build invokes the generator once and classifies the result. Problems
// the site author can fix are reported to the operator and the dev loop
// lives on; anything else is put on the Fatal channel.
func (t *Trigger) Build(ctx context.Context) Outcome {
	err := t.build()
	if err == nil {
		return Success
	}

	var serr *site.Error
	if errors.As(err, &serr) {
		logger.Error(ctx, "build failed", slog.Any("err", err))
		logger.Info(ctx, "Generated site with errors. Waiting for changes...")
		return Recoverable
	}

	logger.Error(ctx, "build failed, cannot continue", slog.Any("err", err))
	t.fatal <- err
	return Fatal
}
