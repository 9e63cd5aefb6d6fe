// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package watch

import (
	"os"
	"sync"
	"time"
)

// Debouncer suppresses events that are duplicates of a change it has
// already accepted. A single save in most editors fires several raw
// notifications within the same instant; comparing the file's on-disk
// modification time against the one recorded for the previous accepted
// event collapses such a burst into one rebuild, without a timer.
//
// The trade-off is granularity: two genuinely distinct edits of the same
// file within one threshold window coalesce too.
type Debouncer struct {
	threshold time.Duration

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// NewDebouncer returns a Debouncer that accepts an event for a path only
// when its modification time moved by at least threshold since the last
// accepted event for that path. Zero threshold means one second, matching
// the coarsest common filesystem timestamp resolution.
func NewDebouncer(threshold time.Duration) *Debouncer {
	if threshold == 0 {
		threshold = time.Second
	}
	return &Debouncer{
		threshold: threshold,
		lastSeen:  make(map[string]time.Time),
	}
}

// Accept reports whether ev should trigger a rebuild and records its
// modification time if so.
func (d *Debouncer) Accept(ev Event) bool {
	// The file may already be gone when we look at it (deletes, renames).
	// The zero time stands in for it, so repeated deletes of the same path
	// still coalesce.
	var mtime time.Time
	if fi, err := os.Stat(ev.Path); err == nil {
		mtime = fi.ModTime()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	last, ok := d.lastSeen[ev.Path]
	if ok && absDuration(mtime.Sub(last)) < d.threshold {
		return false
	}
	d.lastSeen[ev.Path] = mtime
	return true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
