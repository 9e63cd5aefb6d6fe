// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op is the kind of change observed on a path.
type Op int

const (
	Created Op = iota
	Modified
	Deleted
)

func (o Op) String() string {
	switch o {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	}
	return "unknown"
}

// Event is a single filesystem change.
type Event struct {
	// Path is the absolute path of the changed entry.
	Path string
	// Op is what happened to it.
	Op Op
	// Time is when the change was observed.
	Time time.Time
}

// Watcher reports changes anywhere under a directory tree.
//
// Delivery on Events starts before NewWatcher returns and continues until
// Close, which releases the underlying OS watch and then closes the
// channel.
type Watcher struct {
	fw       *fsnotify.Watcher
	root     string
	excludes []string

	events  chan Event
	closing chan struct{}
	done    chan struct{}

	closeOnce sync.Once
}

// NewWatcher starts watching the tree rooted at root. Directories whose
// path matches one of excludes are not registered; see excluded for the
// matching rules.
func NewWatcher(root string, excludes []string) (*Watcher, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fw:       fw,
		root:     root,
		excludes: excludes,
		events:   make(chan Event, 64),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	if err := w.addRecursive(root); err != nil {
		fw.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

// Events returns the channel change events are delivered on. It is closed
// by Close.
func (w *Watcher) Events() <-chan Event { return w.events }

// Close releases the OS watch and stops delivery. It is safe to call
// multiple times.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closing)
		err = w.fw.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && excluded(w.root, p, w.excludes) {
			return filepath.SkipDir
		}
		return w.fw.Add(p)
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.events)

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !shouldReport(ev.Name, ev.Op) {
				continue
			}
			// Start watching directories as they appear.
			if ev.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if !excluded(w.root, ev.Name, w.excludes) {
						_ = w.addRecursive(ev.Name)
					}
				}
			}
			select {
			case w.events <- Event{Path: ev.Name, Op: opKind(ev.Op), Time: time.Now()}:
			case <-w.closing:
				return
			}
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			// A dropped event is recovered by the next save.
		}
	}
}

func opKind(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return Created
	case op.Has(fsnotify.Write):
		return Modified
	default:
		return Deleted
	}
}

// shouldReport decides whether a raw notification is worth reporting at
// all. Based on
// https://github.com/brandur/modulir/blob/1ff912fdc45a79cb4d8d9f199d213ae9c3598cbd/watch.go#L201.
func shouldReport(path string, op fsnotify.Op) bool {
	base := filepath.Base(path)

	// Mac OS' worst mistake.
	if base == ".DS_Store" {
		return false
	}

	// Vim creates this temporary file to check whether it can write into a
	// target directory.
	if base == "4913" {
		return false
	}

	// Ignore files that look like Vim backups.
	if strings.HasSuffix(base, "~") {
		return false
	}

	// Chmod won't change the build output, and a rename is followed by a
	// create event for the new name, so only these three matter.
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Remove) || op.Has(fsnotify.Write)
}

// excluded reports whether path lies inside one of the excluded subtrees.
// Matching is a case-sensitive substring check over the part of the path
// below root, so directories above the watched tree can never match.
func excluded(root, path string, excludes []string) bool {
	rel := strings.TrimPrefix(path, root)
	for _, e := range excludes {
		if strings.Contains(rel, e) {
			return true
		}
	}
	return false
}
