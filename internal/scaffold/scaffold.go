// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package scaffold creates new site projects from a bundled starter
// template.
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed all:project
var project embed.FS

// Create copies the starter project into dir. It refuses to run when any
// of the files it would create already exists, so a stray invocation
// can't clobber an existing site.
func Create(dir string) error {
	sub, err := fs.Sub(project, "project")
	if err != nil {
		return err
	}

	err = fs.WalkDir(sub, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, err := os.Stat(filepath.Join(dir, p)); err == nil {
			return fmt.Errorf("%s already exists", p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return os.CopyFS(dir, sub)
}
