// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// lyra is a static site generator with a live-reloading dev loop.
//
// See the README for usage.
package main

import (
	"os"

	"go.astrophena.name/lyra/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
