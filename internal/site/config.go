// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Names of well-known files and directories inside a site project.
const (
	// ConfigFile is the site configuration file, looked up in the root of
	// the source directory.
	ConfigFile = "site.yml"
	// OutDir is where the generated site is placed by default.
	OutDir = "build"
	// CacheDir is where rendered syntax highlighting is cached between
	// builds.
	CacheDir = ".lyra-cache"
)

// Config represents a build configuration.
type Config struct {
	// Title is the title of the site.
	Title string
	// Author is the name of the author of the site.
	Author string
	// BaseURL is the base URL of the site.
	BaseURL *url.URL
	// Src is the directory where to read files from. If empty, uses the current
	// directory.
	Src string
	// Dst is the directory where to write files. If empty, uses the build
	// directory inside Src.
	Dst string
	// Prod determines if the site should be built in a production mode. This
	// means that drafts are excluded and the base URL is used to derive absolute
	// URLs from relative ones.
	Prod bool
	// SkipFeed determines if the feed for site shouldn't be built.
	SkipFeed bool

	feedCreated time.Time // used in tests
}

func (c *Config) setDefaults() {
	if c == nil {
		c = &Config{}
	}

	if c.Title == "" {
		c.Title = "Untitled site"
	}

	if c.BaseURL == nil {
		c.BaseURL = &url.URL{
			Scheme: "https",
			Host:   "example.com",
		}
	}

	if c.Src == "" {
		c.Src = filepath.Join(".")
	}

	if c.Dst == "" {
		c.Dst = filepath.Join(c.Src, OutDir)
	}
}

// configFile is the on-disk shape of ConfigFile.
type configFile struct {
	Title    string `yaml:"title"`
	Author   string `yaml:"author"`
	BaseURL  string `yaml:"base_url"`
	Output   string `yaml:"output"`
	SkipFeed bool   `yaml:"skip_feed"`
}

// LoadConfig reads ConfigFile from the site source directory dir and
// returns the resulting build configuration. A missing ConfigFile is not
// an error, the returned Config simply has the defaults. A malformed one
// is reported as [Error].
func LoadConfig(dir string) (*Config, error) {
	c := &Config{Src: dir}

	path := filepath.Join(dir, ConfigFile)
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		c.setDefaults()
		return c, nil
	} else if err != nil {
		return nil, err
	}

	var f configFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: %v", errConfigParse, err)}
	}

	c.Title = f.Title
	c.Author = f.Author
	if f.BaseURL != "" {
		u, err := url.Parse(f.BaseURL)
		if err != nil {
			return nil, &Error{Path: path, Err: fmt.Errorf("%w: %v", errConfigBaseURL, err)}
		}
		c.BaseURL = u
	}
	if f.Output != "" {
		c.Dst = filepath.Join(dir, f.Output)
	}
	c.SkipFeed = f.SkipFeed

	c.setDefaults()
	return c, nil
}
