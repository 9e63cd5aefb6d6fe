// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"bytes"
	"errors"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.astrophena.name/base/testutil"
	"go.astrophena.name/base/txtar"
)

func TestBuild(t *testing.T) {
	tca, err := txtar.ParseFile(filepath.Join("testdata", "site.txtar"))
	if err != nil {
		t.Fatal(err)
	}

	srcDir, dstDir := t.TempDir(), t.TempDir()
	testutil.ExtractTxtar(t, tca, srcDir)

	if err := Build(&Config{
		Title:       "Test site",
		Author:      "Test Author",
		Src:         srcDir,
		Dst:         dstDir,
		feedCreated: time.Date(2026, time.January, 8, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}

	index := readFile(t, filepath.Join(dstDir, "index.html"))
	if !strings.Contains(index, "<title>Home</title>") {
		t.Errorf("index.html misses the page title: %q", index)
	}
	if !strings.Contains(index, "This is the index page") {
		t.Errorf("index.html misses the page body: %q", index)
	}
	if !strings.Contains(index, "/css/main-") {
		t.Errorf("index.html doesn't reference the hashed stylesheet: %q", index)
	}
	// The fenced code block must have been rewritten by the highlighter.
	if strings.Contains(index, "language-go") {
		t.Errorf("index.html still has an unhighlighted code block: %q", index)
	}
	if !strings.Contains(index, "fmt") {
		t.Errorf("index.html lost the code block contents: %q", index)
	}

	post := readFile(t, filepath.Join(dstDir, "posts", "first.html"))
	if !strings.Contains(post, "<title>First post</title>") {
		t.Errorf("posts/first.html misses the page title: %q", post)
	}

	feed := readFile(t, filepath.Join(dstDir, "feed.xml"))
	if !strings.Contains(feed, "First post") {
		t.Errorf("feed.xml misses the post: %q", feed)
	}
	// No summary in the front matter, so the first paragraph serves as one.
	if !strings.Contains(feed, "First post.") {
		t.Errorf("feed.xml misses the derived summary: %q", feed)
	}

	hashed, err := filepath.Glob(filepath.Join(dstDir, "css", "main-*.css"))
	if err != nil {
		t.Fatal(err)
	}
	if len(hashed) != 1 {
		t.Fatalf("want exactly one hashed stylesheet, got %v", hashed)
	}
	testutil.AssertEqual(t, readFile(t, hashed[0]), "body{color:red}")

	// robots.txt is copied as is, without hashing or minification.
	testutil.AssertEqual(t, readFile(t, filepath.Join(dstDir, "robots.txt")), "User-agent: *\n")
}

func TestBuildMissingTemplate(t *testing.T) {
	srcDir := t.TempDir()
	for _, dir := range []string{"pages", "static", "templates"} {
		if err := os.MkdirAll(filepath.Join(srcDir, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	const page = `{
  "title": "Foo",
  "template": "nope",
  "permalink": "/"
}

Foo.
`
	if err := os.WriteFile(filepath.Join(srcDir, "pages", "foo.md"), []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Build(&Config{Src: srcDir, Dst: t.TempDir()})
	if err == nil {
		t.Fatal("want an error for a missing template")
	}
	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("want a structured error, got %v", err)
	}
	if !errors.Is(err, errTemplateMissing) {
		t.Fatalf("got error: %v", err)
	}
}

func TestStripComments(t *testing.T) {
	b := newBuildContext(&Config{Src: t.TempDir()})
	tpl := template.Must(template.New("test").Funcs(b.funcs).Parse(`{{ content . }}`))

	const content = `<!-- prettier-ignore-start -->
{
  "title": "Foo",
  "template": "layout",
  "permalink": "/"
}
<!-- prettier-ignore-end -->

Foo.

<!-- Some comment. -->
<!-- LOL. -->
`

	const strippedContent = "<p>Foo.</p>"

	p := &Page{path: "foo.md"}
	if err := p.parse(strings.NewReader(content)); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := p.build(b, tpl, &buf); err != nil {
		t.Fatal(err)
	}

	// Don't care about whitespace.
	got := strings.TrimSpace(buf.String())
	testutil.AssertEqual(t, got, strippedContent)
}

func TestPage(t *testing.T) {
	cases := map[string]struct {
		name, content string
		wantErr       error
		wantType      string
	}{
		"valid frontmatter": {
			name: "foo.md",
			content: `{
  "title": "Foo",
  "template": "layout",
  "permalink": "/"
}

Foo.
`,
		},
		"no frontmatter": {
			name:    "bar.md",
			content: "Hello, world!",
			wantErr: errFrontmatterMissing,
		},
		"invalid frontmatter (missing title)": {
			name: "invalid.md",
			content: `{
  "template": "layout",
  "permalink": "/"
}

Bar.
`,
			wantErr: errFrontmatterMissingParam,
		},
		"unsupported format": {
			name:    "unsupported.rst",
			content: "Sample text.",
			wantErr: errFormatUnsupported,
		},
		"invalid permalink": {
			name: "permalink.md",
			content: `{
  "title": "Foo",
  "template": "layout",
  "permalink": "dwd/"
}

Test.
`,
			wantErr: errPermalinkInvalid,
		},
		"default type": {
			name: "default-type.md",
			content: `{
  "title": "Foo",
  "template": "layout",
  "permalink": "/"
}

Test.
`,
			wantType: "page",
		},
		"post type": {
			name: "type-post.md",
			content: `{
  "title": "Foo",
  "template": "test",
  "type": "post",
  "permalink": "/posts/test"
}

Test
`,
			wantType: "post",
		},
		"modeline comment": {
			name: "modeline-comment.html",
			content: `<!-- vim: set ft=gotplhtml: -->
{
  "title": "Foo",
  "template": "test",
  "permalink": "/test"
}

<p>Test!</p>
`,
		},
		"invalid frontmatter (JSON)": {
			name: "invalid-frontmatter.html",
			content: `{
	"title": 0
}

<p>test</p>
`,
			wantErr: errFrontmatterParse,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			p := &Page{path: tc.name}
			err := p.parse(strings.NewReader(tc.content))

			// Don't use && because we want to trap all cases where err is
			// nil.
			if err == nil {
				if tc.wantErr != nil {
					t.Fatalf("must fail with error: %v", tc.wantErr)
				}
			}

			if err != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("got error: %v", err)
				}
				// Every parse failure is a problem the author can fix and
				// must be marked as such.
				var serr *Error
				if !errors.As(err, &serr) {
					t.Fatalf("error isn't structured: %v", err)
				}
			}

			if tc.wantType != "" && p.Type != tc.wantType {
				t.Fatalf("wanted type %s, but got %s", tc.wantType, p.Type)
			}
		})
	}
}

func TestURLTemplateFunc(t *testing.T) {
	bu := &url.URL{
		Scheme: "https",
		Host:   "example.com",
	}
	cases := map[string]struct {
		c    *Config
		in   string
		want string
	}{
		"env dev (base URL set)": {
			c: &Config{
				BaseURL: bu,
			},
			in:   "/test",
			want: "/test",
		},
		"env prod (base URL not set)": {
			c: &Config{
				Prod: true,
			},
			in:   "/lol",
			want: "/lol",
		},
		"env prod (base URL set)": {
			c: &Config{
				BaseURL: bu,
				Prod:    true,
			},
			in:   "/hello",
			want: "https://example.com/hello",
		},
		"single slash": {
			c:    &Config{},
			in:   "/",
			want: "/",
		},
		"full url": {
			c:    &Config{},
			in:   "https://go.astrophena.name",
			want: "https://go.astrophena.name",
		},
	}
	b := &buildContext{}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			b.c = tc.c
			got := b.url(tc.in)
			testutil.AssertEqual(t, got, tc.want)
		})
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
