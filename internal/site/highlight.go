// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const highlightStyle = "github"

// Inline styles, so pages don't need a chroma stylesheet.
var highlightFormatter = html.New()

// highlighter rewrites fenced code blocks in rendered pages into
// syntax-highlighted HTML. Rendered blocks are cached on disk keyed by
// the code itself, so unchanged blocks cost nothing on rebuilds.
type highlighter struct {
	dir string // cache directory, empty disables caching
}

func newHighlighter(dir string) *highlighter {
	return &highlighter{dir: dir}
}

// process replaces each <pre><code class="language-..."> block in content
// with its highlighted form. Blocks without a language are left alone.
func (hl *highlighter) process(content []byte) ([]byte, error) {
	if !bytes.Contains(content, []byte("<pre><code")) {
		return content, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var herr error
	doc.Find("pre > code").Each(func(_ int, s *goquery.Selection) {
		if herr != nil {
			return
		}
		lang, ok := strings.CutPrefix(s.AttrOr("class", ""), "language-")
		if !ok || lang == "" || strings.Contains(lang, " ") {
			return
		}
		rendered, err := hl.render(lang, s.Text())
		if err != nil {
			herr = err
			return
		}
		s.Parent().ReplaceWithHtml(rendered)
	})
	if herr != nil {
		return nil, herr
	}

	// goquery wraps the fragment into a full document, unwrap it back.
	out, err := doc.Find("body").Html()
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (hl *highlighter) render(lang, code string) (string, error) {
	var key string
	if hl.dir != "" {
		sum := sha256.Sum256([]byte(lang + "\x00" + code))
		key = hex.EncodeToString(sum[:])
		if b, err := os.ReadFile(filepath.Join(hl.dir, key)); err == nil {
			return string(b), nil
		}
	}

	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	style := styles.Get(highlightStyle)
	if style == nil {
		style = styles.Fallback
	}

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := highlightFormatter.Format(&buf, style, it); err != nil {
		return "", err
	}

	if hl.dir != "" {
		if err := os.MkdirAll(hl.dir, 0o755); err == nil {
			// Cache misses are cheap, ignore write failures.
			_ = os.WriteFile(filepath.Join(hl.dir, key), buf.Bytes(), 0o644)
		}
	}
	return buf.String(), nil
}
