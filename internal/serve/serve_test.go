// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package serve

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"go.astrophena.name/base/testutil"
)

func TestHandler(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":   {Data: []byte("<h1>Home</h1>")},
		"about.html":   {Data: []byte("<h1>About</h1>")},
		"404.html":     {Data: []byte("<h1>Not found</h1>")},
		"css/main.css": {Data: []byte("body{color:red}")},
	}
	h := Handler(fsys)

	cases := map[string]struct {
		path         string
		wantStatus   int
		wantBody     string // checked only when non-empty
		wantLocation string
	}{
		"root redirects": {
			path:         "/",
			wantStatus:   http.StatusFound,
			wantLocation: "/index.html",
		},
		"index": {
			path:       "/index.html",
			wantStatus: http.StatusOK,
			wantBody:   "<h1>Home</h1>",
		},
		"pretty url": {
			path:       "/about",
			wantStatus: http.StatusOK,
			wantBody:   "<h1>About</h1>",
		},
		"static file": {
			path:       "/css/main.css",
			wantStatus: http.StatusOK,
			wantBody:   "body{color:red}",
		},
		"missing page": {
			path:       "/nope",
			wantStatus: http.StatusNotFound,
			wantBody:   "<h1>Not found</h1>",
		},
		"directory": {
			path:       "/css",
			wantStatus: http.StatusNotFound,
		},
		"directory with slash": {
			path:       "/css/",
			wantStatus: http.StatusNotFound,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			testutil.AssertEqual(t, rec.Code, tc.wantStatus)
			if tc.wantBody != "" {
				testutil.AssertEqual(t, rec.Body.String(), tc.wantBody)
			}
			if tc.wantLocation != "" {
				testutil.AssertEqual(t, rec.Result().Header.Get("Location"), tc.wantLocation)
			}
		})
	}
}

func TestHandlerPlainNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(fstest.MapFS{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	testutil.AssertEqual(t, rec.Code, http.StatusNotFound)
	if !strings.Contains(rec.Body.String(), "404 page not found") {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestServer(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Hello</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv, err := Start(t.Context(), "localhost:0", dir)
	if err != nil {
		t.Fatal(err)
	}

	res, err := http.Get(srv.URL() + "/index.html")
	if err != nil {
		t.Fatal(err)
	}
	b, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, res.StatusCode, http.StatusOK)
	testutil.AssertEqual(t, string(b), "<h1>Hello</h1>")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-srv.Err():
		t.Fatalf("serve loop failed: %v", err)
	default:
	}
}
