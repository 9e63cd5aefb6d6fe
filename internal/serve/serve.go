// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package serve provides the HTTP server that previews a generated site
// during development.
//
// The server only ever reads from the output directory, so it can keep
// serving a slightly stale tree while a rebuild is writing the next one.
package serve

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"strings"

	"go.astrophena.name/base/logger"
)

// Server is a running dev server.
type Server struct {
	ln   net.Listener
	srv  *http.Server
	errc chan error
}

// Start binds addr and begins serving files from dir.
func Start(ctx context.Context, addr, dir string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		ln:   ln,
		srv:  &http.Server{Handler: Handler(os.DirFS(dir))},
		errc: make(chan error, 1),
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.errc <- err
		}
	}()

	logger.Info(ctx, "listening for HTTP requests", slog.String("addr", s.URL()))
	return s, nil
}

// URL returns the root URL the server is reachable at.
func (s *Server) URL() string { return "http://" + s.ln.Addr().String() }

// Err delivers the serve loop failure, if any.
func (s *Server) Err() <-chan error { return s.errc }

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

// Handler serves a generated site from fsys. A request for the site root
// is redirected to /index.html. A request for /foo serves foo.html when
// it exists. Anything not present gets a not found response, rendered
// from the site's 404.html when it has one. Directories are never listed.
func Handler(fsys fs.FS) http.Handler {
	return &handler{fs: fsys}
}

type handler struct {
	fs fs.FS
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		http.Redirect(w, r, "/index.html", http.StatusFound)
		return
	}
	p := strings.TrimPrefix(path.Clean(r.URL.Path), "/")

	// Special case: /foo will serve content from foo.html, if it exists.
	if _, err := fs.Stat(h.fs, p+".html"); err == nil {
		p += ".html"
	}

	d, err := fs.Stat(h.fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		h.serveNotFound(w, r)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if d.IsDir() {
		h.serveNotFound(w, r)
		return
	}

	b, err := fs.ReadFile(h.fs, p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.ServeContent(w, r, d.Name(), d.ModTime(), bytes.NewReader(b))
}

func (h *handler) serveNotFound(w http.ResponseWriter, r *http.Request) {
	f, err := h.fs.Open("404.html")
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	w.WriteHeader(http.StatusNotFound)
	io.Copy(w, f)
}
