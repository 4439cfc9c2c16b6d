package handler

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
)

// IndexFile is the single page shell served for unmatched GET paths.
const IndexFile = "index.html"

// SiteHandler serves the public site: static assets, the page shell for
// every other GET path, and a health probe.
type SiteHandler struct {
	root   fs.FS
	files  http.Handler
	logger *slog.Logger
}

// NewSiteHandler creates a SiteHandler serving files from root.
func NewSiteHandler(root fs.FS, logger *slog.Logger) *SiteHandler {
	return &SiteHandler{
		root:   root,
		files:  http.FileServerFS(root),
		logger: logger,
	}
}

// RegisterRoutes mounts the health probe and the catch-all file routes.
func (h *SiteHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/*", h.Static)
	r.Head("/*", h.Static)
}

// Health handles GET /health.
func (h *SiteHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Static serves an existing file, or the page shell for anything else so
// client-side routes survive a reload.
func (h *SiteHandler) Static(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

	if name == "" {
		h.files.ServeHTTP(w, r)
		return
	}

	info, err := fs.Stat(h.root, name)
	if err == nil && !info.IsDir() {
		h.files.ServeHTTP(w, r)
		return
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.logger.Warn("failed to stat static file", "path", name, "error", err)
	}

	h.serveIndex(w, r)
}

func (h *SiteHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	if _, err := fs.Stat(h.root, IndexFile); err != nil {
		h.logger.Error("page shell is missing", "file", IndexFile, "error", err)
		http.NotFound(w, r)
		return
	}
	http.ServeFileFS(w, r, h.root, IndexFile)
}
