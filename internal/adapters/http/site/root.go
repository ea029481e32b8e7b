// Package site serves the embedded student-facing frontend.
package site

import (
	"bytes"
	"context"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/activities/internal/adapters/http/api"
)

// IndexPath is where "/" sends the browser.
const IndexPath = "/static/index.html"

// Register attaches the root redirect and the /static/ file routes to r.
func Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	h := NewHandler(FS())
	r.Get("/", h.HandleRoot)
	r.Get("/static", h.HandleRoot)
	r.Get("/static/*", h.HandleStatic)
}

// Handler serves files from an fs.FS.
type Handler struct {
	files   fs.FS
	modTime time.Time
}

// NewHandler creates a handler over files.
func NewHandler(files fs.FS) *Handler {
	return &Handler{files: files, modTime: time.Now()}
}

// HandleRoot redirects to the frontend entry page.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, IndexPath, http.StatusTemporaryRedirect)
}

// HandleStatic serves GET /static/* from the embedded files. The index page
// is served in place rather than redirected to the directory.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if name == "" {
		name = "index.html"
	}
	data, err := fs.ReadFile(h.files, name)
	if err != nil {
		api.WriteError(w, api.WrapKind("site.static", api.ErrRouteNotFound, err))
		return
	}
	http.ServeContent(w, r, name, h.modTime, bytes.NewReader(data))
}
