package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"postpilot/internal/storage"
)

// ServeMedia streams a stored artifact. Keys are sanitized by the store, so
// traversal attempts surface as invalid-key errors rather than reads.
func (a *App) ServeMedia(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	reader, size, err := a.Store.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			a.error(w, http.StatusNotFound, "not_found", "no such media")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid media key")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", storage.ContentTypeForKey(key))
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		a.Logger.Warn().Err(err).Str("key", key).Msg("handler: media stream interrupted")
	}
}
