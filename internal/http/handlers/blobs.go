package handlers

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Blob serves generated media. Range requests are supported for video seeking.
func (a *App) Blob(w http.ResponseWriter, r *http.Request) {
	blob, err := a.Blobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", blob.MIMEType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, "", blob.CreatedAt, bytes.NewReader(blob.Data))
}
