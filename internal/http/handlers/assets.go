package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AssetURL resolves the canonical location of one media row: the owned URL
// once the transfer landed, the provider URL otherwise.
func (a *App) AssetURL(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	mediaID := chi.URLParam(r, "id")
	if mediaID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}

	m, err := a.Store.GetMediaForOwner(r.Context(), mediaID, userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	url := m.URL()
	if url == "" {
		a.error(w, http.StatusConflict, "not_ready", "media has no downloadable location yet")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"id":    m.ID,
		"url":   url,
		"mime":  m.MIME,
		"owned": m.OwnedURL != "",
	})
}
