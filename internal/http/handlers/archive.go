package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dreamframe/server/pkg/zip"
)

// PromptArchive bundles every downloadable media item of one prompt into a
// zip. Items that cannot be fetched are skipped; the archive fails only when
// nothing at all can be bundled.
func (a *App) PromptArchive(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	promptID := chi.URLParam(r, "id")
	if promptID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}

	prompt, err := a.Store.GetPromptForOwner(r.Context(), promptID, userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	media, err := a.Store.ListMediaForPrompts(r.Context(), userID, []string{prompt.ID})
	if err != nil {
		a.domainError(w, err)
		return
	}

	var assets []zip.Asset
	for i, m := range media {
		url := m.URL()
		if url == "" {
			continue
		}
		data, contentType, fetchErr := a.Transfer.Fetch(r.Context(), url)
		if fetchErr != nil {
			a.Logger.Warn().Err(fetchErr).Str("media_id", m.ID).Msg("archive: skipping media")
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: archiveFilename(m.StorageKey, i, contentType),
			MIME:     contentType,
			Data:     data,
		})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusConflict, "not_ready", "no downloadable media for this prompt")
		return
	}

	blob := zip.ArchiveAssets(assets)
	if blob == nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "prompt-"+prompt.ID+".zip"))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func archiveFilename(storageKey string, index int, contentType string) string {
	if storageKey != "" {
		return path.Base(storageKey)
	}
	name := fmt.Sprintf("%02d", index+1)
	switch contentType {
	case "image/png":
		return name + ".png"
	case "image/jpeg":
		return name + ".jpg"
	case "video/mp4":
		return name + ".mp4"
	default:
		return name
	}
}
