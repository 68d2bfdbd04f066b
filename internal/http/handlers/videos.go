package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dreamframe/server/internal/domain"
	"github.com/dreamframe/server/internal/middleware"
	"github.com/dreamframe/server/internal/request"
)

// maxStatusWait caps the long-poll window of the status endpoint.
const maxStatusWait = 60 * time.Second

type videoGenerateRequest struct {
	Prompt          string `json:"prompt"`
	Model           string `json:"model"`
	DurationSeconds int    `json:"duration_seconds"`
	AspectRatio     string `json:"aspect_ratio"`
	Watermark       bool   `json:"watermark"`
	ReferenceImage  string `json:"reference_image"` // base64
}

// VideosGenerate submits an asynchronous video task and returns immediately
// with the queued media row.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req videoGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	var reference []byte
	if req.ReferenceImage != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ReferenceImage)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "reference_image is not valid base64")
			return
		}
		reference = decoded
	}

	gen, err := a.Builder.Build(request.Input{
		Prompt:         req.Prompt,
		Kind:           domain.KindVideo,
		Model:          req.Model,
		Duration:       req.DurationSeconds,
		AspectRatio:    req.AspectRatio,
		Watermark:      req.Watermark,
		ReferenceImage: reference,
		Locale:         middleware.LocaleFromContext(r.Context()),
	})
	if err != nil {
		a.domainError(w, err)
		return
	}

	res, err := a.Videos.Submit(r.Context(), userID, gen)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{
		"prompt_id": res.Prompt.ID,
		"media_id":  res.Media.ID,
		"task_id":   res.Media.ExternalTask,
		"status":    res.Media.Status,
	})
}

// VideoStatus returns the current snapshot of a video media row. With
// ?wait=<seconds> it long-polls until the row turns terminal or the window
// closes, whichever comes first.
func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	mediaID := chi.URLParam(r, "media_id")
	if mediaID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "media_id required")
		return
	}

	m, err := a.Store.GetMediaForOwner(r.Context(), mediaID, userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	if m.Kind != domain.KindVideo {
		a.error(w, http.StatusBadRequest, "bad_request", "not a video media")
		return
	}

	if wait := statusWait(r); wait > 0 && !m.Status.Terminal() && a.Poller != nil {
		m = a.awaitTerminal(r.Context(), userID, mediaID, m, wait)
	}

	resp := map[string]any{
		"id":       m.ID,
		"status":   m.Status,
		"task_id":  m.ExternalTask,
		"duration": m.Duration,
	}
	if url := m.URL(); url != "" {
		resp["url"] = url
	}
	if m.ErrorMessage != "" {
		resp["error_message"] = m.ErrorMessage
	}
	if p, err := a.Store.GetPromptForOwner(r.Context(), m.PromptID, userID); err == nil {
		resp["prompt_id"] = p.ID
		resp["prompt_status"] = p.Status
	}
	a.json(w, http.StatusOK, resp)
}

// awaitTerminal watches the row through the poller and returns the last
// snapshot seen inside the wait window.
func (a *App) awaitTerminal(ctx context.Context, userID, mediaID string, current *domain.Media, wait time.Duration) *domain.Media {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	var mu sync.Mutex
	latest := *current
	watch := a.Poller.Watch(ctx, userID, mediaID, func(m domain.Media) {
		mu.Lock()
		latest = m
		mu.Unlock()
	})
	<-watch.Done()

	mu.Lock()
	defer mu.Unlock()
	snapshot := latest
	return &snapshot
}

func statusWait(r *http.Request) time.Duration {
	raw := r.URL.Query().Get("wait")
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return 0
	}
	wait := time.Duration(secs) * time.Second
	if wait > maxStatusWait {
		wait = maxStatusWait
	}
	return wait
}
