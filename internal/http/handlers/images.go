package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dreamframe/server/internal/domain"
	"github.com/dreamframe/server/internal/middleware"
	"github.com/dreamframe/server/internal/request"
)

type imageGenerateRequest struct {
	Prompt        string  `json:"prompt"`
	Model         string  `json:"model"`
	Size          string  `json:"size"`
	GuidanceScale float64 `json:"guidance_scale"`
	Watermark     bool    `json:"watermark"`
}

type mediaResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	MIME     string `json:"mime,omitempty"`
	Size     string `json:"size,omitempty"`
	Duration int    `json:"duration_seconds,omitempty"`
}

func toMediaResponse(m domain.Media) mediaResponse {
	return mediaResponse{
		ID:       m.ID,
		URL:      m.URL(),
		MIME:     m.MIME,
		Size:     m.Size,
		Duration: m.Duration,
	}
}

// ImagesGenerate runs the synchronous image pipeline and returns the
// persisted media. Validation failures happen before any record exists.
func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req imageGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	gen, err := a.Builder.Build(request.Input{
		Prompt:        req.Prompt,
		Kind:          domain.KindImage,
		Model:         req.Model,
		Size:          req.Size,
		GuidanceScale: req.GuidanceScale,
		Watermark:     req.Watermark,
		Locale:        middleware.LocaleFromContext(r.Context()),
	})
	if err != nil {
		a.domainError(w, err)
		return
	}

	res, err := a.Images.Generate(r.Context(), userID, gen)
	if err != nil {
		a.domainError(w, err)
		return
	}

	media := make([]mediaResponse, 0, len(res.Media))
	for _, m := range res.Media {
		media = append(media, toMediaResponse(m))
	}
	a.json(w, http.StatusCreated, map[string]any{
		"prompt_id": res.Prompt.ID,
		"status":    res.Prompt.Status,
		"media":     media,
	})
}
