// Package handlers implements the HTTP surface of the API. Handlers decode
// and authenticate, delegate to the request builder and the orchestrators,
// and translate domain errors into transport responses.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dreamframe/server/internal/domain"
	"github.com/dreamframe/server/internal/generate"
	"github.com/dreamframe/server/internal/history"
	"github.com/dreamframe/server/internal/infra"
	"github.com/dreamframe/server/internal/middleware"
	"github.com/dreamframe/server/internal/poll"
	"github.com/dreamframe/server/internal/request"
	"github.com/dreamframe/server/internal/store"
)

// ImageRunner runs the synchronous image pipeline.
type ImageRunner interface {
	Generate(ctx context.Context, ownerID string, gen *request.Generation) (*generate.ImageResult, error)
}

// VideoSubmitter starts an asynchronous video task.
type VideoSubmitter interface {
	Submit(ctx context.Context, ownerID string, gen *request.Generation) (*generate.VideoResult, error)
}

// HistoryLister builds the owner's history projection.
type HistoryLister interface {
	List(ctx context.Context, ownerID string, f store.PromptFilter) ([]history.Entry, error)
}

// RecordReader is the owner-scoped read access handlers need.
type RecordReader interface {
	GetMediaForOwner(ctx context.Context, id, ownerID string) (*domain.Media, error)
	GetPromptForOwner(ctx context.Context, id, ownerID string) (*domain.Prompt, error)
	ListMediaForPrompts(ctx context.Context, ownerID string, promptIDs []string) ([]domain.Media, error)
}

// App carries the wired collaborators for every handler.
type App struct {
	Cfg      *infra.Config
	Logger   zerolog.Logger
	Builder  *request.Builder
	Images   ImageRunner
	Videos   VideoSubmitter
	History  HistoryLister
	Store    RecordReader
	Poller   *poll.Poller
	Transfer *generate.Transfer
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{"error": errCode, "message": message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// domainError maps pipeline errors onto transport responses. Provider
// rejections keep their upstream status code and message verbatim.
func (a *App) domainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		a.error(w, http.StatusUnprocessableEntity, "validation_error", verr.Error())
		return
	}
	if errors.Is(err, domain.ErrUnauthenticated) {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var gerr *domain.GenerationError
	if errors.As(err, &gerr) {
		a.json(w, http.StatusBadGateway, map[string]any{
			"error":           "provider_error",
			"message":         gerr.Message,
			"provider_status": gerr.StatusCode,
		})
		return
	}
	if errors.Is(err, domain.ErrNoOutput) {
		a.error(w, http.StatusBadGateway, "no_output", "generation produced no usable media")
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "record not found")
		return
	}
	a.Logger.Error().Err(err).Msg("handler: internal error")
	a.error(w, http.StatusInternalServerError, "internal", "internal error")
}
