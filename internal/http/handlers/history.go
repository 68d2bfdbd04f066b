package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dreamframe/server/internal/domain"
	"github.com/dreamframe/server/internal/store"
)

const maxHistoryPage = 100

type historyEntryResponse struct {
	PromptID  string          `json:"prompt_id"`
	Text      string          `json:"text"`
	Kind      domain.Kind     `json:"kind"`
	Model     string          `json:"model"`
	Status    string          `json:"status"`
	Settings  string          `json:"settings"`
	CreatedAt time.Time       `json:"created_at"`
	Media     []mediaResponse `json:"media"`
}

// HistoryList serves the owner's generation history, newest first.
func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	f, err := historyFilter(r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	entries, listErr := a.History.List(r.Context(), userID, f)
	if listErr != nil {
		a.domainError(w, listErr)
		return
	}

	items := make([]historyEntryResponse, 0, len(entries))
	for _, e := range entries {
		media := make([]mediaResponse, 0, len(e.Media))
		for _, m := range e.Media {
			media = append(media, toMediaResponse(m))
		}
		items = append(items, historyEntryResponse{
			PromptID:  e.Prompt.ID,
			Text:      e.Prompt.Text,
			Kind:      e.Prompt.Kind,
			Model:     e.Prompt.Model,
			Status:    string(e.Prompt.Status),
			Settings:  e.Settings,
			CreatedAt: e.Prompt.CreatedAt,
			Media:     media,
		})
	}
	a.json(w, http.StatusOK, map[string]any{
		"items":  items,
		"limit":  f.Limit,
		"offset": f.Offset,
	})
}

func historyFilter(r *http.Request) (store.PromptFilter, error) {
	q := r.URL.Query()
	f := store.PromptFilter{Query: q.Get("q")}

	switch kind := q.Get("kind"); kind {
	case "":
	case "image", "IMAGE":
		f.Kind = domain.KindImage
	case "video", "VIDEO":
		f.Kind = domain.KindVideo
	default:
		return f, errInvalidParam("kind")
	}

	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		ts, err := parseTimeParam(raw)
		if err != nil {
			return f, errInvalidParam(name)
		}
		*dst = &ts
	}

	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > maxHistoryPage {
		f.Limit = maxHistoryPage
	}
	f.Offset, _ = strconv.Atoi(q.Get("offset"))
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f, nil
}

func parseTimeParam(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}

type errInvalidParam string

func (e errInvalidParam) Error() string { return "invalid " + string(e) + " parameter" }
