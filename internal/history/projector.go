// Package history assembles the read model for a user's past generations. It
// is purely a projection: two owner-scoped queries joined in memory, with no
// writes and no external calls.
package history

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dreamframe/server/internal/domain"
	"github.com/dreamframe/server/internal/store"
)

// Reader is the slice of the store the projector reads through.
type Reader interface {
	ListPrompts(ctx context.Context, ownerID string, f store.PromptFilter) ([]domain.Prompt, error)
	ListMediaForPrompts(ctx context.Context, ownerID string, promptIDs []string) ([]domain.Media, error)
}

// Entry is one prompt together with the media it produced. Settings is the
// per-kind rendering of the generation parameters: size for images, duration
// and aspect ratio for videos.
type Entry struct {
	Prompt   domain.Prompt
	Media    []domain.Media
	Settings string
}

// Projector builds history listings.
type Projector struct {
	Store  Reader
	Logger zerolog.Logger
}

// List returns the owner's history, newest prompt first. Media ordering
// inside an entry follows creation order. A media row whose prompt is not in
// the page is logged and dropped rather than surfaced half-joined.
func (p *Projector) List(ctx context.Context, ownerID string, f store.PromptFilter) ([]Entry, error) {
	prompts, err := p.Store.ListPrompts(ctx, ownerID, f)
	if err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return []Entry{}, nil
	}

	ids := make([]string, len(prompts))
	byID := make(map[string]int, len(prompts))
	entries := make([]Entry, len(prompts))
	for i, pr := range prompts {
		ids[i] = pr.ID
		byID[pr.ID] = i
		entries[i] = Entry{Prompt: pr, Settings: pr.SizeOrDuration()}
	}

	media, err := p.Store.ListMediaForPrompts(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range media {
		i, ok := byID[m.PromptID]
		if !ok {
			p.Logger.Warn().
				Str("media_id", m.ID).
				Str("prompt_id", m.PromptID).
				Msg("history: dropping media without a matching prompt")
			continue
		}
		entries[i].Media = append(entries[i].Media, m)
	}
	return entries, nil
}
