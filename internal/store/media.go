package store

import (
	"context"

	"github.com/dreamframe/server/internal/domain"
	"github.com/dreamframe/server/internal/infra"
	"github.com/dreamframe/server/internal/sqlinline"
)

// CreateImageMedia inserts a finished image media row. The caller has already
// completed the transfer, so both external and owned URLs are present.
func (s *PG) CreateImageMedia(ctx context.Context, m *domain.Media) error {
	row := s.SQL.QueryRow(ctx, sqlinline.QInsertImageMedia,
		m.PromptID, m.OwnerID, m.ExternalURL, m.OwnedURL, m.StorageKey, m.MIME, m.Size)
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return &domain.PersistenceError{Op: "image media", Err: err}
	}
	m.Kind = domain.KindImage
	return nil
}

// CreateVideoMedia inserts a QUEUED video media row holding the provider's
// task handle. URLs stay empty until the task finishes and is transferred.
func (s *PG) CreateVideoMedia(ctx context.Context, m *domain.Media) error {
	row := s.SQL.QueryRow(ctx, sqlinline.QInsertVideoMedia,
		m.PromptID, m.OwnerID, m.ExternalTask, m.Duration)
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return &domain.PersistenceError{Op: "video media", Err: err}
	}
	m.Kind = domain.KindVideo
	m.Status = domain.VideoQueued
	m.MIME = "video/mp4"
	return nil
}

// GetMediaForOwner loads one media row scoped to its owner.
func (s *PG) GetMediaForOwner(ctx context.Context, id, ownerID string) (*domain.Media, error) {
	row := s.SQL.QueryRow(ctx, sqlinline.QSelectMediaForOwner, id, ownerID)
	m, err := scanMedia(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.PersistenceError{Op: "media lookup", Err: err}
	}
	return m, nil
}

// ListMediaForPrompts returns all media rows belonging to the given prompts,
// oldest first so galleries keep their generation order.
func (s *PG) ListMediaForPrompts(ctx context.Context, ownerID string, promptIDs []string) ([]domain.Media, error) {
	if len(promptIDs) == 0 {
		return nil, nil
	}
	rows, err := s.SQL.Query(ctx, sqlinline.QListMediaForPrompts, ownerID, promptIDs)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "media list", Err: err}
	}
	defer rows.Close()

	var media []domain.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "media scan", Err: err}
		}
		media = append(media, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "media rows", Err: err}
	}
	return media, nil
}

// VideoPatch is the terminal-or-progress write applied to a video media row.
type VideoPatch struct {
	Status       domain.VideoStatus
	ExternalURL  string
	OwnedURL     string
	StorageKey   string
	ErrorMessage string
}

// UpdateVideoMedia advances a video row. The SQL guard refuses the write once
// the row is terminal, which both enforces monotonicity and makes the
// terminal transition happen exactly once regardless of worker races.
func (s *PG) UpdateVideoMedia(ctx context.Context, id string, patch VideoPatch) error {
	row := s.SQL.QueryRow(ctx, sqlinline.QUpdateVideoMediaStatus,
		id, string(patch.Status), patch.OwnedURL, patch.StorageKey, patch.ErrorMessage, patch.ExternalURL)
	var got string
	if err := row.Scan(&got); err != nil {
		if infra.IsNoRows(err) {
			return domain.ErrTerminalState
		}
		return &domain.PersistenceError{Op: "video media status", Err: err}
	}
	return nil
}

// VideoTask is a claimed unit of provider polling work.
type VideoTask struct {
	MediaID  string
	PromptID string
	OwnerID  string
	TaskID   string
	Status   domain.VideoStatus
}

// ClaimDueVideoTasks marks due video rows as polled and returns them. SKIP
// LOCKED keeps concurrent worker replicas from claiming the same row.
func (s *PG) ClaimDueVideoTasks(ctx context.Context, minAgeSeconds, limit int) ([]VideoTask, error) {
	rows, err := s.SQL.Query(ctx, sqlinline.QClaimDueVideoTasks, minAgeSeconds, limit)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "claim video tasks", Err: err}
	}
	defer rows.Close()

	var tasks []VideoTask
	for rows.Next() {
		var t VideoTask
		var status string
		if err := rows.Scan(&t.MediaID, &t.PromptID, &t.OwnerID, &t.TaskID, &status); err != nil {
			return nil, &domain.PersistenceError{Op: "claim scan", Err: err}
		}
		t.Status = domain.VideoStatus(status)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "claim rows", Err: err}
	}
	return tasks, nil
}

func scanMedia(r rowScanner) (*domain.Media, error) {
	var m domain.Media
	var kind, status string
	if err := r.Scan(&m.ID, &m.PromptID, &m.OwnerID, &kind, &m.ExternalURL,
		&m.OwnedURL, &m.StorageKey, &m.MIME, &m.Size, &m.Duration, &status,
		&m.ExternalTask, &m.ErrorMessage, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Kind = domain.Kind(kind)
	m.Status = domain.VideoStatus(status)
	return &m, nil
}
