package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dreamframe/server/internal/domain"
	"github.com/dreamframe/server/internal/infra"
	"github.com/dreamframe/server/internal/sqlinline"
)

// CreatePrompt inserts a PENDING prompt row and fills ID and CreatedAt.
func (s *PG) CreatePrompt(ctx context.Context, p *domain.Prompt) error {
	row := s.SQL.QueryRow(ctx, sqlinline.QInsertPrompt,
		p.OwnerID, p.Text, string(p.Kind), p.Model, p.Size, p.Duration, p.Aspect)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		return &domain.PersistenceError{Op: "prompt", Err: err}
	}
	p.Status = domain.PromptPending
	p.UpdatedAt = p.CreatedAt
	return nil
}

// UpdatePromptStatus advances a prompt along its monotonic lifecycle. The
// update is guarded in SQL by the set of allowed predecessor states; a write
// that matches no row means the prompt is gone or already terminal.
func (s *PG) UpdatePromptStatus(ctx context.Context, id string, to domain.PromptStatus) error {
	from := promptPredecessors(to)
	if len(from) == 0 {
		return fmt.Errorf("no valid transition to %s", to)
	}
	row := s.SQL.QueryRow(ctx, sqlinline.QUpdatePromptStatus, id, string(to), from)
	var got string
	if err := row.Scan(&got); err != nil {
		if infra.IsNoRows(err) {
			return domain.ErrTerminalState
		}
		return &domain.PersistenceError{Op: "prompt status", Err: err}
	}
	return nil
}

// GetPromptForOwner loads one prompt scoped to its owner.
func (s *PG) GetPromptForOwner(ctx context.Context, id, ownerID string) (*domain.Prompt, error) {
	row := s.SQL.QueryRow(ctx, sqlinline.QSelectPromptForOwner, id, ownerID)
	p, err := scanPrompt(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.PersistenceError{Op: "prompt lookup", Err: err}
	}
	return p, nil
}

// PromptFilter narrows history listings. Zero values mean "no constraint".
type PromptFilter struct {
	Kind   domain.Kind
	Query  string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// ListPrompts returns an owner's prompts, newest first.
func (s *PG) ListPrompts(ctx context.Context, ownerID string, f PromptFilter) ([]domain.Prompt, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.SQL.Query(ctx, sqlinline.QListPromptsByOwner,
		ownerID, string(f.Kind), f.Query, f.From, f.To, limit, f.Offset)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "prompt list", Err: err}
	}
	defer rows.Close()

	var prompts []domain.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "prompt scan", Err: err}
		}
		prompts = append(prompts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "prompt rows", Err: err}
	}
	return prompts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrompt(r rowScanner) (*domain.Prompt, error) {
	var p domain.Prompt
	var kind, status string
	if err := r.Scan(&p.ID, &p.OwnerID, &p.Text, &kind, &p.Model, &p.Size,
		&p.Duration, &p.Aspect, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Kind = domain.Kind(kind)
	p.Status = domain.PromptStatus(status)
	return &p, nil
}

func promptPredecessors(to domain.PromptStatus) []string {
	switch to {
	case domain.PromptProcessing:
		return []string{string(domain.PromptPending)}
	case domain.PromptCompleted, domain.PromptFailed:
		return []string{string(domain.PromptPending), string(domain.PromptProcessing)}
	default:
		return nil
	}
}
