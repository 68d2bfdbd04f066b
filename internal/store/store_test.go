package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/dreamframe/server/internal/domain"
)

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error { return r.scan(dest...) }

// fakeRows replays canned result tuples through the pgx.Rows surface.
type fakeRows struct {
	data [][]any
	idx  int
	err  error
}

func (f *fakeRows) Close()                                       {}
func (f *fakeRows) Err() error                                   { return f.err }
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) Next() bool {
	if f.idx >= len(f.data) {
		return false
	}
	f.idx++
	return true
}
func (f *fakeRows) Scan(dest ...any) error {
	row := f.data[f.idx-1]
	for i, d := range dest {
		assign(d, row[i])
	}
	return nil
}
func (f *fakeRows) Values() ([]any, error) { return f.data[f.idx-1], nil }
func (f *fakeRows) RawValues() [][]byte    { return nil }
func (f *fakeRows) Conn() *pgx.Conn        { return nil }

func assign(dest, v any) {
	switch d := dest.(type) {
	case *string:
		*d = v.(string)
	case *int:
		*d = v.(int)
	case *int64:
		*d = v.(int64)
	case *time.Time:
		*d = v.(time.Time)
	}
}

type stubExecutor struct {
	lastQuery string
	lastArgs  []any
	row       func(query string, args []any) stubRow
	rows      func(query string, args []any) (pgx.Rows, error)
}

func (e *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (e *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	e.lastQuery = query
	e.lastArgs = args
	if e.row == nil {
		return stubRow{scan: func(...any) error { return pgx.ErrNoRows }}
	}
	return e.row(query, args)
}

func (e *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	e.lastQuery = query
	e.lastArgs = args
	if e.rows == nil {
		return nil, errors.New("unexpected query")
	}
	return e.rows(query, args)
}

func newTestPG(exec *stubExecutor) *PG {
	return NewPG(exec, zerolog.Nop())
}

func TestCreatePromptFillsRow(t *testing.T) {
	now := time.Now()
	exec := &stubExecutor{row: func(query string, args []any) stubRow {
		return stubRow{scan: func(dest ...any) error {
			assign(dest[0], "prompt-uuid")
			assign(dest[1], now)
			return nil
		}}
	}}
	pg := newTestPG(exec)

	p := domain.Prompt{OwnerID: "owner-1", Text: "fox", Kind: domain.KindImage, Model: "m", Size: "512x512"}
	if err := pg.CreatePrompt(context.Background(), &p); err != nil {
		t.Fatalf("CreatePrompt: %v", err)
	}
	if p.ID != "prompt-uuid" || p.Status != domain.PromptPending {
		t.Fatalf("prompt = %+v", p)
	}
	if len(exec.lastArgs) != 7 {
		t.Fatalf("args = %d, want 7", len(exec.lastArgs))
	}
}

func TestCreatePromptWrapsPersistenceError(t *testing.T) {
	boom := errors.New("insert failed")
	exec := &stubExecutor{row: func(string, []any) stubRow {
		return stubRow{scan: func(...any) error { return boom }}
	}}
	pg := newTestPG(exec)

	err := pg.CreatePrompt(context.Background(), &domain.Prompt{OwnerID: "o", Text: "x", Kind: domain.KindImage})
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatal("cause must be preserved")
	}
}

func TestUpdatePromptStatusTransitionGuards(t *testing.T) {
	tests := []struct {
		to       domain.PromptStatus
		wantFrom []string
	}{
		{to: domain.PromptProcessing, wantFrom: []string{"PENDING"}},
		{to: domain.PromptCompleted, wantFrom: []string{"PENDING", "PROCESSING"}},
		{to: domain.PromptFailed, wantFrom: []string{"PENDING", "PROCESSING"}},
	}
	for _, tc := range tests {
		t.Run(string(tc.to), func(t *testing.T) {
			exec := &stubExecutor{row: func(query string, args []any) stubRow {
				return stubRow{scan: func(dest ...any) error {
					assign(dest[0], string(tc.to))
					return nil
				}}
			}}
			pg := newTestPG(exec)

			if err := pg.UpdatePromptStatus(context.Background(), "p1", tc.to); err != nil {
				t.Fatalf("UpdatePromptStatus: %v", err)
			}
			from, ok := exec.lastArgs[2].([]string)
			if !ok {
				t.Fatalf("from arg type %T", exec.lastArgs[2])
			}
			if len(from) != len(tc.wantFrom) {
				t.Fatalf("from = %v, want %v", from, tc.wantFrom)
			}
			for i := range from {
				if from[i] != tc.wantFrom[i] {
					t.Fatalf("from = %v, want %v", from, tc.wantFrom)
				}
			}
		})
	}
}

func TestUpdatePromptStatusTerminalRowRefused(t *testing.T) {
	exec := &stubExecutor{} // default: no rows matched the guard
	pg := newTestPG(exec)

	err := pg.UpdatePromptStatus(context.Background(), "p1", domain.PromptCompleted)
	if !errors.Is(err, domain.ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
}

func TestUpdatePromptStatusRejectsPendingTarget(t *testing.T) {
	exec := &stubExecutor{}
	pg := newTestPG(exec)

	if err := pg.UpdatePromptStatus(context.Background(), "p1", domain.PromptPending); err == nil {
		t.Fatal("transition back to PENDING must be rejected")
	}
	if exec.lastQuery != "" {
		t.Fatal("no SQL may run for an invalid transition")
	}
}

func TestUpdateVideoMediaTerminalOnce(t *testing.T) {
	exec := &stubExecutor{} // guard matched nothing: row already terminal
	pg := newTestPG(exec)

	err := pg.UpdateVideoMedia(context.Background(), "m1", VideoPatch{Status: domain.VideoSucceeded})
	if !errors.Is(err, domain.ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
}

func TestGetPromptForOwnerNotFound(t *testing.T) {
	pg := newTestPG(&stubExecutor{})

	_, err := pg.GetPromptForOwner(context.Background(), "p1", "owner-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPromptsScans(t *testing.T) {
	now := time.Now()
	exec := &stubExecutor{rows: func(query string, args []any) (pgx.Rows, error) {
		return &fakeRows{data: [][]any{
			{"p1", "owner-1", "a fox", "IMAGE", "m", "512x512", 0, "", "COMPLETED", now, now},
			{"p2", "owner-1", "waves", "VIDEO", "m", "", 8, "16:9", "PROCESSING", now, now},
		}}, nil
	}}
	pg := newTestPG(exec)

	prompts, err := pg.ListPrompts(context.Background(), "owner-1", PromptFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	if len(prompts) != 2 {
		t.Fatalf("prompts = %d", len(prompts))
	}
	if prompts[0].Kind != domain.KindImage || prompts[0].Status != domain.PromptCompleted {
		t.Fatalf("prompt 0 = %+v", prompts[0])
	}
	if prompts[1].Duration != 8 || prompts[1].Aspect != "16:9" {
		t.Fatalf("prompt 1 = %+v", prompts[1])
	}
}

func TestListMediaForPromptsEmptyInput(t *testing.T) {
	exec := &stubExecutor{}
	pg := newTestPG(exec)

	media, err := pg.ListMediaForPrompts(context.Background(), "owner-1", nil)
	if err != nil || media != nil {
		t.Fatalf("empty input must short-circuit, got %v %v", media, err)
	}
	if exec.lastQuery != "" {
		t.Fatal("no SQL may run for an empty id list")
	}
}

func TestClaimDueVideoTasksScans(t *testing.T) {
	exec := &stubExecutor{rows: func(query string, args []any) (pgx.Rows, error) {
		return &fakeRows{data: [][]any{
			{"m1", "p1", "owner-1", "task-1", "QUEUED"},
			{"m2", "p2", "owner-2", "task-2", "RUNNING"},
		}}, nil
	}}
	pg := newTestPG(exec)

	tasks, err := pg.ClaimDueVideoTasks(context.Background(), 3, 10)
	if err != nil {
		t.Fatalf("ClaimDueVideoTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("tasks = %d", len(tasks))
	}
	if tasks[0].TaskID != "task-1" || tasks[0].Status != domain.VideoQueued {
		t.Fatalf("task 0 = %+v", tasks[0])
	}
	if tasks[1].Status != domain.VideoRunning {
		t.Fatalf("task 1 = %+v", tasks[1])
	}
}
