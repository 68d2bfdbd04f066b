package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamframe/server/internal/domain"
)

type pollResponse struct {
	media *domain.Media
	err   error
}

// sequenceStore replays canned responses in order, repeating the last one,
// and signals each read so tests can line callbacks up with ticks.
type sequenceStore struct {
	mu        sync.Mutex
	responses []pollResponse
	calls     int
	queried   chan struct{}
}

func (s *sequenceStore) GetMediaForOwner(ctx context.Context, id, ownerID string) (*domain.Media, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	r := s.responses[idx]
	s.mu.Unlock()
	if s.queried != nil {
		s.queried <- struct{}{}
	}
	if r.err != nil {
		return nil, r.err
	}
	m := *r.media
	return &m, nil
}

func (s *sequenceStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeClock struct{ ch chan time.Time }

func (f *fakeClock) NewTicker(time.Duration) Ticker { return fakeTicker{f.ch} }

type fakeTicker struct{ ch chan time.Time }

func (t fakeTicker) C() <-chan time.Time { return t.ch }
func (t fakeTicker) Stop()               {}

func videoRow(status domain.VideoStatus) *domain.Media {
	return &domain.Media{
		ID:      "media-1",
		OwnerID: "owner-1",
		Kind:    domain.KindVideo,
		Status:  status,
	}
}

func waitDone(t *testing.T, w *Watch) {
	t.Helper()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not finish in time")
	}
}

func TestWatchAlreadyTerminal(t *testing.T) {
	store := &sequenceStore{responses: []pollResponse{{media: videoRow(domain.VideoSucceeded)}}}
	p := &Poller{Store: store, Clock: &fakeClock{ch: make(chan time.Time)}, Logger: zerolog.Nop()}

	var mu sync.Mutex
	var seen []domain.VideoStatus
	w := p.Watch(context.Background(), "owner-1", "media-1", func(m domain.Media) {
		mu.Lock()
		seen = append(seen, m.Status)
		mu.Unlock()
	})
	waitDone(t, w)

	if store.callCount() != 1 {
		t.Fatalf("store reads = %d, want 1 for an already-terminal row", store.callCount())
	}
	if len(seen) != 1 || seen[0] != domain.VideoSucceeded {
		t.Fatalf("callbacks = %v, want exactly one terminal callback", seen)
	}
}

func TestWatchObservesProgression(t *testing.T) {
	store := &sequenceStore{
		responses: []pollResponse{
			{media: videoRow(domain.VideoQueued)},
			{media: videoRow(domain.VideoRunning)},
			{media: videoRow(domain.VideoSucceeded)},
		},
		queried: make(chan struct{}, 8),
	}
	ticks := make(chan time.Time)
	p := &Poller{Store: store, Clock: &fakeClock{ch: ticks}, Logger: zerolog.Nop()}

	var mu sync.Mutex
	var seen []domain.VideoStatus
	w := p.Watch(context.Background(), "owner-1", "media-1", func(m domain.Media) {
		mu.Lock()
		seen = append(seen, m.Status)
		mu.Unlock()
	})

	<-store.queried // immediate first read
	ticks <- time.Now()
	<-store.queried
	ticks <- time.Now()
	<-store.queried
	waitDone(t, w)

	mu.Lock()
	defer mu.Unlock()
	want := []domain.VideoStatus{domain.VideoQueued, domain.VideoRunning, domain.VideoSucceeded}
	if len(seen) != len(want) {
		t.Fatalf("callbacks = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("callback %d = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestWatchSkipsUnchangedStatus(t *testing.T) {
	store := &sequenceStore{
		responses: []pollResponse{
			{media: videoRow(domain.VideoQueued)},
			{media: videoRow(domain.VideoQueued)},
			{media: videoRow(domain.VideoFailed)},
		},
		queried: make(chan struct{}, 8),
	}
	ticks := make(chan time.Time)
	p := &Poller{Store: store, Clock: &fakeClock{ch: ticks}, Logger: zerolog.Nop()}

	var mu sync.Mutex
	var seen []domain.VideoStatus
	w := p.Watch(context.Background(), "owner-1", "media-1", func(m domain.Media) {
		mu.Lock()
		seen = append(seen, m.Status)
		mu.Unlock()
	})

	<-store.queried
	ticks <- time.Now()
	<-store.queried
	ticks <- time.Now()
	<-store.queried
	waitDone(t, w)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("callbacks = %v, want QUEUED then FAILED only", seen)
	}
	if seen[1] != domain.VideoFailed {
		t.Fatalf("terminal callback = %s, want FAILED", seen[1])
	}
}

func TestWatchSurvivesTransientErrors(t *testing.T) {
	store := &sequenceStore{
		responses: []pollResponse{
			{err: &domain.PersistenceError{Op: "media lookup", Err: errors.New("connection reset")}},
			{media: videoRow(domain.VideoSucceeded)},
		},
		queried: make(chan struct{}, 8),
	}
	ticks := make(chan time.Time)
	p := &Poller{Store: store, Clock: &fakeClock{ch: ticks}, Logger: zerolog.Nop()}

	var mu sync.Mutex
	var seen []domain.VideoStatus
	w := p.Watch(context.Background(), "owner-1", "media-1", func(m domain.Media) {
		mu.Lock()
		seen = append(seen, m.Status)
		mu.Unlock()
	})

	<-store.queried // errors, loop continues
	ticks <- time.Now()
	<-store.queried
	waitDone(t, w)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != domain.VideoSucceeded {
		t.Fatalf("callbacks = %v, want exactly one after the transient error", seen)
	}
}

func TestWatchStopsOnMissingRow(t *testing.T) {
	store := &sequenceStore{responses: []pollResponse{{err: domain.ErrNotFound}}}
	p := &Poller{Store: store, Clock: &fakeClock{ch: make(chan time.Time)}, Logger: zerolog.Nop()}

	called := false
	w := p.Watch(context.Background(), "owner-1", "media-1", func(domain.Media) { called = true })
	waitDone(t, w)

	if called {
		t.Fatal("no callback expected for a missing row")
	}
}

func TestWatchStopCancelsLoop(t *testing.T) {
	store := &sequenceStore{
		responses: []pollResponse{{media: videoRow(domain.VideoQueued)}},
		queried:   make(chan struct{}, 8),
	}
	ticks := make(chan time.Time)
	p := &Poller{Store: store, Clock: &fakeClock{ch: ticks}, Logger: zerolog.Nop()}

	var mu sync.Mutex
	count := 0
	w := p.Watch(context.Background(), "owner-1", "media-1", func(domain.Media) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	<-store.queried
	w.Stop()
	waitDone(t, w)
	w.Stop() // idempotent

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Fatalf("callbacks = %d, want the single pre-stop observation", count)
	}
}
