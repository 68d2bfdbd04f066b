// Package poll watches an in-flight video media row until it reaches a
// terminal status. The worker owns the writes; the poller only reads and
// reports, so the API can stream progress to a caller without touching the
// provider itself.
package poll

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamframe/server/internal/domain"
	"github.com/dreamframe/server/internal/metrics"
)

// DefaultInterval is used when the poller is constructed without one.
const DefaultInterval = 5 * time.Second

// MediaReader is the read-only slice of the store the poller needs.
type MediaReader interface {
	GetMediaForOwner(ctx context.Context, id, ownerID string) (*domain.Media, error)
}

// Clock abstracts ticker creation so tests can drive observations manually.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker is the minimal surface of time.Ticker the poller uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type systemClock struct{}

func (systemClock) NewTicker(d time.Duration) Ticker { return &systemTicker{time.NewTicker(d)} }

type systemTicker struct{ t *time.Ticker }

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }

// Poller observes video media rows on an interval.
type Poller struct {
	Store    MediaReader
	Interval time.Duration
	Clock    Clock
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// Watch is the handle for one observation loop.
type Watch struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Stop cancels the loop. Safe to call more than once and after completion.
func (w *Watch) Stop() { w.cancel() }

// Done is closed when the loop has exited, either terminally or by Stop.
func (w *Watch) Done() <-chan struct{} { return w.done }

// Watch starts observing the media row and invokes onChange for every status
// change it sees, including exactly one invocation with the terminal status,
// after which the loop exits. The row is read once immediately, so a task
// that is already terminal costs a single query and no timer wait. Transient
// read errors are logged and the next tick retries.
func (p *Poller) Watch(ctx context.Context, ownerID, mediaID string, onChange func(domain.Media)) *Watch {
	ctx, cancel := context.WithCancel(ctx)
	w := &Watch{cancel: cancel, done: make(chan struct{})}
	go p.run(ctx, w, ownerID, mediaID, onChange)
	return w
}

func (p *Poller) run(ctx context.Context, w *Watch, ownerID, mediaID string, onChange func(domain.Media)) {
	defer close(w.done)
	defer w.cancel()

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	clock := p.Clock
	if clock == nil {
		clock = systemClock{}
	}

	var last domain.VideoStatus
	if stop := p.observe(ctx, ownerID, mediaID, &last, onChange); stop {
		return
	}

	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if stop := p.observe(ctx, ownerID, mediaID, &last, onChange); stop {
				return
			}
		}
	}
}

// observe reads the row once. It reports true when polling must end: the row
// is terminal, it does not exist for this owner, or the context is gone.
func (p *Poller) observe(ctx context.Context, ownerID, mediaID string, last *domain.VideoStatus, onChange func(domain.Media)) bool {
	m, err := p.Store.GetMediaForOwner(ctx, mediaID, ownerID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		if errors.Is(err, domain.ErrNotFound) {
			p.Logger.Warn().Str("media_id", mediaID).Msg("poll: media row missing, stopping")
			p.count("missing")
			return true
		}
		p.Logger.Warn().Err(err).Str("media_id", mediaID).Msg("poll: transient read error")
		p.count("error")
		return false
	}

	if m.Status != *last {
		*last = m.Status
		p.count("change")
		onChange(*m)
	} else {
		p.count("unchanged")
	}
	return m.Status.Terminal()
}

func (p *Poller) count(result string) {
	if p.Metrics != nil {
		p.Metrics.VideoPollsTotal.WithLabelValues(result).Inc()
	}
}
