// The worker advances in-flight video tasks: it claims due QUEUED/RUNNING
// media rows, asks the provider for the task status, mirrors finished videos
// into owned storage and commits the terminal state exactly once.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dreamframe/server/internal/domain"
	"github.com/dreamframe/server/internal/generate"
	"github.com/dreamframe/server/internal/infra"
	"github.com/dreamframe/server/internal/metrics"
	videoapi "github.com/dreamframe/server/internal/providers/video"
	"github.com/dreamframe/server/internal/storage"
	"github.com/dreamframe/server/internal/store"
)

const (
	claimBatchSize = 10
	// Rows are left alone for this long after the previous poll so a fleet
	// of workers does not hammer the provider for the same task.
	minPollAgeSeconds = 3
)

type taskWorker struct {
	store    *store.PG
	videos   *videoapi.Client
	transfer *generate.Transfer
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	interval time.Duration
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	objects, err := storage.ForConfig(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	m := metrics.New()
	runner := infra.NewSQLRunner(dbpool, logger)
	w := &taskWorker{
		store:    store.NewPG(runner, logger),
		videos:   videoapi.NewClient(videoapi.Options{BaseURL: cfg.VideoAPIBaseURL, APIKey: cfg.VideoAPIKey, Logger: &logger}),
		transfer: &generate.Transfer{Store: objects, Timeout: cfg.TransferTimeout},
		logger:   logger,
		metrics:  m,
		interval: cfg.ClaimInterval,
	}

	go serveMetrics(cfg, logger, m)

	logger.Info().Dur("interval", w.interval).Msg("worker started")
	w.run(ctx)
	logger.Info().Msg("worker stopped")
}

func serveMetrics(cfg *infra.Config, logger zerolog.Logger, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics endpoint failed")
	}
}

func (w *taskWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *taskWorker) tick(ctx context.Context) {
	tasks, err := w.store.ClaimDueVideoTasks(ctx, minPollAgeSeconds, claimBatchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("claim failed")
		return
	}
	for _, t := range tasks {
		w.advance(ctx, t)
	}
}

// advance performs one provider status query for a claimed task and applies
// the outcome. Transient failures leave the row non-terminal; the next claim
// cycle retries it.
func (w *taskWorker) advance(ctx context.Context, t store.VideoTask) {
	st, err := w.videos.Status(ctx, t.TaskID)
	if err != nil {
		w.logger.Warn().Err(err).Str("task_id", t.TaskID).Msg("status query failed")
		w.count("error")
		return
	}
	status, ok := domain.ParseVideoStatus(st.Status)
	if !ok {
		w.logger.Warn().Str("task_id", t.TaskID).Str("status", st.Status).Msg("unknown provider status")
		w.count("unknown")
		return
	}

	switch status {
	case domain.VideoQueued:
		w.count("pending")
	case domain.VideoRunning:
		if t.Status != domain.VideoRunning {
			w.patch(t, store.VideoPatch{Status: domain.VideoRunning})
		}
		w.count("running")
	case domain.VideoSucceeded:
		w.finish(ctx, t, st.URL)
	case domain.VideoFailed, domain.VideoCancelled:
		w.patch(t, store.VideoPatch{Status: status, ErrorMessage: st.ErrorMessage})
		w.failPrompt(t)
		w.count("failed")
	}
}

// finish mirrors the finished video into owned storage before committing the
// terminal row, so a SUCCEEDED row always carries a durable URL.
func (w *taskWorker) finish(ctx context.Context, t store.VideoTask, sourceURL string) {
	if sourceURL == "" {
		w.patch(t, store.VideoPatch{Status: domain.VideoFailed, ErrorMessage: "provider reported success without an output url"})
		w.failPrompt(t)
		w.count("no_output")
		return
	}

	mirrored, err := w.transfer.Mirror(ctx, generate.VideoKey(t.PromptID), sourceURL, "video/mp4")
	if err != nil {
		// Provider URL may still be propagating; leave the row RUNNING and
		// retry on the next claim.
		w.logger.Warn().Err(err).Str("task_id", t.TaskID).Msg("video transfer failed")
		if w.metrics != nil {
			w.metrics.TransferFailures.Inc()
		}
		w.count("transfer_error")
		return
	}
	if w.metrics != nil {
		w.metrics.MediaBytesWritten.Add(float64(mirrored.Bytes))
	}

	w.patch(t, store.VideoPatch{
		Status:      domain.VideoSucceeded,
		ExternalURL: sourceURL,
		OwnedURL:    mirrored.OwnedURL,
		StorageKey:  mirrored.StorageKey,
	})
	if err := w.store.UpdatePromptStatus(context.WithoutCancel(ctx), t.PromptID, domain.PromptCompleted); err != nil && !errors.Is(err, domain.ErrTerminalState) {
		w.logger.Error().Err(err).Str("prompt_id", t.PromptID).Msg("prompt completion failed")
	}
	w.count("succeeded")
	w.logger.Info().
		Str("media_id", t.MediaID).
		Str("task_id", t.TaskID).
		Str("url", mirrored.OwnedURL).
		Msg("video task finished")
}

func (w *taskWorker) patch(t store.VideoTask, p store.VideoPatch) {
	err := w.store.UpdateVideoMedia(context.Background(), t.MediaID, p)
	switch {
	case errors.Is(err, domain.ErrTerminalState):
		w.logger.Debug().Str("media_id", t.MediaID).Msg("row already terminal")
	case err != nil:
		w.logger.Error().Err(err).Str("media_id", t.MediaID).Msg("media update failed")
	}
}

func (w *taskWorker) failPrompt(t store.VideoTask) {
	if err := w.store.UpdatePromptStatus(context.Background(), t.PromptID, domain.PromptFailed); err != nil && !errors.Is(err, domain.ErrTerminalState) {
		w.logger.Error().Err(err).Str("prompt_id", t.PromptID).Msg("prompt failure mark failed")
	}
}

func (w *taskWorker) count(result string) {
	if w.metrics != nil {
		w.metrics.VideoPollsTotal.WithLabelValues(result).Inc()
	}
}
