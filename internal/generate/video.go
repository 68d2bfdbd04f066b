package generate

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamframe/server/internal/domain"
	"github.com/dreamframe/server/internal/metrics"
	videoapi "github.com/dreamframe/server/internal/providers/video"
	"github.com/dreamframe/server/internal/request"
)

// VideoOrchestrator runs the submission half of the asynchronous video
// pipeline. It returns as soon as the provider hands back a task id; the
// worker and the status poller observe completion.
type VideoOrchestrator struct {
	Prompts PromptStore
	Media   MediaStore
	API     VideoAPI
	Timeout time.Duration
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// VideoResult is the immediately-available outcome of a video submission.
type VideoResult struct {
	Prompt domain.Prompt
	Media  domain.Media
}

// Submit creates the prompt record, submits the task and persists the QUEUED
// media row holding the provider task handle. A provider rejection marks the
// prompt FAILED and is returned verbatim as a GenerationError.
func (o *VideoOrchestrator) Submit(ctx context.Context, ownerID string, gen *request.Generation) (*VideoResult, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrUnauthenticated
	}

	prompt := domain.Prompt{
		OwnerID:  ownerID,
		Text:     gen.Prompt,
		Kind:     domain.KindVideo,
		Model:    gen.Model,
		Duration: gen.Duration,
		Aspect:   gen.AspectRatio,
	}
	if err := o.Prompts.CreatePrompt(ctx, &prompt); err != nil {
		return nil, err
	}

	taskID, err := o.submitTask(ctx, gen)
	if err != nil {
		o.markPrompt(ctx, prompt.ID, domain.PromptFailed)
		o.count("video", "provider_error")
		return nil, err
	}

	media := domain.Media{
		PromptID:     prompt.ID,
		OwnerID:      ownerID,
		Duration:     gen.Duration,
		ExternalTask: taskID,
	}
	if err := o.Media.CreateVideoMedia(ctx, &media); err != nil {
		// The task is already running upstream but we have no row to track
		// it with, so the operation as a whole fails.
		o.markPrompt(ctx, prompt.ID, domain.PromptFailed)
		o.count("video", "persistence_error")
		return nil, err
	}

	if err := o.Prompts.UpdatePromptStatus(ctx, prompt.ID, domain.PromptProcessing); err != nil {
		o.Logger.Error().Err(err).Str("prompt_id", prompt.ID).Msg("video: failed to mark prompt processing")
	} else {
		prompt.Status = domain.PromptProcessing
	}
	o.count("video", "submitted")

	o.Logger.Info().
		Str("prompt_id", prompt.ID).
		Str("media_id", media.ID).
		Str("task_id", taskID).
		Msg("video: task submitted")

	return &VideoResult{Prompt: prompt, Media: media}, nil
}

func (o *VideoOrchestrator) submitTask(ctx context.Context, gen *request.Generation) (string, error) {
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}
	start := time.Now()
	taskID, err := o.API.Submit(ctx, videoapi.SubmitRequest{
		Prompt:          gen.Prompt,
		Model:           gen.Model,
		DurationSeconds: gen.Duration,
		AspectRatio:     gen.AspectRatio,
	}, gen.ReferenceImage)
	if o.Metrics != nil {
		o.Metrics.ProviderLatency.WithLabelValues("video", "submit").Observe(time.Since(start).Seconds())
	}
	return taskID, err
}

func (o *VideoOrchestrator) markPrompt(ctx context.Context, id string, to domain.PromptStatus) {
	if err := o.Prompts.UpdatePromptStatus(ctx, id, to); err != nil {
		o.Logger.Error().Err(err).Str("prompt_id", id).Str("status", string(to)).Msg("video: prompt status update failed")
	}
}

func (o *VideoOrchestrator) count(kind, outcome string) {
	if o.Metrics != nil {
		o.Metrics.GenerationsTotal.WithLabelValues(kind, outcome).Inc()
	}
}
