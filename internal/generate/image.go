package generate

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dreamframe/server/internal/domain"
	"github.com/dreamframe/server/internal/metrics"
	imageapi "github.com/dreamframe/server/internal/providers/image"
	"github.com/dreamframe/server/internal/request"
)

// transferConcurrency bounds parallel per-item mirroring. Items are
// independent; the bound only protects the process from very large batches.
const transferConcurrency = 4

// ImageOrchestrator runs the synchronous image pipeline end to end.
type ImageOrchestrator struct {
	Prompts  PromptStore
	Media    MediaStore
	API      ImageAPI
	Transfer *Transfer
	Timeout  time.Duration
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// ImageResult is the outcome of one completed image generation.
type ImageResult struct {
	Prompt domain.Prompt
	Media  []domain.Media
}

// Generate executes the pipeline: pending prompt row, provider call, per-item
// mirror into owned storage, final status. Item failures are isolated; the
// operation fails only when the prompt row cannot be created, the provider
// rejects the request, or zero items survive.
func (o *ImageOrchestrator) Generate(ctx context.Context, ownerID string, gen *request.Generation) (*ImageResult, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrUnauthenticated
	}

	prompt := domain.Prompt{
		OwnerID: ownerID,
		Text:    gen.Prompt,
		Kind:    domain.KindImage,
		Model:   gen.Model,
		Size:    gen.Size,
	}
	if err := o.Prompts.CreatePrompt(ctx, &prompt); err != nil {
		return nil, err
	}

	items, err := o.callProvider(ctx, gen)
	if err != nil {
		o.markPrompt(ctx, prompt.ID, domain.PromptFailed)
		o.count("image", "provider_error")
		return nil, err
	}

	media := o.mirrorItems(ctx, &prompt, gen, items)
	if len(media) == 0 {
		o.markPrompt(ctx, prompt.ID, domain.PromptFailed)
		o.count("image", "no_output")
		return nil, domain.ErrNoOutput
	}

	o.markPrompt(ctx, prompt.ID, domain.PromptCompleted)
	prompt.Status = domain.PromptCompleted
	o.count("image", "completed")

	o.Logger.Info().
		Str("prompt_id", prompt.ID).
		Int("requested", len(items)).
		Int("persisted", len(media)).
		Msg("image: generation complete")

	return &ImageResult{Prompt: prompt, Media: media}, nil
}

func (o *ImageOrchestrator) callProvider(ctx context.Context, gen *request.Generation) ([]imageapi.Item, error) {
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}
	start := time.Now()
	items, err := o.API.Generate(ctx, imageapi.GenerateRequest{
		Prompt:        gen.Prompt,
		Model:         gen.Model,
		Size:          gen.Size,
		GuidanceScale: gen.GuidanceScale,
		Watermark:     gen.Watermark,
	})
	if o.Metrics != nil {
		o.Metrics.ProviderLatency.WithLabelValues("image", "generate").Observe(time.Since(start).Seconds())
	}
	return items, err
}

// mirrorItems transfers and persists each provider item. Items run
// concurrently; a failure in one slot never touches another slot's commit.
func (o *ImageOrchestrator) mirrorItems(ctx context.Context, prompt *domain.Prompt, gen *request.Generation, items []imageapi.Item) []domain.Media {
	results := make([]*domain.Media, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(transferConcurrency)
	for i, item := range items {
		g.Go(func() error {
			m, err := o.mirrorOne(gctx, prompt, gen, item, i)
			if err != nil {
				o.Logger.Warn().Err(err).
					Str("prompt_id", prompt.ID).
					Int("item", i).
					Msg("image: skipping failed item")
				if o.Metrics != nil {
					o.Metrics.TransferFailures.Inc()
				}
				return nil // isolated: siblings keep going
			}
			results[i] = m
			return nil
		})
	}
	_ = g.Wait()

	var media []domain.Media
	for _, m := range results {
		if m != nil {
			media = append(media, *m)
		}
	}
	return media
}

func (o *ImageOrchestrator) mirrorOne(ctx context.Context, prompt *domain.Prompt, gen *request.Generation, item imageapi.Item, index int) (*domain.Media, error) {
	if strings.TrimSpace(item.URL) == "" {
		return nil, &domain.TransferError{Stage: "download", URL: "", Err: errEmptySourceURL}
	}
	mirrored, err := o.Transfer.Mirror(ctx, mediaKey(prompt.ID, index), item.URL, item.MIME)
	if err != nil {
		return nil, err
	}
	if o.Metrics != nil {
		o.Metrics.MediaBytesWritten.Add(float64(mirrored.Bytes))
	}

	m := domain.Media{
		PromptID:    prompt.ID,
		OwnerID:     prompt.OwnerID,
		ExternalURL: item.URL,
		OwnedURL:    mirrored.OwnedURL,
		StorageKey:  mirrored.StorageKey,
		MIME:        mirrored.MIME,
		Size:        gen.Size,
	}
	if err := o.Media.CreateImageMedia(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// markPrompt advances the prompt status, logging rather than failing when the
// write is refused; the pipeline outcome has already been decided by then.
func (o *ImageOrchestrator) markPrompt(ctx context.Context, id string, to domain.PromptStatus) {
	if err := o.Prompts.UpdatePromptStatus(ctx, id, to); err != nil {
		o.Logger.Error().Err(err).Str("prompt_id", id).Str("status", string(to)).Msg("image: prompt status update failed")
	}
}

func (o *ImageOrchestrator) count(kind, outcome string) {
	if o.Metrics != nil {
		o.Metrics.GenerationsTotal.WithLabelValues(kind, outcome).Inc()
	}
}
