// Package generate contains the orchestrators that drive the two generation
// pipelines: the synchronous image flow (create record, call provider,
// mirror each output into owned storage, persist media rows) and the
// asynchronous video flow (create record, submit task, return immediately).
//
// Collaborators are narrow interfaces so the pipelines can be exercised
// against stubs; the production wiring injects store.PG, the provider
// clients and an object storage backend.
package generate

import (
	"context"

	"github.com/dreamframe/server/internal/domain"
	imageapi "github.com/dreamframe/server/internal/providers/image"
	videoapi "github.com/dreamframe/server/internal/providers/video"
)

// PromptStore is the slice of the persistence collaborator the orchestrators
// write prompt records through.
type PromptStore interface {
	CreatePrompt(ctx context.Context, p *domain.Prompt) error
	UpdatePromptStatus(ctx context.Context, id string, to domain.PromptStatus) error
}

// MediaStore persists media rows produced by the pipelines.
type MediaStore interface {
	CreateImageMedia(ctx context.Context, m *domain.Media) error
	CreateVideoMedia(ctx context.Context, m *domain.Media) error
}

// ImageAPI is the synchronous external image generation endpoint.
type ImageAPI interface {
	Generate(ctx context.Context, req imageapi.GenerateRequest) ([]imageapi.Item, error)
}

// VideoAPI is the asynchronous external video generation endpoint.
type VideoAPI interface {
	Submit(ctx context.Context, req videoapi.SubmitRequest, referenceImage []byte) (string, error)
}
