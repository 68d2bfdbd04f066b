// Package request turns raw user input into validated, defaulted generation
// requests. Building is a pure transformation; nothing here touches storage
// or the network, so a ValidationError guarantees no record was created.
package request

import (
	"strings"

	"github.com/dreamframe/server/internal/domain"
)

var allowedImageSizes = map[string]struct{}{
	"512x512":   {},
	"768x768":   {},
	"1024x1024": {},
	"1024x1792": {},
	"1792x1024": {},
}

var allowedVideoDurations = map[int]struct{}{
	5:  {},
	8:  {},
	10: {},
}

var allowedAspectRatios = map[string]struct{}{
	"16:9": {},
	"9:16": {},
	"1:1":  {},
}

const (
	DefaultImageSize     = "1024x1024"
	DefaultVideoDuration = 5
	DefaultAspectRatio   = "16:9"
	DefaultGuidanceScale = 7.5
	MaxPromptLength      = 2000
)

// Input is the raw, untrusted request as it arrives from the transport layer.
type Input struct {
	Prompt         string
	Kind           domain.Kind
	Model          string
	Size           string  // image only
	Duration       int     // video only, seconds
	AspectRatio    string  // video only
	GuidanceScale  float64 // image only, 0 means default
	Watermark      bool
	ReferenceImage []byte // video image-to-video conditioning
	Locale         string
}

// Generation is a normalized request ready for an orchestrator. All defaults
// are applied and every field has been validated.
type Generation struct {
	Prompt         string
	Kind           domain.Kind
	Model          string
	Size           string
	Duration       int
	AspectRatio    string
	GuidanceScale  float64
	Watermark      bool
	ReferenceImage []byte
	Locale         string
}

// Builder validates and defaults generation requests. Model defaults come
// from configuration so deployments can pin provider models per kind.
type Builder struct {
	DefaultImageModel string
	DefaultVideoModel string
}

// Build validates in and returns the normalized request, or a
// *domain.ValidationError naming the first offending field.
func (b *Builder) Build(in Input) (*Generation, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return nil, &domain.ValidationError{Field: "prompt", Reason: "must not be empty"}
	}
	if len(prompt) > MaxPromptLength {
		return nil, &domain.ValidationError{Field: "prompt", Reason: "too long"}
	}

	switch in.Kind {
	case domain.KindImage:
		return b.buildImage(in, prompt)
	case domain.KindVideo:
		return b.buildVideo(in, prompt)
	default:
		return nil, &domain.ValidationError{Field: "kind", Reason: "must be IMAGE or VIDEO"}
	}
}

func (b *Builder) buildImage(in Input, prompt string) (*Generation, error) {
	if len(in.ReferenceImage) > 0 {
		return nil, &domain.ValidationError{Field: "reference_image", Reason: "not applicable to image generation"}
	}
	size := strings.TrimSpace(in.Size)
	if size == "" {
		size = DefaultImageSize
	}
	if _, ok := allowedImageSizes[size]; !ok {
		return nil, &domain.ValidationError{Field: "size", Reason: "unsupported size " + size}
	}
	guidance := in.GuidanceScale
	if guidance == 0 {
		guidance = DefaultGuidanceScale
	}
	if guidance < 0 || guidance > 20 {
		return nil, &domain.ValidationError{Field: "guidance_scale", Reason: "must be between 0 and 20"}
	}
	return &Generation{
		Prompt:        prompt,
		Kind:          domain.KindImage,
		Model:         defaultModel(in.Model, b.DefaultImageModel),
		Size:          size,
		GuidanceScale: guidance,
		Watermark:     in.Watermark,
		Locale:        strings.TrimSpace(in.Locale),
	}, nil
}

func (b *Builder) buildVideo(in Input, prompt string) (*Generation, error) {
	duration := in.Duration
	if duration == 0 {
		duration = DefaultVideoDuration
	}
	if _, ok := allowedVideoDurations[duration]; !ok {
		return nil, &domain.ValidationError{Field: "duration", Reason: "unsupported duration"}
	}
	aspect := strings.TrimSpace(in.AspectRatio)
	if aspect == "" {
		aspect = DefaultAspectRatio
	}
	if _, ok := allowedAspectRatios[aspect]; !ok {
		return nil, &domain.ValidationError{Field: "aspect_ratio", Reason: "must be one of 16:9, 9:16, 1:1"}
	}
	return &Generation{
		Prompt:         prompt,
		Kind:           domain.KindVideo,
		Model:          defaultModel(in.Model, b.DefaultVideoModel),
		Duration:       duration,
		AspectRatio:    aspect,
		Watermark:      in.Watermark,
		ReferenceImage: in.ReferenceImage,
		Locale:         strings.TrimSpace(in.Locale),
	}, nil
}

func defaultModel(requested, fallback string) string {
	if m := strings.TrimSpace(requested); m != "" {
		return m
	}
	return fallback
}
