package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/dreamframe/server/internal/domain"
)

func TestBuildValidation(t *testing.T) {
	b := &Builder{DefaultImageModel: "pix-standard-2", DefaultVideoModel: "motion-standard-1"}

	testCases := []struct {
		name      string
		in        Input
		wantField string
	}{
		{name: "empty prompt", in: Input{Prompt: "", Kind: domain.KindImage}, wantField: "prompt"},
		{name: "whitespace prompt", in: Input{Prompt: "   \t\n", Kind: domain.KindImage}, wantField: "prompt"},
		{name: "overlong prompt", in: Input{Prompt: strings.Repeat("x", MaxPromptLength+1), Kind: domain.KindImage}, wantField: "prompt"},
		{name: "bad kind", in: Input{Prompt: "a fox", Kind: domain.Kind("AUDIO")}, wantField: "kind"},
		{name: "bad size", in: Input{Prompt: "a fox", Kind: domain.KindImage, Size: "99x99"}, wantField: "size"},
		{name: "bad guidance", in: Input{Prompt: "a fox", Kind: domain.KindImage, GuidanceScale: 50}, wantField: "guidance_scale"},
		{name: "bad duration", in: Input{Prompt: "a fox", Kind: domain.KindVideo, Duration: 3}, wantField: "duration"},
		{name: "bad aspect", in: Input{Prompt: "a fox", Kind: domain.KindVideo, AspectRatio: "2:1"}, wantField: "aspect_ratio"},
		{name: "reference image on image kind", in: Input{Prompt: "a fox", Kind: domain.KindImage, ReferenceImage: []byte{1}}, wantField: "reference_image"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.Build(tc.in)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.wantField {
				t.Fatalf("field = %q, want %q", verr.Field, tc.wantField)
			}
		})
	}
}

func TestBuildImageDefaults(t *testing.T) {
	b := &Builder{DefaultImageModel: "pix-standard-2"}

	gen, err := b.Build(Input{Prompt: "  A red fox in snow  ", Kind: domain.KindImage})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if gen.Prompt != "A red fox in snow" {
		t.Fatalf("prompt not trimmed: %q", gen.Prompt)
	}
	if gen.Model != "pix-standard-2" {
		t.Fatalf("model = %q, want default", gen.Model)
	}
	if gen.Size != DefaultImageSize {
		t.Fatalf("size = %q, want %q", gen.Size, DefaultImageSize)
	}
	if gen.GuidanceScale != DefaultGuidanceScale {
		t.Fatalf("guidance = %v, want %v", gen.GuidanceScale, DefaultGuidanceScale)
	}
}

func TestBuildVideoDefaultsAndReference(t *testing.T) {
	b := &Builder{DefaultVideoModel: "motion-standard-1"}

	ref := []byte{0x89, 0x50, 0x4e, 0x47}
	gen, err := b.Build(Input{Prompt: "waves on a beach", Kind: domain.KindVideo, ReferenceImage: ref})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if gen.Duration != DefaultVideoDuration {
		t.Fatalf("duration = %d, want %d", gen.Duration, DefaultVideoDuration)
	}
	if gen.AspectRatio != DefaultAspectRatio {
		t.Fatalf("aspect = %q, want %q", gen.AspectRatio, DefaultAspectRatio)
	}
	if string(gen.ReferenceImage) != string(ref) {
		t.Fatal("reference image not carried through")
	}
}

func TestBuildHonorsExplicitModel(t *testing.T) {
	b := &Builder{DefaultImageModel: "pix-standard-2"}

	gen, err := b.Build(Input{Prompt: "a fox", Kind: domain.KindImage, Model: "pix-pro-1"})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if gen.Model != "pix-pro-1" {
		t.Fatalf("model = %q, want explicit override", gen.Model)
	}
}
