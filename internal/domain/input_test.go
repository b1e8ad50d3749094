package domain

import (
	"errors"
	"testing"
)

func TestGenerateInputNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   GenerateInput
		want GenerateInput
	}{
		{
			name: "defaults for empty image request",
			in:   GenerateInput{Prompt: " latte art "},
			want: GenerateInput{Prompt: "latte art", MediaType: MediaTypeImage, Style: DefaultStyle, AspectRatio: DefaultAspectRatio},
		},
		{
			name: "video gets portrait ratio and duration",
			in:   GenerateInput{Prompt: "menu reveal", MediaType: MediaTypeVideo},
			want: GenerateInput{Prompt: "menu reveal", MediaType: MediaTypeVideo, Style: DefaultStyle, AspectRatio: DefaultVideoAspectRatio, DurationSec: DefaultVideoDurationSec},
		},
		{
			name: "duration clamped",
			in:   GenerateInput{Prompt: "tour", MediaType: MediaTypeVideo, DurationSec: 600},
			want: GenerateInput{Prompt: "tour", MediaType: MediaTypeVideo, Style: DefaultStyle, AspectRatio: DefaultVideoAspectRatio, DurationSec: MaxVideoDurationSec},
		},
		{
			name: "explicit values kept",
			in:   GenerateInput{Prompt: "sale", MediaType: MediaTypeImage, Style: "minimal", AspectRatio: "4:5"},
			want: GenerateInput{Prompt: "sale", MediaType: MediaTypeImage, Style: "minimal", AspectRatio: "4:5"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.Normalize()
			if tc.in != tc.want {
				t.Fatalf("Normalize() = %+v, want %+v", tc.in, tc.want)
			}
		})
	}
}

func TestGenerateInputValidate(t *testing.T) {
	valid := GenerateInput{Prompt: "new espresso blend", MediaType: MediaTypeImage, AspectRatio: "1:1"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	tests := []struct {
		name string
		in   GenerateInput
	}{
		{name: "missing prompt", in: GenerateInput{MediaType: MediaTypeImage, AspectRatio: "1:1"}},
		{name: "bad media type", in: GenerateInput{Prompt: "x", MediaType: "carousel", AspectRatio: "1:1"}},
		{name: "bad aspect ratio", in: GenerateInput{Prompt: "x", MediaType: MediaTypeImage, AspectRatio: "2:7"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Validate() = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestPublishInputFullCaption(t *testing.T) {
	in := PublishInput{Caption: "Fresh drop.", Hashtags: []string{"#coffee", "#espresso"}}
	want := "Fresh drop.\n\n#coffee #espresso"
	if got := in.FullCaption(); got != want {
		t.Fatalf("FullCaption() = %q, want %q", got, want)
	}

	onlyTags := PublishInput{Hashtags: []string{"#coffee"}}
	if got := onlyTags.FullCaption(); got != "#coffee" {
		t.Fatalf("FullCaption() = %q, want %q", got, "#coffee")
	}

	onlyCaption := PublishInput{Caption: "Hello"}
	if got := onlyCaption.FullCaption(); got != "Hello" {
		t.Fatalf("FullCaption() = %q, want %q", got, "Hello")
	}
}

func TestTransientClassification(t *testing.T) {
	for _, err := range []error{ErrRateLimited, ErrProviderUnavailable, ErrStorageUnavailable} {
		if !Transient(err) {
			t.Fatalf("Transient(%v) = false, want true", err)
		}
	}
	for _, err := range []error{ErrInvalidInput, ErrNotFound, ErrAuthExpired, ErrAuthRevoked, ErrInvalidTransition} {
		if Transient(err) {
			t.Fatalf("Transient(%v) = true, want false", err)
		}
	}
}
