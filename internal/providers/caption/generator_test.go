package caption

import (
	"context"
	"errors"
	"strings"
	"testing"

	"postpilot/internal/domain"
)

func TestStaticGeneratorBands(t *testing.T) {
	gen := NewStaticGenerator()
	content, err := gen.Generate(context.Background(), Request{
		Prompt:    "new espresso blend launch",
		MediaType: domain.MediaTypeImage,
		Locale:    "en",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if content.Hook == "" || len(content.Hook) > maxHookLen {
		t.Fatalf("hook = %q (len %d)", content.Hook, len(content.Hook))
	}
	if len(content.Captions) != captionVariants {
		t.Fatalf("captions = %d, want %d", len(content.Captions), captionVariants)
	}
	if len(content.Hashtags) < minHashtags || len(content.Hashtags) > maxHashtags {
		t.Fatalf("hashtags = %d, want %d..%d", len(content.Hashtags), minHashtags, maxHashtags)
	}
	for _, tag := range content.Hashtags {
		if !strings.HasPrefix(tag, "#") {
			t.Fatalf("hashtag %q missing #", tag)
		}
	}
	if len(content.AltText) == 0 || len(content.AltText) > maxAltTextLen {
		t.Fatalf("alt text = %q", content.AltText)
	}
	if content.RecommendedAspectRatio != "1:1" {
		t.Fatalf("aspect = %q, want 1:1", content.RecommendedAspectRatio)
	}

	seen := make(map[string]struct{})
	for _, tag := range content.Hashtags {
		if _, ok := seen[tag]; ok {
			t.Fatalf("duplicate hashtag %q", tag)
		}
		seen[tag] = struct{}{}
	}
}

func TestStaticGeneratorVideoAspect(t *testing.T) {
	gen := NewStaticGenerator()
	content, err := gen.Generate(context.Background(), Request{
		Prompt:    "store tour",
		MediaType: domain.MediaTypeVideo,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if content.RecommendedAspectRatio != "9:16" {
		t.Fatalf("aspect = %q, want 9:16", content.RecommendedAspectRatio)
	}
}

func TestStaticGeneratorEmptyPrompt(t *testing.T) {
	gen := NewStaticGenerator()
	if _, err := gen.Generate(context.Background(), Request{Prompt: "  "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestParseContentResponse(t *testing.T) {
	raw := `HOOK: This blend will ruin all other coffee for you.
CAPTION 1: First variation body.
CAPTION 2: Second variation body.
CAPTION 3: Third variation body.
CAPTION 4: Extra variation that should be dropped.
HASHTAGS: #coffee espresso #roastery
ALT_TEXT: A bag of espresso beans on a wooden counter.
ASPECT_RATIO: "4:5"`

	content, err := ParseContentResponse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if content.Hook != "This blend will ruin all other coffee for you." {
		t.Fatalf("hook = %q", content.Hook)
	}
	if len(content.Captions) != captionVariants {
		t.Fatalf("captions = %d, want %d", len(content.Captions), captionVariants)
	}
	want := []string{"#coffee", "#espresso", "#roastery"}
	if len(content.Hashtags) != len(want) {
		t.Fatalf("hashtags = %v", content.Hashtags)
	}
	for i, tag := range want {
		if content.Hashtags[i] != tag {
			t.Fatalf("hashtag[%d] = %q, want %q", i, content.Hashtags[i], tag)
		}
	}
	if content.AltText != "A bag of espresso beans on a wooden counter." {
		t.Fatalf("alt text = %q", content.AltText)
	}
	if content.RecommendedAspectRatio != "4:5" {
		t.Fatalf("aspect = %q, want 4:5", content.RecommendedAspectRatio)
	}
}

func TestParseContentResponseRejectsEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "hook only", raw: "HOOK: hi"},
		{name: "captions only", raw: "CAPTION 1: body"},
		{name: "unrelated prose", raw: "Here is some content for you!"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseContentResponse(tc.raw); err == nil {
				t.Fatal("want parse error")
			}
		})
	}
}
