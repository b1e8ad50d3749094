package caption

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"postpilot/internal/domain"
	"postpilot/internal/providers"
	"postpilot/internal/providers/genai"
)

// GeminiGenerator produces text content via the Gemini model, parsing its
// line-tagged response. When the model call fails it degrades to the fallback
// generator so a text job still completes with usable content.
type GeminiGenerator struct {
	client   *genai.Client
	fallback Generator
}

// NewGeminiGenerator wires a Gemini-backed content generator with a fallback.
func NewGeminiGenerator(client *genai.Client, fallback Generator) *GeminiGenerator {
	return &GeminiGenerator{client: client, fallback: fallback}
}

// Generate asks the model for hook, captions, hashtags and alt text.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*domain.GeneratedContent, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}

	raw, err := g.client.GenerateText(ctx, buildContentPrompt(req))
	if err != nil {
		if g.fallback != nil && recoverable(err) {
			return g.fallback.Generate(ctx, req)
		}
		return nil, providers.Classify(err)
	}

	content, err := ParseContentResponse(raw)
	if err != nil {
		if g.fallback != nil {
			return g.fallback.Generate(ctx, req)
		}
		return nil, providers.Classify(err)
	}
	return content, nil
}

// recoverable reports whether falling back is preferable to surfacing the
// error. Caller mistakes (rejected prompt) must surface.
func recoverable(err error) bool {
	if errors.Is(err, genai.ErrNotConfigured) {
		return true
	}
	classified := providers.Classify(err)
	return !errors.Is(classified, domain.ErrInvalidInput)
}

func buildContentPrompt(req Request) string {
	mediaType := string(req.MediaType)
	if mediaType == "" || mediaType == string(domain.MediaTypeAll) {
		mediaType = string(domain.MediaTypeImage)
	}
	locale := req.Locale
	if locale == "" {
		locale = "en"
	}
	return fmt.Sprintf(`You are an Instagram content creator. Generate engaging, platform-optimized content.

Generate content for: %s POST
Original prompt: %q
Response language: %s

Requirements:
1. Hook (1 sentence, eye-catching, 100-150 chars)
2. Captions (3 variations, 500-1200 chars each, engaging tone)
3. Hashtags (15-25 hashtags, mix of popular and niche)
4. Alt text (descriptive, accessible, 125 chars max)
5. Recommended aspect ratio for the %s

Format your response as:
HOOK: [your hook]
CAPTION 1: [variation 1]
CAPTION 2: [variation 2]
CAPTION 3: [variation 3]
HASHTAGS: [hashtag list separated by spaces]
ALT_TEXT: [descriptive alt text]
ASPECT_RATIO: [recommended ratio, e.g. "1:1" for square, "9:16" for story]`,
		strings.ToUpper(mediaType), req.Prompt, locale, mediaType)
}

// ParseContentResponse decodes the line-tagged model response into structured
// content. Unknown lines are ignored; a response without a hook or captions is
// an error.
func ParseContentResponse(raw string) (*domain.GeneratedContent, error) {
	content := &domain.GeneratedContent{RecommendedAspectRatio: "1:1"}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "HOOK:"):
			content.Hook = truncate(strings.TrimSpace(strings.TrimPrefix(line, "HOOK:")), maxHookLen)
		case strings.HasPrefix(line, "CAPTION"):
			if _, after, found := strings.Cut(line, ":"); found {
				if caption := strings.TrimSpace(after); caption != "" {
					content.Captions = append(content.Captions, caption)
				}
			}
		case strings.HasPrefix(line, "HASHTAGS:"):
			for _, tag := range strings.Fields(strings.TrimPrefix(line, "HASHTAGS:")) {
				if !strings.HasPrefix(tag, "#") {
					tag = "#" + tag
				}
				content.Hashtags = append(content.Hashtags, tag)
			}
		case strings.HasPrefix(line, "ALT_TEXT:"):
			content.AltText = truncate(strings.TrimSpace(strings.TrimPrefix(line, "ALT_TEXT:")), maxAltTextLen)
		case strings.HasPrefix(line, "ASPECT_RATIO:"):
			if aspect := strings.TrimSpace(strings.TrimPrefix(line, "ASPECT_RATIO:")); aspect != "" {
				content.RecommendedAspectRatio = strings.Trim(aspect, `"`)
			}
		}
	}

	if content.Hook == "" || len(content.Captions) == 0 {
		return nil, fmt.Errorf("unparseable content response")
	}
	if len(content.Captions) > captionVariants {
		content.Captions = content.Captions[:captionVariants]
	}
	if len(content.Hashtags) > maxHashtags {
		content.Hashtags = content.Hashtags[:maxHashtags]
	}
	return content, nil
}
