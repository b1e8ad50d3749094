package caption

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"postpilot/internal/domain"
)

// Request carries the inputs for text content generation.
type Request struct {
	Prompt    string
	MediaType domain.MediaType
	Locale    string
	RequestID string
}

// Generator produces Instagram-ready text content for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (*domain.GeneratedContent, error)
}

// Content bands enforced on provider output. Out-of-band responses are
// normalized rather than rejected; the model frequently lands near the edges.
const (
	maxHookLen      = 150
	maxAltTextLen   = 125
	minHashtags     = 15
	maxHashtags     = 25
	captionVariants = 3
)

// StaticGenerator deterministically assembles content from the prompt alone.
// It is the fallback when no model is reachable, mirroring how image and video
// generation degrade to synthetic assets.
type StaticGenerator struct{}

// NewStaticGenerator creates the fallback content generator.
func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

// Generate assembles deterministic content for the prompt.
func (s *StaticGenerator) Generate(ctx context.Context, req Request) (*domain.GeneratedContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}

	titler := cases.Title(language.Make(req.Locale))
	title := titler.String(prompt)

	hook := truncate(fmt.Sprintf("%s: see it before everyone else does", title), maxHookLen)
	captions := []string{
		fmt.Sprintf("%s. We captured this moment just for you. Tell us in the comments what it reminds you of, and share it with someone who needs to see it today.", title),
		fmt.Sprintf("Some things are better experienced than explained. %s is one of them. Double-tap if you agree and save this post for later.", title),
		fmt.Sprintf("Behind every post is a story. Today's story: %s. Follow along so you never miss the next chapter.", title),
	}

	hashtags := buildHashtags(prompt)
	alt := truncate(fmt.Sprintf("Image related to %s", prompt), maxAltTextLen)

	aspect := "1:1"
	if req.MediaType == domain.MediaTypeVideo {
		aspect = "9:16"
	}

	return &domain.GeneratedContent{
		Hook:                   hook,
		Captions:               captions,
		Hashtags:               hashtags,
		AltText:                alt,
		RecommendedAspectRatio: aspect,
	}, nil
}

func buildHashtags(prompt string) []string {
	seen := make(map[string]struct{})
	var tags []string
	add := func(tag string) {
		tag = "#" + strings.ToLower(strings.TrimLeft(tag, "#"))
		if len(tag) < 3 {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, word := range strings.Fields(prompt) {
		add(sanitizeTag(word))
	}
	generic := []string{
		"instagood", "photooftheday", "instadaily", "love", "picoftheday",
		"explore", "reels", "trending", "viral", "community", "inspiration",
		"lifestyle", "creative", "moments", "share", "follow", "discover",
		"daily", "mood", "goodvibes",
	}
	for _, tag := range generic {
		if len(tags) >= maxHashtags {
			break
		}
		add(tag)
	}
	if len(tags) > maxHashtags {
		tags = tags[:maxHashtags]
	}
	return tags
}

func sanitizeTag(word string) string {
	var b strings.Builder
	for _, r := range word {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
