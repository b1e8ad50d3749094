package video

import (
	"context"
	"fmt"
	"strings"

	"postpilot/internal/domain"
	"postpilot/internal/providers"
	"postpilot/internal/providers/genai"
)

// Request carries the inputs for video generation.
type Request struct {
	Prompt      string
	Style       string
	AspectRatio string
	DurationSec int
	Locale      string
	RequestID   string
}

// Result is a generated video prior to persistence.
type Result struct {
	Data        []byte
	MIME        string
	DurationSec int
}

// Generator produces one video for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// GeminiGenerator adapts the Gemini client to the video contract.
type GeminiGenerator struct {
	client *genai.Client
}

// NewGeminiGenerator wires a Gemini-backed video generator.
func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

// Generate produces a video for the prompt.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}
	blob, err := g.client.GenerateVideo(ctx, genai.VideoRequest{
		Prompt:      req.Prompt,
		Style:       req.Style,
		AspectRatio: req.AspectRatio,
		DurationSec: req.DurationSec,
		Locale:      req.Locale,
		RequestID:   req.RequestID,
	})
	if err != nil {
		return nil, providers.Classify(err)
	}
	return &Result{
		Data:        blob.Data,
		MIME:        blob.Format,
		DurationSec: blob.DurationSec,
	}, nil
}

var _ Generator = (*GeminiGenerator)(nil)
