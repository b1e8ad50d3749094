package image

import (
	"context"
	"fmt"
	"strings"

	"postpilot/internal/domain"
	"postpilot/internal/providers"
	"postpilot/internal/providers/genai"
)

// Request carries the inputs for image generation.
type Request struct {
	Prompt      string
	Style       string
	AspectRatio string
	Locale      string
	RequestID   string
}

// Result is a generated image prior to persistence.
type Result struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Generator produces one image for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// GeminiGenerator adapts the Gemini client to the image contract.
type GeminiGenerator struct {
	client *genai.Client
}

// NewGeminiGenerator wires a Gemini-backed image generator.
func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

// Generate produces an image for the prompt.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}
	blob, err := g.client.GenerateImage(ctx, genai.ImageRequest{
		Prompt:      req.Prompt,
		Style:       req.Style,
		AspectRatio: req.AspectRatio,
		Locale:      req.Locale,
		RequestID:   req.RequestID,
	})
	if err != nil {
		return nil, providers.Classify(err)
	}
	return &Result{
		Data:   blob.Data,
		MIME:   blob.Format,
		Width:  blob.Width,
		Height: blob.Height,
	}, nil
}

var _ Generator = (*GeminiGenerator)(nil)
