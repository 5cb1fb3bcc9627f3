package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stickerforge/sticker-api/internal/config"
	"github.com/stickerforge/sticker-api/internal/domain"
	"github.com/stickerforge/sticker-api/internal/generation"
	"google.golang.org/genai"
)

// StickerGenerator implements the generation.Generator interface using
// Google's Gemini image API.
type StickerGenerator struct {
	// logger is used for structured logging
	logger *slog.Logger

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the image model to use
	model string
}

// NewStickerGenerator creates a new StickerGenerator with the provided
// dependencies. It validates the configuration and initializes the Gemini
// client; the returned generator is safe for concurrent use.
func NewStickerGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.GenerationConfig,
) (*StickerGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &StickerGenerator{
		logger: logger,
		client: client,
		model:  cfg.Model,
	}, nil
}

// GenerateSticker renders the requested sticker through the Gemini image
// API and returns a locator for the produced image.
func (g *StickerGenerator) GenerateSticker(
	ctx context.Context,
	req *domain.StickerRequest,
) (*generation.Image, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build prompt: %v", generation.ErrGenerationFailed, err)
	}

	g.logger.Debug("requesting sticker generation",
		"model", g.model,
		"rarity", req.Rarity,
		"prompt_length", len(prompt))

	resp, err := g.client.Models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages:   1,
		IncludeRAIReason: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	if len(resp.GeneratedImages) == 0 {
		return nil, fmt.Errorf("%w: backend returned no images", generation.ErrInvalidResponse)
	}

	img := resp.GeneratedImages[0]
	if img.RAIFilteredReason != "" {
		g.logger.Warn("generation blocked by safety filter", "reason", img.RAIFilteredReason)
		return nil, fmt.Errorf("%w: %s", generation.ErrContentBlocked, img.RAIFilteredReason)
	}

	if img.Image == nil {
		return nil, fmt.Errorf("%w: generated image is empty", generation.ErrInvalidResponse)
	}

	// The API hosts the result on GCS or returns the bytes inline,
	// depending on model and output settings. Either is a valid locator.
	result := &generation.Image{
		URL:      img.Image.GCSURI,
		Data:     img.Image.ImageBytes,
		MIMEType: img.Image.MIMEType,
	}

	if result.URL != "" && len(result.Data) > 0 {
		// Prefer the inline bytes; the hosted copy may be short-lived.
		result.URL = ""
	}

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}

	return result, nil
}
