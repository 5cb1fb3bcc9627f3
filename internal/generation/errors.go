package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when image generation fails for any
	// general reason.
	ErrGenerationFailed = errors.New("failed to generate sticker image")

	// ErrInvalidResponse is returned when the backend response contains no
	// usable image.
	ErrInvalidResponse = errors.New("invalid response from generation backend")

	// ErrContentBlocked is returned when the backend refuses the request
	// due to safety filters.
	ErrContentBlocked = errors.New("content blocked by generation backend safety filters")

	// ErrInvalidConfig is returned when the generator configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
