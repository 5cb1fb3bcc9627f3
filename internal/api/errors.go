package api

import (
	"errors"
	"net/http"

	"github.com/stickerforge/sticker-api/internal/domain"
	"github.com/stickerforge/sticker-api/internal/generation"
	"github.com/stickerforge/sticker-api/internal/service"
	"github.com/stickerforge/sticker-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Request validation errors
	case errors.Is(err, domain.ErrEmptyTitle),
		errors.Is(err, domain.ErrEmptyCharacterName),
		errors.Is(err, domain.ErrEmptyAttribute),
		errors.Is(err, domain.ErrInvalidRarity),
		errors.Is(err, domain.ErrPromptTooLong),
		errors.Is(err, domain.ErrNoSubject),
		errors.Is(err, service.ErrInvalidLimit),
		errors.Is(err, service.ErrInvalidOffset):
		return http.StatusBadRequest

	// The backend refused the subject matter; the caller can fix the
	// request, so this is not a server fault.
	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal
// details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Validation errors carry field-level detail that is safe to expose.
	case errors.Is(err, domain.ErrEmptyTitle),
		errors.Is(err, domain.ErrEmptyCharacterName),
		errors.Is(err, domain.ErrEmptyAttribute),
		errors.Is(err, domain.ErrInvalidRarity),
		errors.Is(err, domain.ErrPromptTooLong),
		errors.Is(err, domain.ErrNoSubject):
		return "Invalid request"

	case errors.Is(err, service.ErrInvalidLimit):
		return "Invalid limit. Must be between 1 and 100."

	case errors.Is(err, service.ErrInvalidOffset):
		return "Invalid offset. Must be 0 or greater."

	case errors.Is(err, generation.ErrContentBlocked):
		return "Request was blocked by content safety filters"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	default:
		return "Failed to generate image"
	}
}
