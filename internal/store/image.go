package store

import (
	"context"

	"github.com/stickerforge/sticker-api/internal/domain"
)

// GeneratedImageStore defines the persistence contract for generated
// sticker records. Records are immutable once created; there is no update
// or delete operation.
type GeneratedImageStore interface {
	// CreateImage persists a new generated image record.
	CreateImage(ctx context.Context, image *domain.GeneratedImage) error

	// ListImages returns generated images ordered newest first, using
	// limit/offset pagination.
	ListImages(ctx context.Context, limit, offset int) ([]*domain.GeneratedImage, error)

	// CountImages returns the total number of generated image records.
	CountImages(ctx context.Context) (int64, error)
}
