package generation

import (
	"context"
	"errors"

	"github.com/stickerforge/sticker-api/internal/domain"
)

// Image is the locator returned by a generation backend. Backends either
// host the result and return its URL, or return the encoded image bytes
// inline; exactly one of URL and Data is set. The storage layer accepts
// either form and produces a stable local URL.
type Image struct {
	// URL points at the remotely hosted result, when the backend hosts it.
	URL string

	// Data holds the encoded image bytes, when the backend returns them
	// inline.
	Data []byte

	// MIMEType describes Data (e.g., "image/png"). Empty when URL is set.
	MIMEType string
}

// Validate checks that the locator identifies exactly one image source.
func (i *Image) Validate() error {
	if i.URL == "" && len(i.Data) == 0 {
		return errors.New("image locator has neither URL nor data")
	}
	if i.URL != "" && len(i.Data) > 0 {
		return errors.New("image locator has both URL and data")
	}
	return nil
}

// Generator defines the interface for producing a sticker image from a
// structured request. It is the boundary between the application core and
// the external image-generation service; implementations live under
// internal/platform.
type Generator interface {
	// GenerateSticker renders the requested sticker and returns a locator
	// for the produced image, or an error from the taxonomy in errors.go
	// when the remote call fails or yields no usable image.
	GenerateSticker(ctx context.Context, req *domain.StickerRequest) (*Image, error)
}
