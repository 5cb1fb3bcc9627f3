package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/stickerforge/sticker-api/internal/domain"
)

// Common request/response structures

// AsyncGenerateResponse is returned when a generation request is accepted
// for background processing. Clients follow progress on the task stream.
type AsyncGenerateResponse struct {
	TaskID  uuid.UUID `json:"taskId"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

// SyncGenerateResponse is returned when a generation request completes
// inline.
type SyncGenerateResponse struct {
	ImageURL     string    `json:"imageUrl"`
	GenerationID uuid.UUID `json:"generationId"`
	Timestamp    time.Time `json:"timestamp"`
}

// HistoryItem is one past generation as shown in the gallery listing.
type HistoryItem struct {
	GenerationID  uuid.UUID     `json:"generationId"`
	ImageURL      string        `json:"imageUrl"`
	Prompt        string        `json:"prompt"`
	Timestamp     time.Time     `json:"timestamp"`
	Title         string        `json:"title"`
	CharacterName string        `json:"characterName"`
	Rarity        domain.Rarity `json:"rarity"`
}

// HistoryResponse is one page of past generations plus paging metadata.
type HistoryResponse struct {
	History []HistoryItem `json:"history"`
	Total   int64         `json:"total"`
	HasMore bool          `json:"hasMore"`
}

// UploadResponse is returned after a source image upload. UploadID is the
// stored filename and doubles as the handle for later requests.
type UploadResponse struct {
	ImageURL string `json:"imageUrl"`
	UploadID string `json:"uploadId"`
}

// newHistoryItem projects a stored generation record into its listing
// shape.
func newHistoryItem(img *domain.GeneratedImage) HistoryItem {
	return HistoryItem{
		GenerationID:  img.ID,
		ImageURL:      img.ImageURL,
		Prompt:        img.Prompt,
		Timestamp:     img.CreatedAt,
		Title:         img.Title,
		CharacterName: img.CharacterName,
		Rarity:        img.Rarity,
	}
}
