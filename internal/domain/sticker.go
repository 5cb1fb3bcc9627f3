package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Rarity grades a sticker and drives how elaborate the generated frame,
// background, and effects are.
type Rarity string

// Supported rarity grades.
const (
	RarityNormal    Rarity = "normal"
	RarityRare      Rarity = "rare"
	RaritySuperRare Rarity = "super-rare"
)

// Field limits for sticker requests.
const (
	MaxPromptLength    = 500
	MaxTitleLength     = 100
	MaxCharacterLength = 100
	MaxAttributeLength = 50
)

// Common validation errors for sticker requests.
var (
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrEmptyCharacterName = errors.New("character name cannot be empty")
	ErrEmptyAttribute     = errors.New("attribute cannot be empty")
	ErrInvalidRarity      = errors.New("invalid rarity")
	ErrPromptTooLong      = fmt.Errorf("prompt exceeds %d characters", MaxPromptLength)
	ErrNoSubject          = errors.New("either prompt or source image must be provided")
)

// EffectFlags toggles the optional visual effects layered onto a sticker.
type EffectFlags struct {
	Holographic bool `json:"holographic"`
	Sparkle     bool `json:"sparkle"`
	Aura        bool `json:"aura"`
}

// StickerStyle describes the frame treatment requested by the caller.
type StickerStyle struct {
	FrameType  string `json:"frameType"`
	FrameColor string `json:"frameColor"`
}

// StickerRequest is the structured generation request submitted by a
// caller. It is stored verbatim as the payload of the task that processes
// it, so the JSON field names are part of the wire contract.
type StickerRequest struct {
	Prompt          string       `json:"prompt,omitempty"`
	SourceImage     string       `json:"sourceImage,omitempty"`
	Title           string       `json:"title"`
	CharacterName   string       `json:"characterName"`
	Attribute       string       `json:"attribute"`
	Rarity          Rarity       `json:"rarity"`
	BackgroundColor string       `json:"backgroundColor"`
	Effects         EffectFlags  `json:"effects"`
	Style           StickerStyle `json:"style"`
	Async           bool         `json:"async,omitempty"`
}

// Validate checks the request against the field limits and the rule that
// at least one of prompt or source image describes the subject.
func (r *StickerRequest) Validate() error {
	if r.Title == "" || len(r.Title) > MaxTitleLength {
		return ErrEmptyTitle
	}

	if r.CharacterName == "" || len(r.CharacterName) > MaxCharacterLength {
		return ErrEmptyCharacterName
	}

	if r.Attribute == "" || len(r.Attribute) > MaxAttributeLength {
		return ErrEmptyAttribute
	}

	if !isValidRarity(r.Rarity) {
		return ErrInvalidRarity
	}

	if len(r.Prompt) > MaxPromptLength {
		return ErrPromptTooLong
	}

	if r.Prompt == "" && r.SourceImage == "" {
		return ErrNoSubject
	}

	return nil
}

// isValidRarity checks if the given rarity is a supported grade.
func isValidRarity(r Rarity) bool {
	switch r {
	case RarityNormal, RarityRare, RaritySuperRare:
		return true
	default:
		return false
	}
}

// GeneratedImage is the persisted artifact of one successful generation:
// the stable local image URL plus everything the caller submitted.
// Records are immutable once created.
type GeneratedImage struct {
	ID              uuid.UUID    `json:"id"`
	ImageURL        string       `json:"image_url"`
	Prompt          string       `json:"prompt"`
	SourceImageURL  string       `json:"source_image_url,omitempty"`
	Title           string       `json:"title"`
	CharacterName   string       `json:"character_name"`
	Attribute       string       `json:"attribute"`
	Rarity          Rarity       `json:"rarity"`
	BackgroundColor string       `json:"background_color"`
	Effects         EffectFlags  `json:"effects"`
	Style           StickerStyle `json:"style"`
	CreatedAt       time.Time    `json:"created_at"`
}

// NewGeneratedImage builds a GeneratedImage from a validated request and
// the stable URL of the stored image. It assigns a new UUID and the
// creation timestamp.
func NewGeneratedImage(req *StickerRequest, imageURL string) (*GeneratedImage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if imageURL == "" {
		return nil, errors.New("image URL cannot be empty")
	}

	return &GeneratedImage{
		ID:              uuid.New(),
		ImageURL:        imageURL,
		Prompt:          req.Prompt,
		SourceImageURL:  req.SourceImage,
		Title:           req.Title,
		CharacterName:   req.CharacterName,
		Attribute:       req.Attribute,
		Rarity:          req.Rarity,
		BackgroundColor: req.BackgroundColor,
		Effects:         req.Effects,
		Style:           req.Style,
		CreatedAt:       time.Now().UTC(),
	}, nil
}
