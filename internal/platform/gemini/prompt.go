package gemini

import (
	"strings"
	"text/template"

	"github.com/stickerforge/sticker-api/internal/domain"
)

// rarityTier describes how elaborate the background, frame, and effects
// are for one rarity grade.
type rarityTier struct {
	Background string
	Frame      string
	Effects    string
}

// rarityTiers maps each rarity grade to its visual treatment. Unknown
// grades never reach here; requests are validated first.
var rarityTiers = map[domain.Rarity]rarityTier{
	domain.RarityNormal: {
		Background: "a basic holographic pattern",
		Frame:      "a standard silver frame",
		Effects:    "simple sparkle highlights",
	},
	domain.RarityRare: {
		Background: "a holographic background with rainbow prism effects and strong iridescent reflections",
		Frame:      "an ornate gold frame with intricate patterns",
		Effects:    "lavish sparkle effects, light streaks, and a moderate aura",
	},
	domain.RaritySuperRare: {
		Background: "an intense holographic background with cosmic patterns, extreme rainbow prisms, and galaxy motifs",
		Frame:      "a premium gold frame with elaborate ornamentation and inset gems",
		Effects:    "maximum sparkle, intense light rays, a powerful aura, and energy effects",
	},
}

// promptTemplate renders the final instruction sent to the image model.
var promptTemplate = template.Must(template.New("sticker").Parse(
	`Create a holographic collectible sticker image in the style of 1980s-1990s Japanese chocolate-snack trading stickers.

Sticker title (displayed at the top): {{.Title}}
Character: {{.Character}}
Character name: {{.CharacterName}}
Attribute: {{.Attribute}}
Rarity: {{.Rarity}}
Background color: {{.BackgroundColor}}

Style requirements:
- {{.Tier.Background}}
- {{.Tier.Frame}}
- The character is centered and drawn large
- The character name and title use a gothic or decorative font
- {{.Tier.Effects}}
- Frame type: {{.FrameType}}, frame color: {{.FrameColor}}
{{- range .ExtraEffects}}
- {{.}}
{{- end}}`))

// promptData is the data passed to the prompt template.
type promptData struct {
	Title           string
	Character       string
	CharacterName   string
	Attribute       string
	Rarity          string
	BackgroundColor string
	FrameType       string
	FrameColor      string
	Tier            rarityTier
	ExtraEffects    []string
}

// buildPrompt renders the sticker prompt for a validated request. The
// caller's free-form prompt describes the character; when only a source
// image was provided, the image reference stands in for it.
func buildPrompt(req *domain.StickerRequest) (string, error) {
	character := req.Prompt
	if req.SourceImage != "" {
		if character != "" {
			character += ", based on the uploaded reference photo"
		} else {
			character = "the subject of the uploaded reference photo"
		}
	}

	var extra []string
	if req.Effects.Holographic {
		extra = append(extra, "Layer additional holographic effects over the whole sticker")
	}
	if req.Effects.Sparkle {
		extra = append(extra, "Scatter additional sparkle effects across the image")
	}
	if req.Effects.Aura {
		extra = append(extra, "Add a strong glowing aura around the character")
	}

	data := promptData{
		Title:           req.Title,
		Character:       character,
		CharacterName:   req.CharacterName,
		Attribute:       req.Attribute,
		Rarity:          strings.ToUpper(string(req.Rarity)),
		BackgroundColor: req.BackgroundColor,
		FrameType:       req.Style.FrameType,
		FrameColor:      req.Style.FrameColor,
		Tier:            rarityTiers[req.Rarity],
		ExtraEffects:    extra,
	}

	var sb strings.Builder
	if err := promptTemplate.Execute(&sb, data); err != nil {
		return "", err
	}

	return sb.String(), nil
}
