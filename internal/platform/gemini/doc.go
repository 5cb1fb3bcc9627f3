// Package gemini implements the generation.Generator interface using
// Google's Gemini image API. It translates a sticker request into a
// rendering prompt (rarity tiers, effect toggles, frame style) and maps
// backend failures onto the generation error taxonomy.
package gemini
