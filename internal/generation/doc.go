// Package generation defines the boundary between the application core
// and external image-generation services. The core depends only on the
// Generator interface and the error taxonomy here; concrete backends
// (e.g., internal/platform/gemini) implement them.
package generation
