package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stickerforge/sticker-api/internal/api"
	apiMiddleware "github.com/stickerforge/sticker-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// Create API handlers using the application's services
	generateHandler := api.NewGenerateHandler(app.generations)
	streamHandler := api.NewStreamHandler(app.taskStore, app.logger.With("component", "stream"))
	historyHandler := api.NewHistoryHandler(app.generations)
	uploadHandler := api.NewUploadHandler(app.localStore)

	// Register routes. Every /api route passes the per-IP rate limiter
	// before any handler work; an SSE subscription counts as one request.
	r.Route("/api", func(r chi.Router) {
		r.Use(apiMiddleware.RateLimitMiddleware(app.limiter))

		r.Post("/generate", generateHandler.Generate)
		r.Post("/upload", uploadHandler.Upload)
		r.Get("/tasks/{taskID}/stream", streamHandler.Stream)
		r.Get("/history", historyHandler.History)
	})

	// Serve stored images from the local store directory
	fileServer := http.StripPrefix(
		app.config.Storage.PublicPath+"/",
		http.FileServer(http.Dir(app.config.Storage.ImageDir)),
	)
	r.Get(app.config.Storage.PublicPath+"/*", fileServer.ServeHTTP)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
