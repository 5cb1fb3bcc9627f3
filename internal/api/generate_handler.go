package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/stickerforge/sticker-api/internal/api/shared"
	"github.com/stickerforge/sticker-api/internal/domain"
	"github.com/stickerforge/sticker-api/internal/service"
	"github.com/stickerforge/sticker-api/internal/task"
)

// asyncAcceptedMessage is sent alongside the task handle when a request
// enters background processing.
const asyncAcceptedMessage = "Image generation started"

// StickerService exposes the generation operations the handler needs.
// Satisfied by service.GenerationService.
type StickerService interface {
	Generate(ctx context.Context, req *domain.StickerRequest) (*service.SyncResult, error)
	GenerateAsync(ctx context.Context, req *domain.StickerRequest) (*task.Task, error)
}

// GenerateHandler handles sticker generation HTTP requests.
type GenerateHandler struct {
	service StickerService
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(service StickerService) *GenerateHandler {
	return &GenerateHandler{service: service}
}

// Generate handles POST /api/generate requests. A request with the async
// flag set gets 202 and a task handle; otherwise the pipeline runs inline
// and the finished sticker comes back with 200.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req domain.StickerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if req.Async {
		h.generateAsync(w, r, &req)
		return
	}

	result, err := h.service.Generate(r.Context(), &req)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SyncGenerateResponse{
		ImageURL:     result.ImageURL,
		GenerationID: result.GenerationID,
		Timestamp:    result.Timestamp,
	})
}

// generateAsync submits the request for background processing and returns
// immediately with the task handle.
func (h *GenerateHandler) generateAsync(w http.ResponseWriter, r *http.Request, req *domain.StickerRequest) {
	t, err := h.service.GenerateAsync(r.Context(), req)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	slog.Info("generation task accepted", "task_id", t.ID, "trace_id", shared.GetTraceID(r.Context()))

	shared.RespondWithJSON(w, r, http.StatusAccepted, AsyncGenerateResponse{
		TaskID:  t.ID,
		Status:  string(t.Status),
		Message: asyncAcceptedMessage,
	})
}
