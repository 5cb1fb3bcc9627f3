package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/stickerforge/sticker-api/internal/api/shared"
	"github.com/stickerforge/sticker-api/internal/service"
)

// HistoryService exposes the gallery listing operation the handler needs.
// Satisfied by service.GenerationService.
type HistoryService interface {
	History(ctx context.Context, limit, offset int) (*service.HistoryPage, error)
}

// HistoryHandler handles gallery listing HTTP requests.
type HistoryHandler struct {
	service HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(service HistoryService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// History handles GET /api/history requests. Paging comes from the limit
// and offset query parameters; omitted values fall back to defaults.
func (h *HistoryHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", service.DefaultHistoryLimit)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit. Must be between 1 and 100.")
		return
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid offset. Must be 0 or greater.")
		return
	}

	page, err := h.service.History(r.Context(), limit, offset)
	if err != nil {
		status := MapErrorToStatusCode(err)
		message := GetSafeErrorMessage(err)
		if status == http.StatusInternalServerError {
			message = "Failed to fetch history"
		}
		shared.RespondWithErrorAndLog(w, r, status, message, err)
		return
	}

	items := make([]HistoryItem, 0, len(page.Images))
	for _, img := range page.Images {
		items = append(items, newHistoryItem(img))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, HistoryResponse{
		History: items,
		Total:   page.Total,
		HasMore: page.HasMore,
	})
}

// queryInt parses an integer query parameter, returning the fallback when
// the parameter is absent.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("not an integer: " + raw)
	}
	return value, nil
}
