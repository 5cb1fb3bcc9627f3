package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stickerforge/sticker-api/internal/api/shared"
	"github.com/stickerforge/sticker-api/internal/domain"
	"github.com/stickerforge/sticker-api/internal/generation"
	"github.com/stickerforge/sticker-api/internal/service"
	"github.com/stickerforge/sticker-api/internal/task"
)

type mockStickerService struct {
	syncResult *service.SyncResult
	syncErr    error
	asyncTask  *task.Task
	asyncErr   error

	syncCalls  int
	asyncCalls int
}

func (m *mockStickerService) Generate(_ context.Context, _ *domain.StickerRequest) (*service.SyncResult, error) {
	m.syncCalls++
	return m.syncResult, m.syncErr
}

func (m *mockStickerService) GenerateAsync(_ context.Context, _ *domain.StickerRequest) (*task.Task, error) {
	m.asyncCalls++
	return m.asyncTask, m.asyncErr
}

func generateBody(t *testing.T, mutate func(*domain.StickerRequest)) *bytes.Buffer {
	t.Helper()

	req := &domain.StickerRequest{
		Prompt:        "a knight wreathed in flame",
		Title:         "Flame Knight",
		CharacterName: "Aether",
		Attribute:     "fire",
		Rarity:        domain.RarityRare,
	}
	if mutate != nil {
		mutate(req)
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

func postGenerate(handler *GenerateHandler, body *bytes.Buffer) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.Generate(rec, req)
	return rec
}

func TestGenerate_Sync(t *testing.T) {
	t.Run("returns the finished sticker", func(t *testing.T) {
		genID := uuid.New()
		svc := &mockStickerService{syncResult: &service.SyncResult{
			ImageURL:     "/images/sticker.png",
			GenerationID: genID,
			Timestamp:    time.Now().UTC(),
		}}
		handler := NewGenerateHandler(svc)

		rec := postGenerate(handler, generateBody(t, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp SyncGenerateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "/images/sticker.png", resp.ImageURL)
		assert.Equal(t, genID, resp.GenerationID)
		assert.False(t, resp.Timestamp.IsZero())
		assert.Zero(t, svc.asyncCalls)
	})

	t.Run("backend failure is sanitized", func(t *testing.T) {
		svc := &mockStickerService{syncErr: errors.New("genai: connection reset")}
		handler := NewGenerateHandler(svc)

		rec := postGenerate(handler, generateBody(t, nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp shared.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Failed to generate image", resp.Error)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})

	t.Run("blocked content is a client error", func(t *testing.T) {
		svc := &mockStickerService{syncErr: generation.ErrContentBlocked}
		handler := NewGenerateHandler(svc)

		rec := postGenerate(handler, generateBody(t, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGenerate_Async(t *testing.T) {
	taskID := uuid.New()
	svc := &mockStickerService{asyncTask: &task.Task{ID: taskID, Status: task.StatusPending}}
	handler := NewGenerateHandler(svc)

	rec := postGenerate(handler, generateBody(t, func(r *domain.StickerRequest) {
		r.Async = true
	}))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp AsyncGenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, taskID, resp.TaskID)
	assert.Equal(t, "pending", resp.Status)
	assert.NotEmpty(t, resp.Message)
	assert.Zero(t, svc.syncCalls)
}

func TestGenerate_BadRequests(t *testing.T) {
	t.Run("malformed JSON", func(t *testing.T) {
		handler := NewGenerateHandler(&mockStickerService{})

		rec := postGenerate(handler, bytes.NewBufferString("{not json"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation failure never reaches the service", func(t *testing.T) {
		svc := &mockStickerService{}
		handler := NewGenerateHandler(svc)

		rec := postGenerate(handler, generateBody(t, func(r *domain.StickerRequest) {
			r.Title = ""
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, svc.syncCalls)
		assert.Zero(t, svc.asyncCalls)
	})
}
