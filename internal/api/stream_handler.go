package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stickerforge/sticker-api/internal/api/shared"
	"github.com/stickerforge/sticker-api/internal/store"
	"github.com/stickerforge/sticker-api/internal/task"
)

// Stream poll cadence. Each subscriber gets its own poll loop against the
// task store; the cap bounds how long an abandoned task can hold a
// connection open.
const (
	DefaultPollInterval = time.Second
	DefaultMaxPolls     = 120 // about two minutes
)

// Terminal stream error payloads. These are part of the wire contract;
// the frontend matches on the exact strings.
const (
	streamErrNotFound = "Task not found"
	streamErrTimeout  = "Task timeout"
	streamErrInternal = "Internal server error"
)

// TaskReader fetches the current state of one task. Satisfied by any
// task.TaskStore.
type TaskReader interface {
	GetTask(ctx context.Context, id uuid.UUID) (*task.Task, error)
}

// statusEvent is one SSE data frame describing a task's current state.
// Result is included only when present and well-formed.
type statusEvent struct {
	TaskID   uuid.UUID       `json:"taskId"`
	Status   task.Status     `json:"status"`
	Progress int             `json:"progress"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// errorEvent is the terminal SSE frame for a stream that ends without a
// task state to report.
type errorEvent struct {
	Error string `json:"error"`
}

// StreamHandler serves the task status stream: a server-sent-events
// endpoint that polls the task store at a fixed cadence and pushes each
// observed state to the subscriber until the task reaches a terminal
// state, the poll cap is hit, or the subscriber disconnects. Each
// subscriber gets an independent loop; nothing is shared between two
// clients watching the same task.
type StreamHandler struct {
	tasks  TaskReader
	logger *slog.Logger

	// Overridable in tests to avoid real time.
	pollInterval time.Duration
	maxPolls     int
}

// NewStreamHandler creates a new StreamHandler with the default poll
// cadence.
func NewStreamHandler(tasks TaskReader, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		tasks:        tasks,
		logger:       logger,
		pollInterval: DefaultPollInterval,
		maxPolls:     DefaultMaxPolls,
	}
}

// Stream handles GET /api/tasks/{taskID}/stream requests.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	log := h.logger.With(
		"trace_id", shared.GetTraceID(r.Context()),
		"task_id", chi.URLParam(r, "taskID"))

	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		// An unparseable ID can never match a task; same outcome as an
		// unknown one.
		h.send(w, flusher, log, errorEvent{Error: streamErrNotFound})
		return
	}

	h.follow(w, r, flusher, log, taskID)
}

// follow runs the poll loop for one subscriber until a terminal
// condition. Subscriber disconnects cancel the request context and end
// the loop without a final frame.
func (h *StreamHandler) follow(
	w http.ResponseWriter,
	r *http.Request,
	flusher http.Flusher,
	log *slog.Logger,
	taskID uuid.UUID,
) {
	ctx := r.Context()

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for polls := 1; ; polls++ {
		select {
		case <-ctx.Done():
			log.Debug("stream subscriber disconnected", "polls", polls-1)
			return
		case <-ticker.C:
		}

		t, err := h.tasks.GetTask(ctx, taskID)
		if err != nil {
			if store.IsNotFoundError(err) {
				h.send(w, flusher, log, errorEvent{Error: streamErrNotFound})
			} else {
				log.Error("stream poll failed", "error", err)
				h.send(w, flusher, log, errorEvent{Error: streamErrInternal})
			}
			return
		}

		h.send(w, flusher, log, h.event(log, t))

		if t.IsTerminal() {
			log.Debug("stream closed on terminal state", "status", t.Status, "polls", polls)
			return
		}

		if polls >= h.maxPolls {
			log.Warn("stream poll cap reached", "polls", polls)
			h.send(w, flusher, log, errorEvent{Error: streamErrTimeout})
			return
		}
	}
}

// event projects a task into its stream frame. A malformed stored result
// is logged and omitted rather than corrupting the frame.
func (h *StreamHandler) event(log *slog.Logger, t *task.Task) statusEvent {
	ev := statusEvent{
		TaskID:   t.ID,
		Status:   t.Status,
		Progress: t.Progress,
		Error:    t.ErrorMessage,
	}

	if len(t.Result) > 0 {
		if json.Valid(t.Result) {
			ev.Result = t.Result
		} else {
			log.Error("task result is not valid JSON, omitting from stream")
		}
	}

	return ev
}

// send writes one SSE data frame and flushes it to the subscriber.
func (h *StreamHandler) send(w http.ResponseWriter, flusher http.Flusher, log *slog.Logger, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error("failed to marshal stream event", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		log.Debug("failed to write stream event", "error", err)
		return
	}

	flusher.Flush()
}
