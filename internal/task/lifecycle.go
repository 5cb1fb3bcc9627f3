package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/stickerforge/sticker-api/internal/domain"
	"github.com/stickerforge/sticker-api/internal/generation"
	"github.com/stickerforge/sticker-api/internal/store"
)

// Common errors for LifecycleManager construction.
var (
	ErrNilTaskStore   = errors.New("task store cannot be nil")
	ErrNilGenerator   = errors.New("generator cannot be nil")
	ErrNilImageStore  = errors.New("image store cannot be nil")
	ErrNilRecordStore = errors.New("record store cannot be nil")
	ErrNilUsage       = errors.New("usage recorder cannot be nil")
	ErrNilLogger      = errors.New("logger cannot be nil")
	ErrNilRequest     = errors.New("request cannot be nil")
)

// ImageStore persists a generated image locator and returns its stable
// local URL.
type ImageStore interface {
	Persist(ctx context.Context, img *generation.Image) (string, error)
}

// UsageRecorder records a completed generation outcome in the daily
// usage counters.
type UsageRecorder interface {
	Record(ctx context.Context, success bool)
}

// LifecycleManager owns the state machine of generation tasks. It creates
// task records and drives each one through the generation pipeline in a
// detached goroutine, recording progress and the terminal outcome. Only
// the manager mutates a task after creation.
type LifecycleManager struct {
	tasks     TaskStore
	generator generation.Generator
	images    ImageStore
	records   store.GeneratedImageStore
	usage     UsageRecorder
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// NewLifecycleManager creates a LifecycleManager, validating all
// dependencies.
func NewLifecycleManager(
	tasks TaskStore,
	generator generation.Generator,
	images ImageStore,
	records store.GeneratedImageStore,
	usage UsageRecorder,
	logger *slog.Logger,
) (*LifecycleManager, error) {
	if tasks == nil {
		return nil, ErrNilTaskStore
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if images == nil {
		return nil, ErrNilImageStore
	}
	if records == nil {
		return nil, ErrNilRecordStore
	}
	if usage == nil {
		return nil, ErrNilUsage
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &LifecycleManager{
		tasks:     tasks,
		generator: generator,
		images:    images,
		records:   records,
		usage:     usage,
		logger:    logger,
	}, nil
}

// CreateTask persists a new pending task carrying the request verbatim
// and returns it before any remote work begins.
func (m *LifecycleManager) CreateTask(ctx context.Context, req *domain.StickerRequest) (*Task, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	t := &Task{
		ID:       uuid.New(),
		Status:   StatusPending,
		Progress: 0,
		Payload:  payload,
	}

	if err := m.tasks.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return t, nil
}

// Run starts the generation pipeline for a created task in a detached
// goroutine and returns immediately. The caller must not treat its return
// as task completion. Faults inside the pipeline, including panics, are
// converted into a failed task state and never propagate to the caller.
func (m *LifecycleManager) Run(taskID uuid.UUID, req *domain.StickerRequest) {
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()

		// The request context is gone by the time this runs; the pipeline
		// owns its own lifetime and cannot be cancelled mid-flight.
		ctx := context.Background()
		logger := m.logger.With("task_id", taskID)

		err := m.execute(ctx, logger, taskID, req)
		if err != nil {
			logger.Error("task failed", "error", err)
			m.markFailed(ctx, logger, taskID, err)
		}

		// Exactly one usage record per task outcome, success or failure.
		m.usage.Record(ctx, err == nil)
	}()
}

// Drain blocks until all in-flight tasks have finished. Used during
// graceful shutdown; no new tasks should be submitted concurrently.
func (m *LifecycleManager) Drain() {
	m.wg.Wait()
}

// execute runs the three pipeline stages, updating progress after each.
// Any returned error is terminal for the task. Panics are converted to
// errors so a fault in a detached goroutine can never crash the process.
func (m *LifecycleManager) execute(
	ctx context.Context,
	logger *slog.Logger,
	taskID uuid.UUID,
	req *domain.StickerRequest,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	processing := StatusProcessing
	m.update(ctx, logger, taskID, Update{Status: &processing, Progress: progress(ProgressStarted)})

	logger.Info("generating sticker image")
	img, err := m.generator.GenerateSticker(ctx, req)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	m.update(ctx, logger, taskID, Update{Progress: progress(ProgressGenerated)})

	localURL, err := m.images.Persist(ctx, img)
	if err != nil {
		return fmt.Errorf("failed to store image: %w", err)
	}

	m.update(ctx, logger, taskID, Update{Progress: progress(ProgressStored)})

	record, err := domain.NewGeneratedImage(req, localURL)
	if err != nil {
		return fmt.Errorf("failed to build image record: %w", err)
	}

	if err := m.records.CreateImage(ctx, record); err != nil {
		return fmt.Errorf("failed to persist image record: %w", err)
	}

	result, err := json.Marshal(Result{ImageURL: localURL, GenerationID: record.ID})
	if err != nil {
		return fmt.Errorf("failed to marshal task result: %w", err)
	}

	completed := StatusCompleted
	m.update(ctx, logger, taskID, Update{
		Status:   &completed,
		Progress: progress(ProgressDone),
		Result:   result,
	})

	logger.Info("task completed", "image_url", localURL, "generation_id", record.ID)
	return nil
}

// markFailed records the terminal failed state with the fault's message.
func (m *LifecycleManager) markFailed(
	ctx context.Context,
	logger *slog.Logger,
	taskID uuid.UUID,
	cause error,
) {
	failed := StatusFailed
	msg := cause.Error()
	m.update(ctx, logger, taskID, Update{Status: &failed, ErrorMessage: &msg})
}

// update applies a partial task update. Store failures are logged and
// swallowed: the caller that created the task has already returned and
// has no way to react, so a failed update must never abort the pipeline.
func (m *LifecycleManager) update(
	ctx context.Context,
	logger *slog.Logger,
	taskID uuid.UUID,
	u Update,
) {
	if err := m.tasks.UpdateTask(ctx, taskID, u); err != nil {
		logger.Error("failed to update task state", "error", err)
	}
}

// progress returns a pointer to the given milestone for partial updates.
func progress(p int) *int {
	return &p
}
