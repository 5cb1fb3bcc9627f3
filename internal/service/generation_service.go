package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stickerforge/sticker-api/internal/domain"
	"github.com/stickerforge/sticker-api/internal/generation"
	"github.com/stickerforge/sticker-api/internal/store"
	"github.com/stickerforge/sticker-api/internal/task"
)

// History paging limits. Requests outside these bounds are rejected
// before any query runs.
const (
	MinHistoryLimit     = 1
	MaxHistoryLimit     = 100
	DefaultHistoryLimit = 20
)

// Common errors for GenerationService construction and operations.
var (
	ErrNilLifecycle     = errors.New("lifecycle manager cannot be nil")
	ErrNilGenerator     = errors.New("generator cannot be nil")
	ErrNilImageStore    = errors.New("image store cannot be nil")
	ErrNilRecordStore   = errors.New("record store cannot be nil")
	ErrNilUsageRecorder = errors.New("usage recorder cannot be nil")
	ErrNilLogger        = errors.New("logger cannot be nil")
	ErrInvalidLimit     = fmt.Errorf("limit must be between %d and %d", MinHistoryLimit, MaxHistoryLimit)
	ErrInvalidOffset    = errors.New("offset must be non-negative")
)

// TaskLauncher creates task records and starts their background
// pipelines. Satisfied by task.LifecycleManager.
type TaskLauncher interface {
	CreateTask(ctx context.Context, req *domain.StickerRequest) (*task.Task, error)
	Run(taskID uuid.UUID, req *domain.StickerRequest)
}

// SyncResult is the outcome of a synchronous generation: the stable URL
// of the stored sticker and the identifier of its generation record.
type SyncResult struct {
	ImageURL     string
	GenerationID uuid.UUID
	Timestamp    time.Time
}

// HistoryPage is one page of past generations plus the paging metadata
// needed to fetch the next one.
type HistoryPage struct {
	Images  []*domain.GeneratedImage
	Total   int64
	HasMore bool
}

// GenerationService orchestrates sticker generation over both paths: the
// synchronous path runs the pipeline inline and returns the finished
// image, the asynchronous path hands the request to the task lifecycle
// manager and returns a task handle immediately.
type GenerationService struct {
	lifecycle TaskLauncher
	generator generation.Generator
	images    task.ImageStore
	records   store.GeneratedImageStore
	usage     task.UsageRecorder
	logger    *slog.Logger
}

// NewGenerationService creates a GenerationService, validating all
// dependencies.
func NewGenerationService(
	lifecycle TaskLauncher,
	generator generation.Generator,
	images task.ImageStore,
	records store.GeneratedImageStore,
	usage task.UsageRecorder,
	logger *slog.Logger,
) (*GenerationService, error) {
	if lifecycle == nil {
		return nil, ErrNilLifecycle
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
		return nil, ErrNilUsageRecorder
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &GenerationService{
		lifecycle: lifecycle,
		generator: generator,
		images:    images,
		records:   records,
		usage:     usage,
		logger:    logger,
	}, nil
}

// Generate runs the full pipeline inline and blocks until the sticker is
// generated, stored, and recorded. Every call counts toward daily usage,
// success or failure, exactly once.
func (s *GenerationService) Generate(ctx context.Context, req *domain.StickerRequest) (result *SyncResult, err error) {
	defer func() {
		s.usage.Record(ctx, err == nil)
	}()

	if err = req.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info("generating sticker image", "character_name", req.CharacterName, "rarity", req.Rarity)

	img, err := s.generator.GenerateSticker(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	localURL, err := s.images.Persist(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	record, err := domain.NewGeneratedImage(req, localURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build image record: %w", err)
	}

	if err = s.records.CreateImage(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist image record: %w", err)
	}

	s.logger.Info("generation completed", "image_url", localURL, "generation_id", record.ID)

	return &SyncResult{
		ImageURL:     localURL,
		GenerationID: record.ID,
		Timestamp:    record.CreatedAt,
	}, nil
}

// GenerateAsync validates the request, persists a pending task, and
// starts its pipeline in the background. The returned task reflects the
// pending state at submission; subscribers follow progress through the
// status stream.
func (s *GenerationService) GenerateAsync(ctx context.Context, req *domain.StickerRequest) (*task.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.lifecycle.CreateTask(ctx, req)
	if err != nil {
		return nil, err
	}

	s.lifecycle.Run(t.ID, req)

	s.logger.Info("task submitted", "task_id", t.ID)
	return t, nil
}

// History returns one page of past generations, newest first, together
// with the overall total so callers can page through the rest.
func (s *GenerationService) History(ctx context.Context, limit, offset int) (*HistoryPage, error) {
	if limit < MinHistoryLimit || limit > MaxHistoryLimit {
		return nil, ErrInvalidLimit
	}
	if offset < 0 {
		return nil, ErrInvalidOffset
	}

	var (
		images []*domain.GeneratedImage
		total  int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		images, err = s.records.ListImages(gctx, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.records.CountImages(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	return &HistoryPage{
		Images:  images,
		Total:   total,
		HasMore: int64(offset+len(images)) < total,
	}, nil
}
