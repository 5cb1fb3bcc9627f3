package task

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stickerforge/sticker-api/internal/domain"
	"github.com/stickerforge/sticker-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTaskStore records every create and update it receives.
type mockTaskStore struct {
	mu        sync.Mutex
	created   []*Task
	updates   []Update
	createErr error
	updateErr error
}

func (m *mockTaskStore) CreateTask(ctx context.Context, t *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, t)
	return nil
}

func (m *mockTaskStore) GetTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	return nil, errors.New("not used")
}

func (m *mockTaskStore) UpdateTask(ctx context.Context, id uuid.UUID, update Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates = append(m.updates, update)
	return nil
}

func (m *mockTaskStore) recordedUpdates() []Update {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Update(nil), m.updates...)
}

// mockGenerator returns a fixed locator or error.
type mockGenerator struct {
	img *generation.Image
	err error
}

func (m *mockGenerator) GenerateSticker(ctx context.Context, req *domain.StickerRequest) (*generation.Image, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.img, nil
}

// mockImageStore returns a fixed local URL or error.
type mockImageStore struct {
	url string
	err error
}

func (m *mockImageStore) Persist(ctx context.Context, img *generation.Image) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if img.URL == "" && len(img.Data) == 0 {
		return "", errors.New("empty locator")
	}
	return m.url, nil
}

// mockRecordStore captures the created image record.
type mockRecordStore struct {
	mu      sync.Mutex
	created *domain.GeneratedImage
	err     error
}

func (m *mockRecordStore) CreateImage(ctx context.Context, img *domain.GeneratedImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.created = img
	return nil
}

func (m *mockRecordStore) ListImages(ctx context.Context, limit, offset int) ([]*domain.GeneratedImage, error) {
	return nil, errors.New("not used")
}

func (m *mockRecordStore) CountImages(ctx context.Context) (int64, error) {
	return 0, errors.New("not used")
}

// mockUsage counts outcome recordings.
type mockUsage struct {
	mu        sync.Mutex
	successes int
	failures  int
}

func (m *mockUsage) Record(ctx context.Context, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.successes++
	} else {
		m.failures++
	}
}

func (m *mockUsage) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.successes, m.failures
}

type lifecycleFixture struct {
	manager *LifecycleManager
	tasks   *mockTaskStore
	gen     *mockGenerator
	images  *mockImageStore
	records *mockRecordStore
	usage   *mockUsage
}

func newFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	f := &lifecycleFixture{
		tasks:   &mockTaskStore{},
		gen:     &mockGenerator{img: &generation.Image{URL: "https://cdn.example/img.png"}},
		images:  &mockImageStore{url: "/images/out.png"},
		records: &mockRecordStore{},
		usage:   &mockUsage{},
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	manager, err := NewLifecycleManager(f.tasks, f.gen, f.images, f.records, f.usage, logger)
	require.NoError(t, err)
	f.manager = manager
	return f
}

func stickerRequest() *domain.StickerRequest {
	return &domain.StickerRequest{
		Prompt:          "a warrior",
		Title:           "Flame Knight",
		CharacterName:   "Aether",
		Attribute:       "fire",
		Rarity:          domain.RarityRare,
		BackgroundColor: "#ff3300",
	}
}

func TestNewLifecycleManagerValidation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	tasks := &mockTaskStore{}
	gen := &mockGenerator{}
	images := &mockImageStore{}
	records := &mockRecordStore{}
	usage := &mockUsage{}

	_, err := NewLifecycleManager(nil, gen, images, records, usage, logger)
	assert.ErrorIs(t, err, ErrNilTaskStore)

	_, err = NewLifecycleManager(tasks, nil, images, records, usage, logger)
	assert.ErrorIs(t, err, ErrNilGenerator)

	_, err = NewLifecycleManager(tasks, gen, images, records, usage, nil)
	assert.ErrorIs(t, err, ErrNilLogger)
}

func TestCreateTask(t *testing.T) {
	t.Run("creates a pending task with the request payload", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.manager.CreateTask(context.Background(), stickerRequest())
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, StatusPending, created.Status)
		assert.Equal(t, 0, created.Progress)

		var stored domain.StickerRequest
		require.NoError(t, json.Unmarshal(created.Payload, &stored))
		assert.Equal(t, "Flame Knight", stored.Title)
	})

	t.Run("propagates store failure", func(t *testing.T) {
		f := newFixture(t)
		f.tasks.createErr = errors.New("connection refused")

		_, err := f.manager.CreateTask(context.Background(), stickerRequest())
		assert.Error(t, err)
	})
}

func TestRunSuccessPath(t *testing.T) {
	f := newFixture(t)

	created, err := f.manager.CreateTask(context.Background(), stickerRequest())
	require.NoError(t, err)

	f.manager.Run(created.ID, stickerRequest())
	f.manager.Drain()

	updates := f.tasks.recordedUpdates()
	require.Len(t, updates, 4)

	// pending -> processing at progress 10
	require.NotNil(t, updates[0].Status)
	assert.Equal(t, StatusProcessing, *updates[0].Status)
	assert.Equal(t, ProgressStarted, *updates[0].Progress)

	// progress-only milestones
	assert.Nil(t, updates[1].Status)
	assert.Equal(t, ProgressGenerated, *updates[1].Progress)
	assert.Equal(t, ProgressStored, *updates[2].Progress)

	// terminal completed with result
	require.NotNil(t, updates[3].Status)
	assert.Equal(t, StatusCompleted, *updates[3].Status)
	assert.Equal(t, ProgressDone, *updates[3].Progress)

	var result Result
	require.NoError(t, json.Unmarshal(updates[3].Result, &result))
	assert.Equal(t, "/images/out.png", result.ImageURL)
	assert.Equal(t, f.records.created.ID, result.GenerationID)

	// progress is non-decreasing
	last := 0
	for _, u := range updates {
		if u.Progress != nil {
			assert.GreaterOrEqual(t, *u.Progress, last)
			last = *u.Progress
		}
	}

	successes, failures := f.usage.counts()
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, failures)
}

func TestRunFailurePaths(t *testing.T) {
	t.Run("generation failure marks the task failed", func(t *testing.T) {
		f := newFixture(t)
		f.gen.err = generation.ErrGenerationFailed

		f.manager.Run(uuid.New(), stickerRequest())
		f.manager.Drain()

		updates := f.tasks.recordedUpdates()
		require.Len(t, updates, 2)

		final := updates[len(updates)-1]
		require.NotNil(t, final.Status)
		assert.Equal(t, StatusFailed, *final.Status)
		require.NotNil(t, final.ErrorMessage)
		assert.Contains(t, *final.ErrorMessage, "generation failed")
		assert.Nil(t, final.Result)

		successes, failures := f.usage.counts()
		assert.Equal(t, 0, successes)
		assert.Equal(t, 1, failures)
	})

	t.Run("storage failure aborts before the record stage", func(t *testing.T) {
		f := newFixture(t)
		f.images.err = errors.New("disk full")

		f.manager.Run(uuid.New(), stickerRequest())
		f.manager.Drain()

		assert.Nil(t, f.records.created)

		updates := f.tasks.recordedUpdates()
		final := updates[len(updates)-1]
		require.NotNil(t, final.Status)
		assert.Equal(t, StatusFailed, *final.Status)
	})

	t.Run("record persistence failure fails the task", func(t *testing.T) {
		f := newFixture(t)
		f.records.err = errors.New("insert rejected")

		f.manager.Run(uuid.New(), stickerRequest())
		f.manager.Drain()

		updates := f.tasks.recordedUpdates()
		final := updates[len(updates)-1]
		require.NotNil(t, final.Status)
		assert.Equal(t, StatusFailed, *final.Status)

		_, failures := f.usage.counts()
		assert.Equal(t, 1, failures)
	})

	t.Run("panics are converted to task failure", func(t *testing.T) {
		f := newFixture(t)
		// A generator that returns neither image nor error makes the
		// storage stage dereference nil and panic.
		f.gen.img = nil

		f.manager.Run(uuid.New(), stickerRequest())
		f.manager.Drain()

		updates := f.tasks.recordedUpdates()
		final := updates[len(updates)-1]
		require.NotNil(t, final.Status)
		assert.Equal(t, StatusFailed, *final.Status)

		_, failures := f.usage.counts()
		assert.Equal(t, 1, failures)
	})

	t.Run("store update failures are swallowed and usage still recorded", func(t *testing.T) {
		f := newFixture(t)
		f.tasks.updateErr = errors.New("store unavailable")

		f.manager.Run(uuid.New(), stickerRequest())
		f.manager.Drain()

		successes, _ := f.usage.counts()
		assert.Equal(t, 1, successes)
	})
}
