package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stickerforge/sticker-api/internal/platform/logger"
	"github.com/stickerforge/sticker-api/internal/store"
	"github.com/stickerforge/sticker-api/internal/task"
)

// PostgresTaskStore implements task.TaskStore using a PostgreSQL database.
type PostgresTaskStore struct {
	db store.DBTX
}

var _ task.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

// CreateTask persists a new task record. Timestamps are assigned here so
// the stored row and the in-memory struct agree.
func (s *PostgresTaskStore) CreateTask(ctx context.Context, t *task.Task) error {
	log := logger.FromContext(ctx)

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	query := `
		INSERT INTO tasks (id, status, progress, payload, result, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.ExecContext(ctx, query,
		t.ID,
		string(t.Status),
		t.Progress,
		[]byte(t.Payload),
		nullBytes(t.Result),
		nullString(t.ErrorMessage),
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task", slog.String("task_id", t.ID.String()), slog.String("error", err.Error()))
		return fmt.Errorf("inserting task: %w", MapError(err))
	}

	return nil
}

// GetTask fetches a task by ID, returning store.ErrTaskNotFound when no
// row matches.
func (s *PostgresTaskStore) GetTask(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	query := `
		SELECT id, status, progress, payload, result, error_message, created_at, updated_at
		FROM tasks
		WHERE id = $1`

	var (
		t        task.Task
		status   string
		result   []byte
		errorMsg sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&status,
		&t.Progress,
		(*[]byte)(&t.Payload),
		&result,
		&errorMsg,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("querying task: %w", MapError(err))
	}

	t.Status = task.Status(status)
	t.Result = result
	if errorMsg.Valid {
		t.ErrorMessage = errorMsg.String
	}

	return &t, nil
}

// UpdateTask applies a partial update, touching only the columns the
// update names. updated_at is always refreshed. Returns
// store.ErrTaskNotFound when no row matches.
func (s *PostgresTaskStore) UpdateTask(ctx context.Context, id uuid.UUID, update task.Update) error {
	log := logger.FromContext(ctx)

	sets := make([]string, 0, 4)
	args := make([]any, 0, 6)

	if update.Status != nil {
		args = append(args, string(*update.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if update.Progress != nil {
		args = append(args, *update.Progress)
		sets = append(sets, fmt.Sprintf("progress = $%d", len(args)))
	}
	if update.Result != nil {
		args = append(args, []byte(update.Result))
		sets = append(sets, fmt.Sprintf("result = $%d", len(args)))
	}
	if update.ErrorMessage != nil {
		args = append(args, *update.ErrorMessage)
		sets = append(sets, fmt.Sprintf("error_message = $%d", len(args)))
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update task", slog.String("task_id", id.String()), slog.String("error", err.Error()))
		return fmt.Errorf("updating task: %w", MapError(err))
	}

	return checkRowsAffected(result, store.ErrTaskNotFound)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
