package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/stickerforge/sticker-api/internal/domain"
	"github.com/stickerforge/sticker-api/internal/platform/logger"
	"github.com/stickerforge/sticker-api/internal/store"
)

// PostgresImageStore implements store.GeneratedImageStore using a
// PostgreSQL database. Effects and style are stored as jsonb columns so
// new toggles do not require a migration.
type PostgresImageStore struct {
	db store.DBTX
}

var _ store.GeneratedImageStore = (*PostgresImageStore)(nil)

// NewPostgresImageStore creates a new PostgresImageStore.
func NewPostgresImageStore(db store.DBTX) *PostgresImageStore {
	return &PostgresImageStore{db: db}
}

// CreateImage persists a generation record.
func (s *PostgresImageStore) CreateImage(ctx context.Context, img *domain.GeneratedImage) error {
	log := logger.FromContext(ctx)

	effects, err := json.Marshal(img.Effects)
	if err != nil {
		return fmt.Errorf("marshaling effects: %w", err)
	}
	style, err := json.Marshal(img.Style)
	if err != nil {
		return fmt.Errorf("marshaling style: %w", err)
	}

	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO generated_images (
			id, image_url, prompt, source_image_url, title, character_name,
			attribute, rarity, background_color, effects, style, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = s.db.ExecContext(ctx, query,
		img.ID,
		img.ImageURL,
		img.Prompt,
		nullString(img.SourceImageURL),
		img.Title,
		img.CharacterName,
		img.Attribute,
		string(img.Rarity),
		img.BackgroundColor,
		effects,
		style,
		img.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create generation record",
			slog.String("image_id", img.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("inserting generation record: %w", MapError(err))
	}

	return nil
}

// ListImages returns a page of generation records, newest first.
func (s *PostgresImageStore) ListImages(ctx context.Context, limit, offset int) ([]*domain.GeneratedImage, error) {
	query := `
		SELECT id, image_url, prompt, source_image_url, title, character_name,
		       attribute, rarity, background_color, effects, style, created_at
		FROM generated_images
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying generation records: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	images := make([]*domain.GeneratedImage, 0, limit)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating generation records: %w", err)
	}

	return images, nil
}

// CountImages returns the total number of generation records.
func (s *PostgresImageStore) CountImages(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generated_images`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting generation records: %w", MapError(err))
	}
	return count, nil
}

func scanImage(rows *sql.Rows) (*domain.GeneratedImage, error) {
	var (
		img       domain.GeneratedImage
		rarity    string
		sourceURL sql.NullString
		effects   []byte
		style     []byte
	)
	err := rows.Scan(
		&img.ID,
		&img.ImageURL,
		&img.Prompt,
		&sourceURL,
		&img.Title,
		&img.CharacterName,
		&img.Attribute,
		&rarity,
		&img.BackgroundColor,
		&effects,
		&style,
		&img.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning generation record: %w", err)
	}

	img.Rarity = domain.Rarity(rarity)
	if sourceURL.Valid {
		img.SourceImageURL = sourceURL.String
	}
	if err := json.Unmarshal(effects, &img.Effects); err != nil {
		return nil, fmt.Errorf("unmarshaling effects: %w", err)
	}
	if err := json.Unmarshal(style, &img.Style); err != nil {
		return nil, fmt.Errorf("unmarshaling style: %w", err)
	}

	return &img, nil
}
