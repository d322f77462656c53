package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/0xSandiem/peek-api/internal/models"
)

var ErrAssetNotFound = errors.New("image asset not found")

type AssetRepository struct {
	pool *pgxpool.Pool
}

func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

func (r *AssetRepository) Create(ctx context.Context, asset models.ImageAsset) error {
	const query = `
		INSERT INTO image_assets (
			id, original_key, annotated_key, format, content_type, size_bytes,
			checksum, width, height, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		asset.ID,
		asset.OriginalKey,
		asset.AnnotatedKey,
		asset.Format,
		asset.ContentType,
		asset.SizeBytes,
		asset.Checksum,
		asset.Width,
		asset.Height,
	)
	return err
}

func (r *AssetRepository) GetByID(ctx context.Context, id string) (models.ImageAsset, error) {
	const query = `
		SELECT id, original_key, annotated_key, format, content_type, size_bytes,
		       checksum, width, height, created_at
		FROM image_assets WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var asset models.ImageAsset
	if err := row.Scan(
		&asset.ID,
		&asset.OriginalKey,
		&asset.AnnotatedKey,
		&asset.Format,
		&asset.ContentType,
		&asset.SizeBytes,
		&asset.Checksum,
		&asset.Width,
		&asset.Height,
		&asset.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ImageAsset{}, ErrAssetNotFound
		}
		return models.ImageAsset{}, err
	}
	return asset, nil
}

// SetAnnotatedKey records the derived artifact's key. The key is write-once;
// a second render of the same asset is a no-op.
func (r *AssetRepository) SetAnnotatedKey(ctx context.Context, id, key string) error {
	const query = `
		UPDATE image_assets
		SET annotated_key = $2
		WHERE id = $1 AND annotated_key IS NULL
	`
	_, err := r.pool.Exec(ctx, query, id, key)
	return err
}
