package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"postpilot/internal/domain"
)

// AssetRepositoryPG implements domain.AssetRepository on PostgreSQL.
type AssetRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAssetRepository creates a new asset repository backed by PostgreSQL.
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepositoryPG {
	return &AssetRepositoryPG{pool: pool}
}

// Save inserts a media asset record.
func (r *AssetRepositoryPG) Save(ctx context.Context, asset *domain.MediaAsset) error {
	query := `
INSERT INTO media_assets (id, job_id, kind, storage_key, mime, width, height, duration_sec, bytes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := r.pool.Exec(ctx, query,
		asset.ID,
		asset.JobID,
		asset.Kind,
		asset.StorageKey,
		asset.MIME,
		asset.Width,
		asset.Height,
		asset.DurationSec,
		asset.Bytes,
	)
	return err
}

// ListByJobID returns the assets produced by a job, oldest first.
func (r *AssetRepositoryPG) ListByJobID(ctx context.Context, jobID string) ([]domain.MediaAsset, error) {
	query := `
SELECT id, job_id, kind, storage_key, mime, width, height, duration_sec, bytes, created_at
FROM media_assets
WHERE job_id = $1
ORDER BY created_at ASC;
`
	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.MediaAsset
	for rows.Next() {
		var a domain.MediaAsset
		if err := rows.Scan(&a.ID, &a.JobID, &a.Kind, &a.StorageKey, &a.MIME, &a.Width, &a.Height, &a.DurationSec, &a.Bytes, &a.CreatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

var _ domain.AssetRepository = (*AssetRepositoryPG)(nil)
