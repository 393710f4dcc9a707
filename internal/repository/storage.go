package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/openwork/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StorageRepository struct {
	pool *pgxpool.Pool
}

func NewStorageRepository(pool *pgxpool.Pool) *StorageRepository {
	return &StorageRepository{pool: pool}
}

func (r *StorageRepository) Create(ctx context.Context, s model.Storage) (*model.Storage, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO storages (name, host, creator_id) VALUES ($1, $2, $3)
		RETURNING id, name, host, creator_id, created_at`,
		s.Name, s.Host, s.CreatorID,
	).Scan(&s.ID, &s.Name, &s.Host, &s.CreatorID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// EnableForProject adds the storage to the project.
func (r *StorageRepository) EnableForProject(ctx context.Context, projectID, storageID int64, creatorID string) (*model.ProjectStorage, error) {
	var ps model.ProjectStorage
	err := r.pool.QueryRow(ctx,
		`INSERT INTO project_storages (project_id, storage_id, creator_id) VALUES ($1, $2, $3)
		RETURNING id, project_id, storage_id, creator_id, created_at`,
		projectID, storageID, creatorID,
	).Scan(&ps.ID, &ps.ProjectID, &ps.StorageID, &ps.CreatorID, &ps.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ps, nil
}

// ProjectStorageIDs returns the storages enabled for the project.
func (r *StorageRepository) ProjectStorageIDs(ctx context.Context, projectID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT storage_id FROM project_storages WHERE project_id = $1 ORDER BY storage_id`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list project storages: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

const fileLinkColumns = "id, storage_id, container_id, origin_id, origin_name, creator_id, created_at"

func scanFileLink(row pgx.Row) (model.FileLink, error) {
	var fl model.FileLink
	err := row.Scan(&fl.ID, &fl.StorageID, &fl.ContainerID, &fl.OriginID, &fl.OriginName, &fl.CreatorID, &fl.CreatedAt)
	return fl, err
}

func (r *StorageRepository) CreateFileLink(ctx context.Context, fl model.FileLink) (*model.FileLink, error) {
	created, err := scanFileLink(r.pool.QueryRow(ctx,
		`INSERT INTO file_links (storage_id, container_id, origin_id, origin_name, creator_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+fileLinkColumns,
		fl.StorageID, fl.ContainerID, fl.OriginID, fl.OriginName, fl.CreatorID,
	))
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *StorageRepository) ListFileLinks(ctx context.Context, workPackageID int64) ([]model.FileLink, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+fileLinkColumns+` FROM file_links WHERE container_id = $1 ORDER BY id`, workPackageID,
	)
	if err != nil {
		return nil, fmt.Errorf("list file links: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.FileLink, error) {
		return scanFileLink(row)
	})
}

// DeleteFileLink removes the link id of the given work package.
func (r *StorageRepository) DeleteFileLink(ctx context.Context, workPackageID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM file_links WHERE id = $1 AND container_id = $2`, id, workPackageID)
	if err != nil {
		return fmt.Errorf("delete file link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "file_links")
	}
	return nil
}
