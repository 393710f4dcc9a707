package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/openwork/internal/model"
	"github.com/deppfellow/openwork/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

const projectColumns = "id, identifier, name, created_at, updated_at"

func scanProject(row pgx.Row) (model.Project, error) {
	var p model.Project
	err := row.Scan(&p.ID, &p.Identifier, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *ProjectRepository) Create(ctx context.Context, identifier, name string) (*model.Project, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO projects (identifier, name) VALUES ($1, $2) RETURNING `+projectColumns,
		identifier, name,
	)
	p, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return &p, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "projects")
	}
	return &p, nil
}

func (r *ProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY identifier`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Project, error) {
		return scanProject(row)
	})
}

// EnabledStatusIDs returns the ids of the issue statuses enabled for the project.
func (r *ProjectRepository) EnabledStatusIDs(ctx context.Context, projectID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT issue_status_id FROM project_issue_statuses WHERE project_id = $1 ORDER BY issue_status_id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list project issue statuses: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// SetIssueStatuses replaces the enabled issue statuses of a project. Every
// id must exist; otherwise nothing changes and an issue_statuses not-found
// error is returned.
func (r *ProjectRepository) SetIssueStatuses(ctx context.Context, projectID int64, statusIDs []int64) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM projects WHERE id = $1 FOR UPDATE`, projectID).Scan(&locked)
		if err != nil {
			return notFound(err, "projects")
		}

		if len(statusIDs) > 0 {
			var known int
			err := tx.QueryRow(ctx,
				`SELECT count(*) FROM issue_statuses WHERE id = ANY($1)`,
				distinct(statusIDs),
			).Scan(&known)
			if err != nil {
				return fmt.Errorf("check issue statuses: %w", err)
			}
			if known != len(distinct(statusIDs)) {
				return sqlerr.NotFound("issue_statuses")
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM project_issue_statuses WHERE project_id = $1`, projectID); err != nil {
			return fmt.Errorf("clear project issue statuses: %w", err)
		}

		if len(statusIDs) > 0 {
			_, err := tx.Exec(ctx,
				`INSERT INTO project_issue_statuses (project_id, issue_status_id)
				SELECT $1, unnest($2::bigint[])`,
				projectID, distinct(statusIDs),
			)
			if err != nil {
				return fmt.Errorf("insert project issue statuses: %w", err)
			}
		}

		_, err = tx.Exec(ctx, `UPDATE projects SET updated_at = now() WHERE id = $1`, projectID)
		return err
	})
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
