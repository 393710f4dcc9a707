package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/openwork/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IssueStatusRepository struct {
	pool *pgxpool.Pool
}

func NewIssueStatusRepository(pool *pgxpool.Pool) *IssueStatusRepository {
	return &IssueStatusRepository{pool: pool}
}

const issueStatusColumns = "id, name, position, is_closed, is_default"

func scanIssueStatus(row pgx.Row) (model.IssueStatus, error) {
	var s model.IssueStatus
	err := row.Scan(&s.ID, &s.Name, &s.Position, &s.IsClosed, &s.IsDefault)
	return s, err
}

// All returns every issue status ordered by position.
func (r *IssueStatusRepository) All(ctx context.Context) ([]model.IssueStatus, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+issueStatusColumns+` FROM issue_statuses ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list issue statuses: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.IssueStatus, error) {
		return scanIssueStatus(row)
	})
}

func (r *IssueStatusRepository) GetByID(ctx context.Context, id int64) (*model.IssueStatus, error) {
	s, err := scanIssueStatus(r.pool.QueryRow(ctx, `SELECT `+issueStatusColumns+` FROM issue_statuses WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "issue_statuses")
	}
	return &s, nil
}

// Default returns the status new work packages start in.
func (r *IssueStatusRepository) Default(ctx context.Context) (*model.IssueStatus, error) {
	s, err := scanIssueStatus(r.pool.QueryRow(ctx,
		`SELECT `+issueStatusColumns+` FROM issue_statuses ORDER BY is_default DESC, position, id LIMIT 1`,
	))
	if err != nil {
		return nil, notFound(err, "issue_statuses")
	}
	return &s, nil
}

// Create inserts a status. A new default status demotes the previous one.
// A zero position appends the status at the end.
func (r *IssueStatusRepository) Create(ctx context.Context, status model.IssueStatus) (*model.IssueStatus, error) {
	var created model.IssueStatus
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if status.IsDefault {
			if _, err := tx.Exec(ctx, `UPDATE issue_statuses SET is_default = false WHERE is_default`); err != nil {
				return fmt.Errorf("reset default issue status: %w", err)
			}
		}

		row := tx.QueryRow(ctx,
			`INSERT INTO issue_statuses (name, position, is_closed, is_default)
			VALUES ($1, CASE WHEN $2 > 0 THEN $2 ELSE (SELECT COALESCE(max(position), 0) + 1 FROM issue_statuses) END, $3, $4)
			RETURNING `+issueStatusColumns,
			status.Name, status.Position, status.IsClosed, status.IsDefault,
		)
		var err error
		created, err = scanIssueStatus(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}
