// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
// Not-found results are returned as sqlerr.NotFound(table) so the error
// handler can name the missing entity.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/openwork/internal/model"
	"github.com/deppfellow/openwork/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is implemented by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// inTx runs fn in a transaction, committing when it returns nil.
func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// Rollback after commit is a no-op.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const workPackageColumns = "id, project_id, subject, description, status_id, assigned_to_email, author_id, lock_version, created_at, updated_at"

func workPackageFields(wp *model.WorkPackage) []any {
	return []any{
		&wp.ID, &wp.ProjectID, &wp.Subject, &wp.Description, &wp.StatusID,
		&wp.AssignedToEmail, &wp.AuthorID, &wp.LockVersion, &wp.CreatedAt, &wp.UpdatedAt,
	}
}

func scanWorkPackage(row pgx.Row) (*model.WorkPackage, error) {
	var wp model.WorkPackage
	if err := row.Scan(workPackageFields(&wp)...); err != nil {
		return nil, err
	}
	return &wp, nil
}

const journalColumns = "id, journable_id, version, user_id, notes, project_id, subject, description, status_id, assigned_to_email, created_at, updated_at"

func scanJournal(row pgx.Row) (model.Journal, error) {
	var j model.Journal
	err := row.Scan(
		&j.ID, &j.JournableID, &j.Version, &j.UserID, &j.Notes,
		&j.Data.ProjectID, &j.Data.Subject, &j.Data.Description, &j.Data.StatusID, &j.Data.AssignedToEmail,
		&j.CreatedAt, &j.UpdatedAt,
	)
	return j, err
}

// notFound converts pgx.ErrNoRows into the table-tagged not-found error.
func notFound(err error, table string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sqlerr.NotFound(table)
	}
	return err
}
