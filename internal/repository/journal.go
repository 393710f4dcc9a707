package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/openwork/internal/model"
	"github.com/deppfellow/openwork/internal/query"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JournalRepository struct {
	pool *pgxpool.Pool
}

func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{pool: pool}
}

// ListByWorkPackage returns the journals of a work package by ascending version.
func (r *JournalRepository) ListByWorkPackage(ctx context.Context, workPackageID int64) ([]model.Journal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+journalColumns+` FROM journals WHERE journable_id = $1 ORDER BY version`,
		workPackageID,
	)
	if err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Journal, error) {
		return scanJournal(row)
	})
}

func (r *JournalRepository) GetByVersion(ctx context.Context, workPackageID int64, version int) (*model.Journal, error) {
	j, err := scanJournal(r.pool.QueryRow(ctx,
		`SELECT `+journalColumns+` FROM journals WHERE journable_id = $1 AND version = $2`,
		workPackageID, version,
	))
	if err != nil {
		return nil, notFound(err, "journals")
	}
	return &j, nil
}

// AtTimestamp reconstructs the given work packages as they were at t.
// Work packages that did not exist at t are left out. Fields that are not
// journaled (author, lock version, timestamps) keep their current values.
func (r *JournalRepository) AtTimestamp(ctx context.Context, t time.Time, ids []int64) ([]model.HistoricWorkPackage, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT wp.id, wp.author_id, wp.lock_version, wp.created_at, wp.updated_at,
			s.version, s.project_id, s.subject, s.description, s.status_id, s.assigned_to_email
		FROM work_packages wp
		JOIN (`+query.AtTimestampSQL+`) s ON s.journable_id = wp.id
		ORDER BY wp.id`,
		t, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("work packages at timestamp: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.HistoricWorkPackage, error) {
		var (
			h    model.HistoricWorkPackage
			data model.JournalData
		)
		err := row.Scan(
			&h.ID, &h.AuthorID, &h.LockVersion, &h.CreatedAt, &h.UpdatedAt,
			&h.JournalVersion, &data.ProjectID, &data.Subject, &data.Description, &data.StatusID, &data.AssignedToEmail,
		)
		if err != nil {
			return h, err
		}
		h.WorkPackage = h.WorkPackage.WithData(data)
		h.Timestamp = t
		return h, nil
	})
}

// Backdate moves a journal to at. It bypasses the append-only rule and
// builds past history in fixtures; backdating version 1 also moves the work
// package's created_at.
func (r *JournalRepository) Backdate(ctx context.Context, workPackageID int64, version int, at time.Time) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE journals SET created_at = $3, updated_at = $3 WHERE journable_id = $1 AND version = $2`,
			workPackageID, version, at,
		)
		if err != nil {
			return fmt.Errorf("backdate journal: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return notFound(pgx.ErrNoRows, "journals")
		}

		if version == 1 {
			_, err = tx.Exec(ctx, `UPDATE work_packages SET created_at = $2 WHERE id = $1`, workPackageID, at)
		}
		return err
	})
}
