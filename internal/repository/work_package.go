package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/openwork/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStaleWorkPackage is returned by Update when the lock version given by
// the caller is not the stored one.
var ErrStaleWorkPackage = errors.New("work package was modified concurrently")

type WorkPackageRepository struct {
	pool *pgxpool.Pool
}

func NewWorkPackageRepository(pool *pgxpool.Pool) *WorkPackageRepository {
	return &WorkPackageRepository{pool: pool}
}

// UpdateResult describes a committed update. Journal is nil when no
// journaled field changed and no notes were given.
type UpdateResult struct {
	Previous    model.WorkPackage
	WorkPackage *model.WorkPackage
	Journal     *model.Journal
}

// Create inserts the work package together with its first journal. A zero
// CreatedAt means now; seeding passes a past time to create history.
func (r *WorkPackageRepository) Create(ctx context.Context, wp model.WorkPackage, notes string) (*model.WorkPackage, *model.Journal, error) {
	if wp.CreatedAt.IsZero() {
		wp.CreatedAt = time.Now().UTC()
	}

	var (
		created *model.WorkPackage
		journal model.Journal
	)
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO work_packages (project_id, subject, description, status_id, assigned_to_email, author_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			RETURNING `+workPackageColumns,
			wp.ProjectID, wp.Subject, wp.Description, wp.StatusID, wp.AssignedToEmail, wp.AuthorID, wp.CreatedAt,
		)
		var err error
		if created, err = scanWorkPackage(row); err != nil {
			return err
		}

		journal, err = insertJournal(ctx, tx, created.ID, 1, wp.AuthorID, notes, created.JournalData(), created.CreatedAt)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return created, &journal, nil
}

func (r *WorkPackageRepository) GetByID(ctx context.Context, id int64) (*model.WorkPackage, error) {
	wp, err := scanWorkPackage(r.pool.QueryRow(ctx, `SELECT `+workPackageColumns+` FROM work_packages WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "work_packages")
	}
	return wp, nil
}

// Update applies patch under a row lock. The next journal version is
// derived while the lock is held, so concurrent updates cannot produce
// duplicate versions.
func (r *WorkPackageRepository) Update(ctx context.Context, id int64, patch model.WorkPackagePatch, userID string) (*UpdateResult, error) {
	var result UpdateResult
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanWorkPackage(tx.QueryRow(ctx,
			`SELECT `+workPackageColumns+` FROM work_packages WHERE id = $1 FOR UPDATE`, id,
		))
		if err != nil {
			return notFound(err, "work_packages")
		}
		if current.LockVersion != patch.LockVersion {
			return ErrStaleWorkPackage
		}

		next := patch.Apply(*current)
		changed := !current.JournalData().Equal(next.JournalData())

		updated, err := scanWorkPackage(tx.QueryRow(ctx,
			`UPDATE work_packages
			SET subject = $2, description = $3, status_id = $4, assigned_to_email = $5,
				lock_version = lock_version + 1, updated_at = now()
			WHERE id = $1
			RETURNING `+workPackageColumns,
			id, next.Subject, next.Description, next.StatusID, next.AssignedToEmail,
		))
		if err != nil {
			return err
		}

		result.Previous = *current
		result.WorkPackage = updated

		if !changed && patch.Notes == "" {
			return nil
		}

		var version int
		err = tx.QueryRow(ctx,
			`SELECT COALESCE(max(version), 0) + 1 FROM journals WHERE journable_id = $1`, id,
		).Scan(&version)
		if err != nil {
			return fmt.Errorf("next journal version: %w", err)
		}

		journal, err := insertJournal(ctx, tx, id, version, userID, patch.Notes, updated.JournalData(), updated.UpdatedAt)
		if err != nil {
			return err
		}
		result.Journal = &journal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func insertJournal(ctx context.Context, q querier, journableID int64, version int, userID, notes string, data model.JournalData, at time.Time) (model.Journal, error) {
	row := q.QueryRow(ctx,
		`INSERT INTO journals (journable_id, version, user_id, notes, project_id, subject, description, status_id, assigned_to_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING `+journalColumns,
		journableID, version, userID, notes,
		data.ProjectID, data.Subject, data.Description, data.StatusID, data.AssignedToEmail,
		at,
	)
	j, err := scanJournal(row)
	if err != nil {
		return model.Journal{}, fmt.Errorf("insert journal: %w", err)
	}
	return j, nil
}
