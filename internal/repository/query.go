package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/openwork/internal/model"
	"github.com/deppfellow/openwork/internal/query"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type QueryRepository struct {
	pool *pgxpool.Pool
}

func NewQueryRepository(pool *pgxpool.Pool) *QueryRepository {
	return &QueryRepository{pool: pool}
}

// Results runs a compiled query. Each result carries the timestamps it
// matched at, in the form they were requested. total is the number of
// matches before limit and offset.
func (r *QueryRepository) Results(ctx context.Context, stmt query.Statement) (results []model.QueryResult, total int64, err error) {
	rows, err := r.pool.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("run work package query: %w", err)
	}

	results, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.QueryResult, error) {
		var (
			res     model.QueryResult
			indexes []int32
		)
		dest := append(workPackageFields(&res.WorkPackage), &indexes, &total)
		if err := row.Scan(dest...); err != nil {
			return res, err
		}

		res.MatchesAt = make([]string, 0, len(indexes))
		for _, i := range indexes {
			if int(i) < len(stmt.Timestamps) {
				res.MatchesAt = append(res.MatchesAt, stmt.Timestamps[i].String())
			}
		}
		return res, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
