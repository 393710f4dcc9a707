package service

import (
	"context"
	"errors"
	"time"

	"github.com/deppfellow/openwork/internal/config"
	"github.com/deppfellow/openwork/internal/errs"
	"github.com/deppfellow/openwork/internal/metrics"
	"github.com/deppfellow/openwork/internal/model"
	"github.com/deppfellow/openwork/internal/query"
	"github.com/rs/zerolog"
)

type queryRunner interface {
	Results(ctx context.Context, stmt query.Statement) ([]model.QueryResult, int64, error)
}

type historicReader interface {
	AtTimestamp(ctx context.Context, t time.Time, ids []int64) ([]model.HistoricWorkPackage, error)
}

// QueryResponse is a page of query results.
type QueryResponse struct {
	Results    []model.QueryResult `json:"results"`
	Total      int64               `json:"total"`
	Timestamps []string            `json:"timestamps"`
	Mode       string              `json:"mode"`
}

type QueryService struct {
	runner   queryRunner
	journals historicReader
	cfg      config.QueryConfig
	metrics  *metrics.Metrics
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewQueryService(runner queryRunner, journals historicReader, cfg config.QueryConfig, m *metrics.Metrics, logger *zerolog.Logger) *QueryService {
	return &QueryService{
		runner:   runner,
		journals: journals,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Results runs q. With withAttributes, every result also carries its
// journaled state at each requested timestamp.
func (s *QueryService) Results(ctx context.Context, q query.Query, withAttributes bool) (*QueryResponse, error) {
	if err := q.Validate(s.cfg.MaxTimestamps); err != nil {
		return nil, invalidQuery(err)
	}

	now := s.now()
	mode := q.Mode(now)
	start := time.Now()

	stmt, err := query.Build(q, now, s.cfg.DefaultPageSize)
	if err != nil {
		return nil, invalidQuery(err)
	}

	results, total, err := s.runner.Results(ctx, stmt)
	s.record(q, now, mode, len(results), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("query", q.String()).
		Str("mode", mode).
		Int("results", len(results)).
		Int64("total", total).
		Dur("duration", time.Since(start)).
		Msg("work package query")

	if withAttributes {
		if err := s.attachAttributes(ctx, results, stmt.Timestamps, now); err != nil {
			return nil, err
		}
	}

	timestamps := make([]string, len(stmt.Timestamps))
	for i, ts := range stmt.Timestamps {
		timestamps[i] = ts.String()
	}

	return &QueryResponse{
		Results:    nonNil(results),
		Total:      total,
		Timestamps: timestamps,
		Mode:       mode,
	}, nil
}

func (s *QueryService) attachAttributes(ctx context.Context, results []model.QueryResult, timestamps []query.Timestamp, now time.Time) error {
	if len(results) == 0 {
		return nil
	}

	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}

	for _, ts := range timestamps {
		states := map[int64]model.JournalData{}
		if ts.IsCurrent(now) {
			for _, r := range results {
				states[r.ID] = r.JournalData()
			}
		} else {
			historic, err := s.journals.AtTimestamp(ctx, ts.At(now), ids)
			if err != nil {
				return err
			}
			for _, h := range historic {
				states[h.ID] = h.JournalData()
			}
		}

		for i := range results {
			attrs := model.TimestampAttributes{
				Timestamp:      ts.String(),
				MatchesFilters: contains(results[i].MatchesAt, ts.String()),
			}
			if data, ok := states[results[i].ID]; ok {
				attrs.Exists = true
				attrs.Attributes = &data
			}
			results[i].AttributesByTimestamp = append(results[i].AttributesByTimestamp, attrs)
		}
	}
	return nil
}

func (s *QueryService) record(q query.Query, now time.Time, mode string, results int, d time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	historic := 0
	for _, ts := range q.Timestamps {
		if !ts.IsCurrent(now) {
			historic++
		}
	}
	s.metrics.RecordQuery(mode, historic, results, d, err)
}

// invalidQuery maps a *query.FilterError onto a 400 with a field error.
func invalidQuery(err error) error {
	var fe *query.FilterError
	if !errors.As(err, &fe) {
		return err
	}
	return errs.NewBadRequestError(
		"Invalid query: "+fe.Error(),
		true,
		errs.Code("INVALID_QUERY"),
		[]errs.FieldError{{Field: fe.Field, Error: fe.Message}},
		nil,
	)
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
