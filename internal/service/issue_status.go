package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/deppfellow/openwork/internal/metrics"
	"github.com/deppfellow/openwork/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// IssueStatusesCacheKey holds the JSON encoded list of all statuses.
const IssueStatusesCacheKey = "issue_statuses:all"

type issueStatusStore interface {
	All(ctx context.Context) ([]model.IssueStatus, error)
	Create(ctx context.Context, status model.IssueStatus) (*model.IssueStatus, error)
}

// IssueStatusService reads statuses through a Redis cache. Cache failures
// are logged and the database answers instead.
type IssueStatusService struct {
	statuses issueStatusStore
	redis    redis.Cmdable
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *zerolog.Logger
}

func NewIssueStatusService(statuses issueStatusStore, rdb redis.Cmdable, ttl time.Duration, m *metrics.Metrics, logger *zerolog.Logger) *IssueStatusService {
	return &IssueStatusService{
		statuses: statuses,
		redis:    rdb,
		ttl:      ttl,
		metrics:  m,
		logger:   logger,
	}
}

func (s *IssueStatusService) All(ctx context.Context) ([]model.IssueStatus, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, IssueStatusesCacheKey).Bytes()
		switch {
		case err == nil:
			var statuses []model.IssueStatus
			if jsonErr := json.Unmarshal(cached, &statuses); jsonErr == nil {
				s.recordCache(true)
				return statuses, nil
			}
			s.logger.Warn().Str("key", IssueStatusesCacheKey).Msg("discarding undecodable cache entry")
		case !errors.Is(err, redis.Nil):
			s.logger.Warn().Err(err).Msg("issue status cache unavailable")
		}
	}
	s.recordCache(false)

	statuses, err := s.statuses.All(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if payload, err := json.Marshal(statuses); err == nil {
			if err := s.redis.Set(ctx, IssueStatusesCacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache issue statuses")
			}
		}
	}
	return statuses, nil
}

// Create adds a status and drops the cached list.
func (s *IssueStatusService) Create(ctx context.Context, status model.IssueStatus) (*model.IssueStatus, error) {
	created, err := s.statuses.Create(ctx, status)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *IssueStatusService) invalidate(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, IssueStatusesCacheKey).Err(); err != nil {
		s.logger.Error().Err(err).Msg("failed to invalidate issue status cache")
	}
}

func (s *IssueStatusService) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCache("issue_statuses", hit)
	}
}
