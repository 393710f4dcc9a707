package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/deppfellow/openwork/internal/config"
	"github.com/deppfellow/openwork/internal/errs"
	"github.com/deppfellow/openwork/internal/metrics"
	"github.com/deppfellow/openwork/internal/model"
	"github.com/deppfellow/openwork/internal/query"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestQueryResultsInvalidQuery(t *testing.T) {
	svc := NewQueryService(&fakeRunner{}, &fakeJournals{}, config.QueryConfig{MaxTimestamps: 2}, nil, nopLogger())

	_, err := svc.Results(context.Background(), query.Query{
		Filters: []query.Filter{{Field: "description", Operator: "=", Values: []string{"x"}}},
	}, false)

	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusBadRequest || httpErr.Code != "INVALID_QUERY" {
		t.Fatalf("expected INVALID_QUERY, got %v", err)
	}
	if len(httpErr.Errors) != 1 || httpErr.Errors[0].Field != "filters[0].operator" {
		t.Fatalf("unexpected field errors %+v", httpErr.Errors)
	}

	_, err = svc.Results(context.Background(), query.Query{
		Timestamps: []query.Timestamp{query.Now(), query.Now(), query.Now()},
	}, false)
	if !errors.As(err, &httpErr) || httpErr.Errors[0].Field != "timestamps" {
		t.Fatalf("expected a timestamp limit error, got %v", err)
	}
}

func TestQueryResultsLimitCap(t *testing.T) {
	runner := &fakeRunner{}
	svc := NewQueryService(runner, &fakeJournals{}, config.QueryConfig{DefaultPageSize: 100, MaxTimestamps: 5}, nil, nopLogger())

	_, err := svc.Results(context.Background(), query.Query{Limit: 50000}, false)
	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusBadRequest || httpErr.Errors[0].Field != "limit" {
		t.Fatalf("expected a limit error, got %v", err)
	}
	if runner.stmt.SQL != "" {
		t.Fatal("an oversized limit must not reach the database")
	}

	if _, err := svc.Results(context.Background(), query.Query{Limit: query.MaxLimit}, false); err != nil {
		t.Fatalf("Results at the cap: %v", err)
	}
}

func TestQueryResultsWithAttributes(t *testing.T) {
	now := time.Date(2022, 11, 1, 0, 0, 0, 0, time.UTC)
	current := model.WorkPackage{ID: 3, ProjectID: 7, Description: "This is the current description"}

	runner := &fakeRunner{results: []model.QueryResult{{WorkPackage: current, MatchesAt: []string{"P-1D"}}}}
	journals := &fakeJournals{historic: []model.HistoricWorkPackage{{
		WorkPackage: current.WithData(model.JournalData{ProjectID: 7, Description: "This is the original description"}),
	}}}
	m := metrics.New()

	svc := NewQueryService(runner, journals, config.QueryConfig{DefaultPageSize: 10, MaxTimestamps: 5}, m, nopLogger())
	svc.now = func() time.Time { return now }

	res, err := svc.Results(context.Background(), query.Query{
		Filters:    []query.Filter{{Field: "description", Operator: "~", Values: []string{"original"}}},
		Timestamps: []query.Timestamp{query.MustParseTimestamp("P-1D"), query.Now()},
	}, true)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}

	if res.Mode != "mixed" || res.Total != 1 || len(res.Timestamps) != 2 {
		t.Fatalf("unexpected response %+v", res)
	}
	if len(runner.stmt.Timestamps) != 2 {
		t.Fatalf("statement timestamps = %d", len(runner.stmt.Timestamps))
	}

	attrs := res.Results[0].AttributesByTimestamp
	if len(attrs) != 2 {
		t.Fatalf("expected attributes for both timestamps, got %+v", attrs)
	}
	if !attrs[0].MatchesFilters || attrs[0].Attributes.Description != "This is the original description" {
		t.Fatalf("unexpected historic attributes %+v", attrs[0])
	}
	if attrs[1].MatchesFilters || attrs[1].Attributes.Description != current.Description {
		t.Fatalf("unexpected current attributes %+v", attrs[1])
	}

	if got := testutil.ToFloat64(m.QueriesTotal.WithLabelValues("mixed", "success")); got != 1 {
		t.Fatalf("queries_total = %v", got)
	}
}

func TestQueryResultsEmpty(t *testing.T) {
	svc := NewQueryService(&fakeRunner{}, &fakeJournals{}, config.QueryConfig{}, nil, nopLogger())
	res, err := svc.Results(context.Background(), query.Query{}, true)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if res.Results == nil || res.Mode != "current" || res.Timestamps[0] != "PT0S" {
		t.Fatalf("unexpected response %+v", res)
	}
}
