package service

import (
	"context"
	"time"

	"github.com/deppfellow/openwork/internal/lib/job"
	"github.com/deppfellow/openwork/internal/model"
	"github.com/deppfellow/openwork/internal/query"
	"github.com/deppfellow/openwork/internal/repository"
	"github.com/deppfellow/openwork/internal/sqlerr"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type fakeWorkPackages struct {
	wp        *model.WorkPackage
	update    *repository.UpdateResult
	updateErr error
	created   model.WorkPackage
}

func (f *fakeWorkPackages) Create(_ context.Context, wp model.WorkPackage, notes string) (*model.WorkPackage, *model.Journal, error) {
	f.created = wp
	wp.ID = 1
	return &wp, &model.Journal{Version: 1, Notes: notes, Data: wp.JournalData()}, nil
}

func (f *fakeWorkPackages) GetByID(_ context.Context, id int64) (*model.WorkPackage, error) {
	if f.wp == nil || f.wp.ID != id {
		return nil, sqlerr.NotFound("work_packages")
	}
	wp := *f.wp
	return &wp, nil
}

func (f *fakeWorkPackages) Update(context.Context, int64, model.WorkPackagePatch, string) (*repository.UpdateResult, error) {
	return f.update, f.updateErr
}

type fakeJournals struct {
	historic []model.HistoricWorkPackage
	at       []time.Time
}

func (f *fakeJournals) ListByWorkPackage(context.Context, int64) ([]model.Journal, error) {
	return nil, nil
}

func (f *fakeJournals) GetByVersion(context.Context, int64, int) (*model.Journal, error) {
	return nil, sqlerr.NotFound("journals")
}

func (f *fakeJournals) AtTimestamp(_ context.Context, t time.Time, ids []int64) ([]model.HistoricWorkPackage, error) {
	f.at = append(f.at, t)
	var out []model.HistoricWorkPackage
	for _, h := range f.historic {
		for _, id := range ids {
			if h.ID == id {
				out = append(out, h)
			}
		}
	}
	return out, nil
}

type fakeStatuses struct {
	statuses []model.IssueStatus
	calls    int
}

func (f *fakeStatuses) All(context.Context) ([]model.IssueStatus, error) {
	f.calls++
	return f.statuses, nil
}

func (f *fakeStatuses) Create(_ context.Context, s model.IssueStatus) (*model.IssueStatus, error) {
	s.ID = int64(len(f.statuses) + 1)
	f.statuses = append(f.statuses, s)
	return &s, nil
}

func (f *fakeStatuses) Default(context.Context) (*model.IssueStatus, error) {
	for _, s := range f.statuses {
		if s.IsDefault {
			return &s, nil
		}
	}
	return nil, sqlerr.NotFound("issue_statuses")
}

type fakeProjects struct {
	projects map[int64]model.Project
	enabled  map[int64][]int64
}

func (f *fakeProjects) Create(_ context.Context, identifier, name string) (*model.Project, error) {
	p := model.Project{ID: int64(len(f.projects) + 1), Identifier: identifier, Name: name}
	f.projects[p.ID] = p
	return &p, nil
}

func (f *fakeProjects) GetByID(_ context.Context, id int64) (*model.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, sqlerr.NotFound("projects")
	}
	return &p, nil
}

func (f *fakeProjects) List(context.Context) ([]model.Project, error) {
	var out []model.Project
	for _, p := range f.projects {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProjects) EnabledStatusIDs(_ context.Context, id int64) ([]int64, error) {
	return f.enabled[id], nil
}

func (f *fakeProjects) SetIssueStatuses(_ context.Context, id int64, ids []int64) error {
	if _, ok := f.projects[id]; !ok {
		return sqlerr.NotFound("projects")
	}
	f.enabled[id] = ids
	return nil
}

type fakeProjectStorages struct{}

func (fakeProjectStorages) ProjectStorageIDs(context.Context, int64) ([]int64, error) {
	return nil, nil
}

type fakeNotifier struct {
	payloads []job.WorkPackageUpdatedPayload
}

func (f *fakeNotifier) EnqueueWorkPackageUpdated(_ context.Context, p job.WorkPackageUpdatedPayload) error {
	f.payloads = append(f.payloads, p)
	return nil
}

type fakeEmails map[string]string

func (f fakeEmails) UserEmail(_ context.Context, userID string) (string, error) {
	return f[userID], nil
}

type fakeRunner struct {
	results []model.QueryResult
	stmt    query.Statement
}

func (f *fakeRunner) Results(_ context.Context, stmt query.Statement) ([]model.QueryResult, int64, error) {
	f.stmt = stmt
	return f.results, int64(len(f.results)), nil
}

// fakeRedis implements the cache commands the status service uses; any
// other command panics through the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable
	data map[string]string
	gets int
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.gets++
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
