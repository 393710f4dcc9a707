package service

import (
	"github.com/deppfellow/openwork/internal/lib/job"
	"github.com/deppfellow/openwork/internal/repository"
	"github.com/deppfellow/openwork/internal/server"
)

type Services struct {
	Auth        *AuthService
	Job         *job.JobService
	Project     *ProjectService
	IssueStatus *IssueStatusService
	WorkPackage *WorkPackageService
	Query       *QueryService
	Export      *ExportService
	Storage     *StorageService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	authService := NewAuthService(s)

	issueStatuses := NewIssueStatusService(repos.IssueStatus, s.Redis, s.Config.Query.StatusCacheTTL, s.Metrics, s.Logger)
	queries := NewQueryService(repos.Query, repos.Journal, s.Config.Query, s.Metrics, s.Logger)

	return &Services{
		Job:         s.Job,
		Auth:        authService,
		Project:     NewProjectService(repos.Project, repos.Storage, issueStatuses),
		IssueStatus: issueStatuses,
		WorkPackage: NewWorkPackageService(WorkPackageServiceDeps{
			WorkPackages: repos.WorkPackage,
			Journals:     repos.Journal,
			Statuses:     repos.IssueStatus,
			Projects:     repos.Project,
			Notifier:     s.Job,
			Emails:       authService,
			Metrics:      s.Metrics,
			Logger:       s.Logger,
		}),
		Query:   queries,
		Export:  NewExportService(queries, repos.Project, issueStatuses),
		Storage: NewStorageService(repos.Storage, repos.Project, repos.WorkPackage),
	}, nil
}
