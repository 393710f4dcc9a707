package service

import (
	"context"
	"fmt"

	"github.com/deppfellow/openwork/internal/errs"
	"github.com/deppfellow/openwork/internal/model"
)

const (
	// NoticeSuccessfulUpdate is shown after saving project settings.
	NoticeSuccessfulUpdate = "Successful update."

	// IssueStatusesTab is the settings tab listing the project's statuses.
	IssueStatusesTab = "project_issue_statuses"
)

type projectStore interface {
	Create(ctx context.Context, identifier, name string) (*model.Project, error)
	GetByID(ctx context.Context, id int64) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	EnabledStatusIDs(ctx context.Context, projectID int64) ([]int64, error)
	SetIssueStatuses(ctx context.Context, projectID int64, statusIDs []int64) error
}

type projectStorageLister interface {
	ProjectStorageIDs(ctx context.Context, projectID int64) ([]int64, error)
}

type ProjectService struct {
	projects projectStore
	storages projectStorageLister
	statuses *IssueStatusService
}

func NewProjectService(projects projectStore, storages projectStorageLister, statuses *IssueStatusService) *ProjectService {
	return &ProjectService{projects: projects, storages: storages, statuses: statuses}
}

func (s *ProjectService) Create(ctx context.Context, identifier, name string) (*model.Project, error) {
	return s.projects.Create(ctx, identifier, name)
}

func (s *ProjectService) Get(ctx context.Context, id int64) (*model.Project, error) {
	return s.projects.GetByID(ctx, id)
}

func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	return s.projects.List(ctx)
}

// Settings returns the project with every known issue status and the ones
// enabled for it.
func (s *ProjectService) Settings(ctx context.Context, id int64) (*model.ProjectSettings, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	statuses, err := s.statuses.All(ctx)
	if err != nil {
		return nil, err
	}

	enabled, err := s.projects.EnabledStatusIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	storages, err := s.storages.ProjectStorageIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.ProjectSettings{
		Project:           *project,
		IssueStatuses:     statuses,
		EnabledStatusIDs:  nonNil(enabled),
		ProjectStorageIDs: nonNil(storages),
	}, nil
}

// UpdateIssueStatuses replaces the enabled statuses. An empty list disables
// all of them. On success the caller is sent back to the statuses tab.
func (s *ProjectService) UpdateIssueStatuses(ctx context.Context, id int64, statusIDs []int64) (*errs.Action, error) {
	if err := s.projects.SetIssueStatuses(ctx, id, statusIDs); err != nil {
		return nil, err
	}

	return &errs.Action{
		Type:    errs.ActionTypeRedirect,
		Message: NoticeSuccessfulUpdate,
		Value:   SettingsURL(id, IssueStatusesTab),
	}, nil
}

// SettingsURL is the settings page of a project, opened on tab.
func SettingsURL(projectID int64, tab string) string {
	return fmt.Sprintf("/projects/%d/settings?tab=%s", projectID, tab)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
