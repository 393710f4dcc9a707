package service

import (
	"context"

	"github.com/deppfellow/openwork/internal/model"
)

type storageStore interface {
	Create(ctx context.Context, s model.Storage) (*model.Storage, error)
	EnableForProject(ctx context.Context, projectID, storageID int64, creatorID string) (*model.ProjectStorage, error)
	CreateFileLink(ctx context.Context, fl model.FileLink) (*model.FileLink, error)
	ListFileLinks(ctx context.Context, workPackageID int64) ([]model.FileLink, error)
	DeleteFileLink(ctx context.Context, workPackageID, id int64) error
}

type workPackageGetter interface {
	GetByID(ctx context.Context, id int64) (*model.WorkPackage, error)
}

type StorageService struct {
	storages     storageStore
	projects     projectGetter
	workPackages workPackageGetter
}

func NewStorageService(storages storageStore, projects projectGetter, workPackages workPackageGetter) *StorageService {
	return &StorageService{storages: storages, projects: projects, workPackages: workPackages}
}

func (s *StorageService) Create(ctx context.Context, storage model.Storage) (*model.Storage, error) {
	return s.storages.Create(ctx, storage)
}

func (s *StorageService) EnableForProject(ctx context.Context, projectID, storageID int64, userID string) (*model.ProjectStorage, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.storages.EnableForProject(ctx, projectID, storageID, userID)
}

// CreateFileLink links a file to a work package. The link only counts in
// queries once its storage is enabled for the work package's project.
func (s *StorageService) CreateFileLink(ctx context.Context, fl model.FileLink) (*model.FileLink, error) {
	if _, err := s.workPackages.GetByID(ctx, fl.ContainerID); err != nil {
		return nil, err
	}
	return s.storages.CreateFileLink(ctx, fl)
}

func (s *StorageService) ListFileLinks(ctx context.Context, workPackageID int64) ([]model.FileLink, error) {
	if _, err := s.workPackages.GetByID(ctx, workPackageID); err != nil {
		return nil, err
	}
	links, err := s.storages.ListFileLinks(ctx, workPackageID)
	return nonNil(links), err
}

func (s *StorageService) DeleteFileLink(ctx context.Context, workPackageID, id int64) error {
	if _, err := s.workPackages.GetByID(ctx, workPackageID); err != nil {
		return err
	}
	return s.storages.DeleteFileLink(ctx, workPackageID, id)
}
