package handler

import (
	"github.com/deppfellow/openwork/internal/middleware"
	"github.com/deppfellow/openwork/internal/model"
	"github.com/deppfellow/openwork/internal/server"
	"github.com/deppfellow/openwork/internal/service"
	"github.com/deppfellow/openwork/internal/validation"
	"github.com/labstack/echo/v4"
)

type CreateStorageRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Host string `json:"host" validate:"required,url"`
}

func (r *CreateStorageRequest) Validate() error {
	return validation.Struct(r)
}

type EnableStorageRequest struct {
	ProjectID int64 `param:"id" json:"-" validate:"required,gt=0"`
	StorageID int64 `json:"storageId" validate:"required,gt=0"`
}

func (r *EnableStorageRequest) Validate() error {
	return validation.Struct(r)
}

type CreateFileLinkRequest struct {
	WorkPackageID int64  `param:"id" json:"-" validate:"required,gt=0"`
	StorageID     int64  `json:"storageId" validate:"required,gt=0"`
	OriginID      string `json:"originId" validate:"required,max=255"`
	OriginName    string `json:"originName" validate:"max=255"`
}

func (r *CreateFileLinkRequest) Validate() error {
	return validation.Struct(r)
}

type FileLinkRequest struct {
	WorkPackageID int64 `param:"id" json:"-" validate:"required,gt=0"`
	ID            int64 `param:"file_link_id" json:"-" validate:"required,gt=0"`
}

func (r *FileLinkRequest) Validate() error {
	return validation.Struct(r)
}

type StorageHandler struct {
	Handler
	storages *service.StorageService
}

func NewStorageHandler(s *server.Server, storages *service.StorageService) *StorageHandler {
	return &StorageHandler{Handler: NewHandler(s), storages: storages}
}

func (h *StorageHandler) Create(c echo.Context, req *CreateStorageRequest) (*model.Storage, error) {
	return h.storages.Create(c.Request().Context(), model.Storage{
		Name:      req.Name,
		Host:      req.Host,
		CreatorID: middleware.GetUserID(c),
	})
}

func (h *StorageHandler) EnableForProject(c echo.Context, req *EnableStorageRequest) (*model.ProjectStorage, error) {
	return h.storages.EnableForProject(c.Request().Context(), req.ProjectID, req.StorageID, middleware.GetUserID(c))
}

func (h *StorageHandler) CreateFileLink(c echo.Context, req *CreateFileLinkRequest) (*model.FileLink, error) {
	return h.storages.CreateFileLink(c.Request().Context(), model.FileLink{
		StorageID:   req.StorageID,
		ContainerID: req.WorkPackageID,
		OriginID:    req.OriginID,
		OriginName:  req.OriginName,
		CreatorID:   middleware.GetUserID(c),
	})
}

func (h *StorageHandler) ListFileLinks(c echo.Context, req *WorkPackageIDRequest) ([]model.FileLink, error) {
	return h.storages.ListFileLinks(c.Request().Context(), req.ID)
}

func (h *StorageHandler) DeleteFileLink(c echo.Context, req *FileLinkRequest) error {
	return h.storages.DeleteFileLink(c.Request().Context(), req.WorkPackageID, req.ID)
}
