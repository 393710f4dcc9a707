package handler

import (
	"github.com/deppfellow/openwork/internal/middleware"
	"github.com/deppfellow/openwork/internal/model"
	"github.com/deppfellow/openwork/internal/query"
	"github.com/deppfellow/openwork/internal/server"
	"github.com/deppfellow/openwork/internal/service"
	"github.com/deppfellow/openwork/internal/validation"
	"github.com/labstack/echo/v4"
)

type CreateWorkPackageRequest struct {
	ProjectID       int64   `param:"id" json:"-" validate:"required,gt=0"`
	Subject         string  `json:"subject" validate:"required,max=255"`
	Description     string  `json:"description"`
	StatusID        int64   `json:"statusId" validate:"min=0"`
	AssignedToEmail *string `json:"assignedToEmail" validate:"omitempty,email"`
	Notes           string  `json:"notes"`
}

func (r *CreateWorkPackageRequest) Validate() error {
	return validation.Struct(r)
}

type WorkPackageIDRequest struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
}

func (r *WorkPackageIDRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateWorkPackageRequest changes the given fields. LockVersion must be
// the version the client last read.
type UpdateWorkPackageRequest struct {
	ID              int64   `param:"id" json:"-" validate:"required,gt=0"`
	Subject         *string `json:"subject" validate:"omitempty,min=1,max=255"`
	Description     *string `json:"description"`
	StatusID        *int64  `json:"statusId" validate:"omitempty,gt=0"`
	AssignedToEmail *string `json:"assignedToEmail" validate:"omitempty,email,excluded_with=ClearAssignee"`
	ClearAssignee   bool    `json:"clearAssignee"`
	LockVersion     int     `json:"lockVersion" validate:"min=0"`
	Notes           string  `json:"notes"`
}

func (r *UpdateWorkPackageRequest) Validate() error {
	return validation.Struct(r)
}

func (r *UpdateWorkPackageRequest) Patch() model.WorkPackagePatch {
	return model.WorkPackagePatch{
		Subject:         r.Subject,
		Description:     r.Description,
		StatusID:        r.StatusID,
		AssignedToEmail: r.AssignedToEmail,
		ClearAssignee:   r.ClearAssignee,
		LockVersion:     r.LockVersion,
		Notes:           r.Notes,
	}
}

type JournalRequest struct {
	ID      int64 `param:"id" json:"-" validate:"required,gt=0"`
	Version int   `param:"version" json:"-" validate:"required,gt=0"`
}

func (r *JournalRequest) Validate() error {
	return validation.Struct(r)
}

type AtTimestampRequest struct {
	ID        int64  `param:"id" json:"-" validate:"required,gt=0"`
	Timestamp string `query:"timestamp" json:"-" validate:"required,timestamps"`
}

func (r *AtTimestampRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if _, err := query.ParseTimestamp(r.Timestamp); err != nil {
		return validation.CustomValidationErrors{{Field: "timestamp", Message: err.Error()}}
	}
	return nil
}

type WorkPackageHandler struct {
	Handler
	workPackages *service.WorkPackageService
}

func NewWorkPackageHandler(s *server.Server, workPackages *service.WorkPackageService) *WorkPackageHandler {
	return &WorkPackageHandler{Handler: NewHandler(s), workPackages: workPackages}
}

func (h *WorkPackageHandler) Create(c echo.Context, req *CreateWorkPackageRequest) (*model.WorkPackage, error) {
	return h.workPackages.Create(c.Request().Context(), req.ProjectID, service.CreateWorkPackageInput{
		Subject:         req.Subject,
		Description:     req.Description,
		StatusID:        req.StatusID,
		AssignedToEmail: req.AssignedToEmail,
		Notes:           req.Notes,
	}, middleware.GetUserID(c))
}

func (h *WorkPackageHandler) Get(c echo.Context, req *WorkPackageIDRequest) (*model.WorkPackage, error) {
	return h.workPackages.Get(c.Request().Context(), req.ID)
}

func (h *WorkPackageHandler) Update(c echo.Context, req *UpdateWorkPackageRequest) (*model.WorkPackage, error) {
	return h.workPackages.Update(c.Request().Context(), req.ID, req.Patch(), middleware.GetUserID(c))
}

func (h *WorkPackageHandler) Journals(c echo.Context, req *WorkPackageIDRequest) ([]model.Journal, error) {
	return h.workPackages.Journals(c.Request().Context(), req.ID)
}

func (h *WorkPackageHandler) Journal(c echo.Context, req *JournalRequest) (*model.Journal, error) {
	return h.workPackages.Journal(c.Request().Context(), req.ID, req.Version)
}

func (h *WorkPackageHandler) AtTimestamp(c echo.Context, req *AtTimestampRequest) (*model.HistoricWorkPackage, error) {
	ts, err := query.ParseTimestamp(req.Timestamp)
	if err != nil {
		return nil, err
	}
	return h.workPackages.AtTimestamp(c.Request().Context(), req.ID, ts)
}
