package handler

import (
	"regexp"

	"github.com/deppfellow/openwork/internal/errs"
	"github.com/deppfellow/openwork/internal/model"
	"github.com/deppfellow/openwork/internal/server"
	"github.com/deppfellow/openwork/internal/service"
	"github.com/deppfellow/openwork/internal/validation"
	"github.com/labstack/echo/v4"
)

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

type CreateProjectRequest struct {
	Identifier string `json:"identifier" validate:"required,max=100"`
	Name       string `json:"name" validate:"required,max=255"`
}

func (r *CreateProjectRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if !identifierPattern.MatchString(r.Identifier) {
		return validation.CustomValidationErrors{{
			Field:   "identifier",
			Message: "must start with a lowercase letter and contain only lowercase letters, digits, dashes and underscores",
		}}
	}
	return nil
}

type ProjectIDRequest struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
}

func (r *ProjectIDRequest) Validate() error {
	return validation.Struct(r)
}

type ListProjectsRequest struct{}

func (r *ListProjectsRequest) Validate() error {
	return nil
}

// IssueStatusRef is one entry of the issue_statuses form list.
type IssueStatusRef struct {
	StatusID int64 `json:"status_id" validate:"required,gt=0"`
}

// UpdateIssueStatusesRequest replaces a project's enabled statuses. A
// missing or empty list disables all of them.
type UpdateIssueStatusesRequest struct {
	ID            int64            `param:"id" json:"-" validate:"required,gt=0"`
	IssueStatuses []IssueStatusRef `json:"issue_statuses" validate:"dive"`
}

func (r *UpdateIssueStatusesRequest) Validate() error {
	return validation.Struct(r)
}

func (r *UpdateIssueStatusesRequest) StatusIDs() []int64 {
	ids := make([]int64, 0, len(r.IssueStatuses))
	for _, s := range r.IssueStatuses {
		ids = append(ids, s.StatusID)
	}
	return ids
}

// UpdateIssueStatusesResponse tells the client where to go after saving.
type UpdateIssueStatusesResponse struct {
	Notice string       `json:"notice"`
	Action *errs.Action `json:"action"`
}

type ProjectHandler struct {
	Handler
	projects *service.ProjectService
}

func NewProjectHandler(s *server.Server, projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{Handler: NewHandler(s), projects: projects}
}

func (h *ProjectHandler) Create(c echo.Context, req *CreateProjectRequest) (*model.Project, error) {
	return h.projects.Create(c.Request().Context(), req.Identifier, req.Name)
}

func (h *ProjectHandler) Get(c echo.Context, req *ProjectIDRequest) (*model.Project, error) {
	return h.projects.Get(c.Request().Context(), req.ID)
}

func (h *ProjectHandler) List(c echo.Context, _ *ListProjectsRequest) ([]model.Project, error) {
	return h.projects.List(c.Request().Context())
}

func (h *ProjectHandler) Settings(c echo.Context, req *ProjectIDRequest) (*model.ProjectSettings, error) {
	return h.projects.Settings(c.Request().Context(), req.ID)
}

func (h *ProjectHandler) UpdateIssueStatuses(c echo.Context, req *UpdateIssueStatusesRequest) (*UpdateIssueStatusesResponse, error) {
	action, err := h.projects.UpdateIssueStatuses(c.Request().Context(), req.ID, req.StatusIDs())
	if err != nil {
		return nil, err
	}
	return &UpdateIssueStatusesResponse{Notice: action.Message, Action: action}, nil
}
