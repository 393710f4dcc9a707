package handler

import (
	"github.com/deppfellow/openwork/internal/model"
	"github.com/deppfellow/openwork/internal/server"
	"github.com/deppfellow/openwork/internal/service"
	"github.com/deppfellow/openwork/internal/validation"
	"github.com/labstack/echo/v4"
)

type ListIssueStatusesRequest struct{}

func (r *ListIssueStatusesRequest) Validate() error {
	return nil
}

type CreateIssueStatusRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	Position  int    `json:"position" validate:"min=0"`
	IsClosed  bool   `json:"isClosed"`
	IsDefault bool   `json:"isDefault"`
}

func (r *CreateIssueStatusRequest) Validate() error {
	return validation.Struct(r)
}

type IssueStatusHandler struct {
	Handler
	statuses *service.IssueStatusService
}

func NewIssueStatusHandler(s *server.Server, statuses *service.IssueStatusService) *IssueStatusHandler {
	return &IssueStatusHandler{Handler: NewHandler(s), statuses: statuses}
}

func (h *IssueStatusHandler) List(c echo.Context, _ *ListIssueStatusesRequest) ([]model.IssueStatus, error) {
	return h.statuses.All(c.Request().Context())
}

func (h *IssueStatusHandler) Create(c echo.Context, req *CreateIssueStatusRequest) (*model.IssueStatus, error) {
	return h.statuses.Create(c.Request().Context(), model.IssueStatus{
		Name:      req.Name,
		Position:  req.Position,
		IsClosed:  req.IsClosed,
		IsDefault: req.IsDefault,
	})
}
