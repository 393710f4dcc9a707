package handler

import (
	"errors"

	"github.com/deppfellow/openwork/internal/query"
	"github.com/deppfellow/openwork/internal/server"
	"github.com/deppfellow/openwork/internal/service"
	"github.com/deppfellow/openwork/internal/validation"
	"github.com/labstack/echo/v4"
)

// QueryRequest is a query.Query body. WithAttributes adds each result's
// state at every requested timestamp.
type QueryRequest struct {
	query.Query
	WithAttributes bool `json:"withAttributes"`
}

// Validate checks the query shape. The timestamp count depends on
// configuration and is checked by the query service.
func (r *QueryRequest) Validate() error {
	err := r.Query.Validate(0)
	var fe *query.FilterError
	if errors.As(err, &fe) {
		return validation.CustomValidationErrors{{Field: fe.Field, Message: fe.Message}}
	}
	return err
}

type QueryHandler struct {
	Handler
	queries *service.QueryService
	exports *service.ExportService
}

func NewQueryHandler(s *server.Server, queries *service.QueryService, exports *service.ExportService) *QueryHandler {
	return &QueryHandler{Handler: NewHandler(s), queries: queries, exports: exports}
}

func (h *QueryHandler) Results(c echo.Context, req *QueryRequest) (*service.QueryResponse, error) {
	return h.queries.Results(c.Request().Context(), req.Query, req.WithAttributes)
}

func (h *QueryHandler) Export(c echo.Context, req *QueryRequest) ([]byte, error) {
	return h.exports.Export(c.Request().Context(), req.Query)
}
