package handler

import (
	"reflect"
	"time"

	"github.com/deppfellow/openwork/internal/middleware"
	"github.com/deppfellow/openwork/internal/server"
	"github.com/deppfellow/openwork/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Handler is embedded by every concrete handler (ProjectHandler,
// WorkPackageHandler, ...) and gives it the server container: config,
// logger, database, redis, jobs and metrics.
type Handler struct {
	server *server.Server
}

// NewHandler returns the embeddable base by value; it only holds a pointer.
func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// --- Typed endpoints ---------------------------------------------------------

// HandlerFunc is a typed endpoint: it receives a bound and validated request
// and returns the response body or an error.
//
// Req is a pointer to a request struct, e.g. *CreateWorkPackageRequest, so
// echo can bind path, query and body into it.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// HandlerFuncNoContent is a typed endpoint whose success has no body, such as
// DELETE /work_packages/:id/file_links/:file_link_id.
type HandlerFuncNoContent[Req validation.Validatable] func(c echo.Context, req Req) error

// ResponseHandler writes a successful result and describes it for logs and
// New Relic.
type ResponseHandler interface {
	// Handle writes the HTTP response for result.
	Handle(c echo.Context, result any) error

	// GetOperation names the response kind in structured logs.
	GetOperation() string

	// AddAttributes adds response specific attributes to the transaction.
	// The status code is set by the tracing middleware.
	AddAttributes(txn *newrelic.Transaction, result any)
}

// JSONResponseHandler writes result as JSON with a fixed status.
type JSONResponseHandler struct {
	status int
}

func (h JSONResponseHandler) Handle(c echo.Context, result any) error {
	return c.JSON(h.status, result)
}

func (h JSONResponseHandler) GetOperation() string {
	return "handler"
}

func (h JSONResponseHandler) AddAttributes(*newrelic.Transaction, any) {}

// NoContentResponseHandler writes only a status, usually 204.
type NoContentResponseHandler struct {
	status int
}

func (h NoContentResponseHandler) Handle(c echo.Context, _ any) error {
	return c.NoContent(h.status)
}

func (h NoContentResponseHandler) GetOperation() string {
	return "handler_no_content"
}

func (h NoContentResponseHandler) AddAttributes(*newrelic.Transaction, any) {}

// FileResponseHandler sends a []byte result as an attachment. The workbook
// export is the main user.
type FileResponseHandler struct {
	status      int
	filename    string
	contentType string
}

func (h FileResponseHandler) Handle(c echo.Context, result any) error {
	data, _ := result.([]byte)

	// Quoted so names with spaces survive.
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+h.filename+`"`)
	return c.Blob(h.status, h.contentType, data)
}

func (h FileResponseHandler) GetOperation() string {
	return "handler_file"
}

func (h FileResponseHandler) AddAttributes(txn *newrelic.Transaction, result any) {
	if txn == nil {
		return
	}
	txn.AddAttribute("file.name", h.filename)
	txn.AddAttribute("file.content_type", h.contentType)
	if data, ok := result.([]byte); ok {
		txn.AddAttribute("file.size_bytes", len(data))
	}
}

// --- Shared pipeline ---------------------------------------------------------

// handleRequest is the pipeline behind Handle, HandleFile and HandleNoContent:
//
//   - bind path, query and body into req and validate it
//   - run the endpoint
//   - write the result through responseHandler
//
// Every phase is timed, logged with the request-scoped logger and reported to
// the New Relic transaction when one exists. Errors are returned untouched;
// the global error handler turns them into the JSON error shape.
func handleRequest[Req validation.Validatable](
	c echo.Context,
	req Req,
	handler func(c echo.Context, req Req) (any, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()
	route := c.Path()

	// Set by the nrecho middleware; nil when New Relic is disabled.
	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", route)
	}

	// The context logger already carries request_id, user_id and trace ids.
	logCtx := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("method", c.Request().Method).
		Str("route", route)
	if file, ok := responseHandler.(FileResponseHandler); ok {
		logCtx = logCtx.Str("filename", file.filename)
	}
	logger := logCtx.Logger()

	logger.Debug().Msg("handling request")

	// ---------------- Validation phase ----------------
	validationStart := time.Now()
	if err := validation.BindAndValidate(c, req); err != nil {
		validationDuration := time.Since(validationStart)
		logger.Warn().
			Err(err).
			Dur("validation_duration", validationDuration).
			Msg("request validation failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("validation.status", "failed")
			txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
		}
		return err
	}
	validationDuration := time.Since(validationStart)
	if txn != nil {
		txn.AddAttribute("validation.status", "success")
		txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
	}

	// ---------------- Handler phase ----------------
	handlerStart := time.Now()
	result, err := handler(c, req)
	handlerDuration := time.Since(handlerStart)

	if err != nil {
		logger.Error().
			Err(err).
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", time.Since(start)).
			Msg("handler execution failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("handler.status", "error")
			txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		}
		return err
	}

	if txn != nil {
		txn.AddAttribute("handler.status", "success")
		txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		responseHandler.AddAttributes(txn, result)
	}

	// ---------------- Response phase ----------------
	logger.Info().
		Dur("validation_duration", validationDuration).
		Dur("handler_duration", handlerDuration).
		Dur("total_duration", time.Since(start)).
		Msg("request completed")

	return responseHandler.Handle(c, result)
}

// --- Registration helpers ----------------------------------------------------

// Handle registers a JSON endpoint:
//
//	g.POST("/projects", handler.Handle(h.Handler, h.Create, http.StatusCreated, &CreateProjectRequest{}))
//
// req is a prototype; every request binds into a fresh copy of it.
func Handle[Req validation.Validatable, Res any](
	h Handler,
	handler HandlerFunc[Req, Res],
	status int,
	req Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, fresh(req), func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, JSONResponseHandler{status: status})
	}
}

// HandleFile registers an endpoint returning a file download:
//
//	g.POST("/queries/export", handler.HandleFile(h.Handler, h.Export, http.StatusOK, &QueryRequest{}, "work_packages.xlsx", service.ExportContentType))
func HandleFile[Req validation.Validatable](
	h Handler,
	handler HandlerFunc[Req, []byte],
	status int,
	req Req,
	filename string,
	contentType string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, fresh(req), func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, FileResponseHandler{status: status, filename: filename, contentType: contentType})
	}
}

// HandleNoContent registers an endpoint that answers with status only.
func HandleNoContent[Req validation.Validatable](
	h Handler,
	handler HandlerFuncNoContent[Req],
	status int,
	req Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, fresh(req), func(c echo.Context, req Req) (any, error) {
			return nil, handler(c, req)
		}, NoContentResponseHandler{status: status})
	}
}

// fresh returns a new zero value of the struct prototype points to, so
// concurrent requests never share a binding target.
func fresh[Req any](prototype Req) Req {
	t := reflect.TypeOf(prototype)
	if t == nil || t.Kind() != reflect.Pointer {
		return prototype
	}
	return reflect.New(t.Elem()).Interface().(Req)
}
