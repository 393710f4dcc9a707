package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deppfellow/openwork/internal/config"
	"github.com/deppfellow/openwork/internal/errs"
	"github.com/deppfellow/openwork/internal/query"
	"github.com/deppfellow/openwork/internal/server"
	"github.com/labstack/echo/v4"
)

func testServer() *server.Server {
	return &server.Server{Config: &config.Config{
		Primary:       config.Primary{Env: "test"},
		Observability: config.DefaultObservabilityConfig(),
	}}
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorHandler(err error, c echo.Context) {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		_ = c.JSON(httpErr.Status, httpErr)
		return
	}
	_ = c.JSON(http.StatusInternalServerError, err.Error())
}

func TestHandleBindsFreshRequests(t *testing.T) {
	h := NewHandler(testServer())
	e := echo.New()
	e.HTTPErrorHandler = errorHandler

	e.PATCH("/work_packages/:id", Handle(h, func(c echo.Context, req *UpdateWorkPackageRequest) (*UpdateWorkPackageRequest, error) {
		return req, nil
	}, http.StatusOK, &UpdateWorkPackageRequest{}))

	rec := serve(e, http.MethodPatch, "/work_packages/4", `{"subject":"new","lockVersion":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	// The second request must not see the subject bound by the first.
	rec = serve(e, http.MethodPatch, "/work_packages/5", `{"lockVersion":3}`)
	var got UpdateWorkPackageRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Subject != nil || got.LockVersion != 3 {
		t.Fatalf("request state leaked between calls: %+v", got)
	}
}

func TestHandleValidationErrors(t *testing.T) {
	h := NewHandler(testServer())
	e := echo.New()
	e.HTTPErrorHandler = errorHandler

	called := false
	e.POST("/projects/:id/work_packages", Handle(h, func(c echo.Context, req *CreateWorkPackageRequest) (*CreateWorkPackageRequest, error) {
		called = true
		return req, nil
	}, http.StatusCreated, &CreateWorkPackageRequest{}))

	rec := serve(e, http.MethodPost, "/projects/3/work_packages", `{"assignedToEmail":"not-an-email"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if called {
		t.Fatal("handler must not run for an invalid request")
	}

	var body errs.HTTPError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	fields := map[string]string{}
	for _, fe := range body.Errors {
		fields[fe.Field] = fe.Error
	}
	if fields["subject"] != "is required" || fields["assignedToEmail"] != "must be a valid email address" {
		t.Fatalf("unexpected field errors %+v", body.Errors)
	}

	rec = serve(e, http.MethodPost, "/projects/3/work_packages", `{"subject":"ok"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
}

func TestHandleFile(t *testing.T) {
	h := NewHandler(testServer())
	e := echo.New()
	e.POST("/export", HandleFile(h, func(c echo.Context, req *QueryRequest) ([]byte, error) {
		return []byte("xlsx"), nil
	}, http.StatusOK, &QueryRequest{}, "work_packages.xlsx", "application/octet-stream"))

	rec := serve(e, http.MethodPost, "/export", `{}`)
	if rec.Code != http.StatusOK || rec.Body.String() != "xlsx" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); got != `attachment; filename="work_packages.xlsx"` {
		t.Fatalf("content disposition = %q", got)
	}
}

func TestUpdateIssueStatusesRequest(t *testing.T) {
	h := NewHandler(testServer())
	e := echo.New()
	e.HTTPErrorHandler = errorHandler

	var ids []int64
	e.PUT("/projects/:id/issue_statuses", HandleNoContent(h, func(c echo.Context, req *UpdateIssueStatusesRequest) error {
		ids = req.StatusIDs()
		return nil
	}, http.StatusNoContent, &UpdateIssueStatusesRequest{}))

	rec := serve(e, http.MethodPut, "/projects/2/issue_statuses", `{"issue_statuses":[{"status_id":1},{"status_id":3}]}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("unexpected ids %v", ids)
	}

	rec = serve(e, http.MethodPut, "/projects/2/issue_statuses", `{}`)
	if rec.Code != http.StatusNoContent || len(ids) != 0 {
		t.Fatalf("an empty body must clear the statuses, got %d %v", rec.Code, ids)
	}

	rec = serve(e, http.MethodPut, "/projects/2/issue_statuses", `{"issue_statuses":[{"status_id":0}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteFileLinkRequest(t *testing.T) {
	h := NewHandler(testServer())
	e := echo.New()
	e.HTTPErrorHandler = errorHandler

	var got FileLinkRequest
	e.DELETE("/work_packages/:id/file_links/:file_link_id", HandleNoContent(h, func(c echo.Context, req *FileLinkRequest) error {
		got = *req
		return nil
	}, http.StatusNoContent, &FileLinkRequest{}))

	rec := serve(e, http.MethodDelete, "/work_packages/4/file_links/9", "")
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body)
	}
	if got.WorkPackageID != 4 || got.ID != 9 {
		t.Fatalf("path params not bound: %+v", got)
	}

	rec = serve(e, http.MethodDelete, "/work_packages/4/file_links/0", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     interface{ Validate() error }
		wantErr bool
	}{
		{"project ok", &CreateProjectRequest{Identifier: "demo-project", Name: "Demo"}, false},
		{"project identifier", &CreateProjectRequest{Identifier: "Demo Project", Name: "Demo"}, true},
		{"timestamp ok", &AtTimestampRequest{ID: 1, Timestamp: "P-1D"}, false},
		{"timestamp missing", &AtTimestampRequest{ID: 1}, true},
		{"assignee conflict", &UpdateWorkPackageRequest{ID: 1, AssignedToEmail: strPtr("a@example.com"), ClearAssignee: true}, true},
		{"storage host", &CreateStorageRequest{Name: "cloud", Host: "not a url"}, true},
		{"storage ok", &CreateStorageRequest{Name: "cloud", Host: "https://cloud.example.com"}, false},
		{"query limit", &QueryRequest{Query: query.Query{Limit: 5000}}, true},
		{"query limit at cap", &QueryRequest{Query: query.Query{Limit: query.MaxLimit}}, false},
		{"query filter", &QueryRequest{Query: query.Query{Filters: []query.Filter{{Field: "priority", Operator: "="}}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHealthWithoutDependencies(t *testing.T) {
	e := echo.New()
	e.GET("/status", NewHealthHandler(testServer()).CheckHealth)

	rec := serve(e, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" || body.Environment != "test" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestServeOpenAPIUI(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "openapi.html"), []byte("<html>docs</html>"), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewOpenAPIHandler(testServer())
	h.dir = dir

	e := echo.New()
	e.GET("/docs", h.ServeOpenAPIUI)

	rec := serve(e, http.MethodGet, "/docs", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "docs") {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body)
	}
	if rec.Header().Get("Cache-Control") != "no-cache" {
		t.Fatal("docs must not be cached")
	}
}

func strPtr(s string) *string { return &s }
