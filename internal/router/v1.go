package router

import (
	"net/http"

	"github.com/deppfellow/openwork/internal/handler"
	"github.com/deppfellow/openwork/internal/service"
	"github.com/labstack/echo/v4"
)

func registerV1Routes(g *echo.Group, h *handler.Handlers) {
	projects := g.Group("/projects")
	projects.GET("", handler.Handle(h.Project.Handler, h.Project.List, http.StatusOK, &handler.ListProjectsRequest{}))
	projects.POST("", handler.Handle(h.Project.Handler, h.Project.Create, http.StatusCreated, &handler.CreateProjectRequest{}))
	projects.GET("/:id", handler.Handle(h.Project.Handler, h.Project.Get, http.StatusOK, &handler.ProjectIDRequest{}))
	projects.GET("/:id/settings", handler.Handle(h.Project.Handler, h.Project.Settings, http.StatusOK, &handler.ProjectIDRequest{}))
	projects.PUT("/:id/issue_statuses", handler.Handle(h.Project.Handler, h.Project.UpdateIssueStatuses, http.StatusOK, &handler.UpdateIssueStatusesRequest{}))
	projects.POST("/:id/work_packages", handler.Handle(h.WorkPackage.Handler, h.WorkPackage.Create, http.StatusCreated, &handler.CreateWorkPackageRequest{}))
	projects.POST("/:id/storages", handler.Handle(h.Storage.Handler, h.Storage.EnableForProject, http.StatusCreated, &handler.EnableStorageRequest{}))

	statuses := g.Group("/issue_statuses")
	statuses.GET("", handler.Handle(h.IssueStatus.Handler, h.IssueStatus.List, http.StatusOK, &handler.ListIssueStatusesRequest{}))
	statuses.POST("", handler.Handle(h.IssueStatus.Handler, h.IssueStatus.Create, http.StatusCreated, &handler.CreateIssueStatusRequest{}))

	workPackages := g.Group("/work_packages")
	workPackages.GET("/:id", handler.Handle(h.WorkPackage.Handler, h.WorkPackage.Get, http.StatusOK, &handler.WorkPackageIDRequest{}))
	workPackages.PATCH("/:id", handler.Handle(h.WorkPackage.Handler, h.WorkPackage.Update, http.StatusOK, &handler.UpdateWorkPackageRequest{}))
	workPackages.GET("/:id/journals", handler.Handle(h.WorkPackage.Handler, h.WorkPackage.Journals, http.StatusOK, &handler.WorkPackageIDRequest{}))
	workPackages.GET("/:id/journals/:version", handler.Handle(h.WorkPackage.Handler, h.WorkPackage.Journal, http.StatusOK, &handler.JournalRequest{}))
	workPackages.GET("/:id/at", handler.Handle(h.WorkPackage.Handler, h.WorkPackage.AtTimestamp, http.StatusOK, &handler.AtTimestampRequest{}))
	workPackages.GET("/:id/file_links", handler.Handle(h.Storage.Handler, h.Storage.ListFileLinks, http.StatusOK, &handler.WorkPackageIDRequest{}))
	workPackages.POST("/:id/file_links", handler.Handle(h.Storage.Handler, h.Storage.CreateFileLink, http.StatusCreated, &handler.CreateFileLinkRequest{}))
	workPackages.DELETE("/:id/file_links/:file_link_id", handler.HandleNoContent(h.Storage.Handler, h.Storage.DeleteFileLink, http.StatusNoContent, &handler.FileLinkRequest{}))

	queries := g.Group("/queries")
	queries.POST("/results", handler.Handle(h.Query.Handler, h.Query.Results, http.StatusOK, &handler.QueryRequest{}))
	queries.POST("/export", handler.HandleFile(h.Query.Handler, h.Query.Export, http.StatusOK, &handler.QueryRequest{}, "work_packages.xlsx", service.ExportContentType))

	g.POST("/storages", handler.Handle(h.Storage.Handler, h.Storage.Create, http.StatusCreated, &handler.CreateStorageRequest{}))
}
