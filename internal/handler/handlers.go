package handler

import (
	"github.com/deppfellow/openwork/internal/server"
	"github.com/deppfellow/openwork/internal/service"
)

// Handlers groups every HTTP handler for the router.
type Handlers struct {
	Health      *HealthHandler
	OpenAPI     *OpenAPIHandler
	Project     *ProjectHandler
	IssueStatus *IssueStatusHandler
	WorkPackage *WorkPackageHandler
	Query       *QueryHandler
	Storage     *StorageHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(s),
		OpenAPI:     NewOpenAPIHandler(s),
		Project:     NewProjectHandler(s, services.Project),
		IssueStatus: NewIssueStatusHandler(s, services.IssueStatus),
		WorkPackage: NewWorkPackageHandler(s, services.WorkPackage),
		Query:       NewQueryHandler(s, services.Query, services.Export),
		Storage:     NewStorageHandler(s, services.Storage),
	}
}
