package repository

import (
	"github.com/deppfellow/openwork/internal/server"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Project     *ProjectRepository
	IssueStatus *IssueStatusRepository
	WorkPackage *WorkPackageRepository
	Journal     *JournalRepository
	Storage     *StorageRepository
	Query       *QueryRepository
}

func NewRepositories(s *server.Server) *Repositories {
	return NewRepositoriesWithPool(s.DB.Pool)
}

// NewRepositoriesWithPool builds the repositories on a bare pool, for the
// CLI and tests.
func NewRepositoriesWithPool(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Project:     NewProjectRepository(pool),
		IssueStatus: NewIssueStatusRepository(pool),
		WorkPackage: NewWorkPackageRepository(pool),
		Journal:     NewJournalRepository(pool),
		Storage:     NewStorageRepository(pool),
		Query:       NewQueryRepository(pool),
	}
}
