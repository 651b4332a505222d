package repomanager

import (
	"context"
	"database/sql"

	"github.com/monkeyandriver/healthforge/internal/dbx"
	"github.com/monkeyandriver/healthforge/internal/server/repositories/diagnostics"
	"github.com/monkeyandriver/healthforge/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX, so
// services can use the same repository code inside and outside transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Diagnostics(db dbx.DBTX) diagnostics.Repository
}
