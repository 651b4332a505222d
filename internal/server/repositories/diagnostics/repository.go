// Package diagnostics contains the persistence boundary for diagnostic test
// records. The questionnaire travels through this layer as a typed value and
// is serialized to an opaque JSON blob at the storage boundary.
package diagnostics

import (
	"context"

	"github.com/monkeyandriver/healthforge/internal/server/models"
)

type Repository interface {
	// Create persists a new record and assigns its id and creation timestamp.
	Create(ctx context.Context, test *models.DiagnosticTest) (*models.DiagnosticTest, error)
	// Update persists status and evaluation changes for an existing record.
	Update(ctx context.Context, test *models.DiagnosticTest) error
	GetByID(ctx context.Context, id int64) (*models.DiagnosticTest, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.DiagnosticTest, error)
	List(ctx context.Context) ([]*models.DiagnosticTest, error)
}
