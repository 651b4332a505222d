// Package services contains server-side business logic. This file implements
// DiagnosticService, the orchestrator that owns the diagnostic test status
// state machine and sequences store and evaluation-client calls.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/monkeyandriver/healthforge/internal/logging"
	"github.com/monkeyandriver/healthforge/internal/server/models"
	"github.com/monkeyandriver/healthforge/internal/server/repositories/repomanager"
)

// Evaluator is the outbound-call capability the orchestrator depends on.
// Implemented by evaluation.Client.
type Evaluator interface {
	EvaluateHealth(ctx context.Context, q *models.Questionnaire, additionalNotes string) (string, error)
}

// Archiver stores a copy of a completed record outside the primary database.
// Archival is best-effort and never affects the caller-visible outcome.
type Archiver interface {
	Store(ctx context.Context, test *models.DiagnosticTest) error
}

// DiagnosticService drives one submission through
// Pending → Processing → {Completed, Failed}. Each invocation owns its record
// exclusively; there is no cross-submission coordination or retry.
type DiagnosticService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	evaluator   Evaluator
	archiver    Archiver
	logger      logging.Logger
}

// NewDiagnosticService constructs a DiagnosticService. archiver may be nil
// when archival is not configured.
func NewDiagnosticService(db *sql.DB, m repomanager.RepositoryManager, evaluator Evaluator, archiver Archiver, logger logging.Logger) *DiagnosticService {
	return &DiagnosticService{
		db:          db,
		repomanager: m,
		evaluator:   evaluator,
		archiver:    archiver,
		logger:      logger,
	}
}

// Submit validates, persists, and evaluates one diagnostic test.
//
// The record is persisted as Pending and then immediately updated to
// Processing as two separate writes, so a crash between the update and the
// evaluation leaves a durable Processing row rather than losing the
// submission. On success the returned record is Completed with the narrative
// evaluation set. On any evaluation failure the record is marked Failed
// (best-effort when an id has been assigned) and the original error is
// returned unchanged.
func (s *DiagnosticService) Submit(ctx context.Context, test *models.DiagnosticTest) (*models.DiagnosticTest, error) {

	if err := test.Validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Diagnostics(s.db)

	test.Status = models.StatusPending
	test, err := repo.Create(ctx, test)
	if err != nil {
		return nil, fmt.Errorf("error creating diagnostic test: %w", err)
	}

	test.Status = models.StatusProcessing
	if err := repo.Update(ctx, test); err != nil {
		return nil, s.fail(ctx, test, fmt.Errorf("error updating diagnostic test: %w", err))
	}

	evaluationText, err := s.evaluator.EvaluateHealth(ctx, &test.Questionnaire, test.AdditionalNotes)
	if err != nil {
		s.logger.Error(ctx, "error processing diagnostic test", "id", test.ID, "error", err.Error())
		return nil, s.fail(ctx, test, err)
	}

	test.Evaluation = &evaluationText
	test.Status = models.StatusCompleted
	if err := repo.Update(ctx, test); err != nil {
		return nil, s.fail(ctx, test, fmt.Errorf("error updating diagnostic test: %w", err))
	}

	if s.archiver != nil {
		if err := s.archiver.Store(ctx, test); err != nil {
			s.logger.Warn(ctx, "error archiving evaluation", "id", test.ID, "error", err.Error())
		}
	}

	return test, nil
}

// GetByID returns one record.
func (s *DiagnosticService) GetByID(ctx context.Context, id int64) (*models.DiagnosticTest, error) {
	return s.repomanager.Diagnostics(s.db).GetByID(ctx, id)
}

// ListByOwner returns the records submitted by one account, newest first.
func (s *DiagnosticService) ListByOwner(ctx context.Context, ownerID string) ([]*models.DiagnosticTest, error) {
	return s.repomanager.Diagnostics(s.db).ListByOwner(ctx, ownerID)
}

// List returns all records, newest first.
func (s *DiagnosticService) List(ctx context.Context) ([]*models.DiagnosticTest, error) {
	return s.repomanager.Diagnostics(s.db).List(ctx)
}

// fail records the Failed transition and returns the original error. The
// status write is best-effort: a persistence failure at this point is logged,
// not retried, and never masks the original failure.
func (s *DiagnosticService) fail(ctx context.Context, test *models.DiagnosticTest, original error) error {
	test.Status = models.StatusFailed
	test.Evaluation = nil

	if test.ID > 0 {
		if err := s.repomanager.Diagnostics(s.db).Update(ctx, test); err != nil {
			s.logger.Error(ctx, "error saving failed status", "id", test.ID, "error", err.Error())
		}
	}

	return original
}
