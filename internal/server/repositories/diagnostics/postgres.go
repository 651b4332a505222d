package diagnostics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/monkeyandriver/healthforge/internal/common"
	"github.com/monkeyandriver/healthforge/internal/dbx"
	"github.com/monkeyandriver/healthforge/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, test *models.DiagnosticTest) (*models.DiagnosticTest, error) {

	payload, err := models.EncodeQuestionnaire(&test.Questionnaire)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO diagnostic_tests (name, email, owner_id, questionnaire, additional_notes, evaluation, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		test.Name, test.Email, test.OwnerID, payload, test.AdditionalNotes,
		test.Evaluation, test.Status).Scan(&test.ID, &test.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return test, nil
}

func (r *PostgresRepository) Update(ctx context.Context, test *models.DiagnosticTest) error {
	query :=
		`UPDATE diagnostic_tests SET status = $1, evaluation = $2
		 WHERE id = $3
		 `

	res, err := r.db.ExecContext(ctx, query, test.Status, test.Evaluation, test.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.DiagnosticTest, error) {
	query :=
		`SELECT id, name, email, owner_id, questionnaire, additional_notes, evaluation, status, created_at
		 FROM diagnostic_tests
		 WHERE id = $1
		 `

	test, err := scanTest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return test, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.DiagnosticTest, error) {
	query :=
		`SELECT id, name, email, owner_id, questionnaire, additional_notes, evaluation, status, created_at
		 FROM diagnostic_tests
		 WHERE owner_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return collectTests(rows)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.DiagnosticTest, error) {
	query :=
		`SELECT id, name, email, owner_id, questionnaire, additional_notes, evaluation, status, created_at
		 FROM diagnostic_tests
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return collectTests(rows)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTest(row rowScanner) (*models.DiagnosticTest, error) {
	test := &models.DiagnosticTest{}
	var payload string
	var status string

	err := row.Scan(&test.ID, &test.Name, &test.Email, &test.OwnerID, &payload,
		&test.AdditionalNotes, &test.Evaluation, &status, &test.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	q, err := models.DecodeQuestionnaire(payload)
	if err != nil {
		return nil, err
	}
	test.Questionnaire = *q
	test.Status = models.Status(status)

	return test, nil
}

func collectTests(rows *sql.Rows) ([]*models.DiagnosticTest, error) {
	result := []*models.DiagnosticTest{}
	for rows.Next() {
		test, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, test)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
