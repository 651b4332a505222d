package models

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/monkeyandriver/healthforge/internal/common"
)

// Status is the processing state of a diagnostic test. It only ever advances
// Pending → Processing → {Completed, Failed}; terminal states are never
// regressed.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusFailed     Status = "Failed"
)

const (
	maxNameLength  = 100
	maxEmailLength = 254
	maxNotesLength = 4000
)

// DiagnosticTest is one questionnaire submission and its processing outcome.
//
// OwnerID is nil for anonymous submissions; when set it is copied from the
// authenticated caller's identity at creation time, never fabricated.
// Evaluation is non-nil exactly when Status is Completed.
type DiagnosticTest struct {
	ID              int64
	Name            string
	Email           string
	OwnerID         *string
	Questionnaire   Questionnaire
	AdditionalNotes string
	Evaluation      *string
	Status          Status
	CreatedAt       time.Time
}

// Validate rejects malformed submissions before anything is persisted.
func (t *DiagnosticTest) Validate() error {
	if t.Name == "" || len(t.Name) > maxNameLength {
		return fmt.Errorf("%w: name is required and must not exceed %d characters", common.ErrValidation, maxNameLength)
	}
	if t.Email == "" || len(t.Email) > maxEmailLength {
		return fmt.Errorf("%w: email is required and must not exceed %d characters", common.ErrValidation, maxEmailLength)
	}
	if _, err := mail.ParseAddress(t.Email); err != nil {
		return fmt.Errorf("%w: email address is not valid", common.ErrValidation)
	}
	if len(t.AdditionalNotes) > maxNotesLength {
		return fmt.Errorf("%w: additional notes must not exceed %d characters", common.ErrValidation, maxNotesLength)
	}
	return t.Questionnaire.Validate()
}
