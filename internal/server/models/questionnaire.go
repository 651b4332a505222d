package models

import (
	"encoding/json"
	"fmt"

	"github.com/monkeyandriver/healthforge/internal/common"
)

// Questionnaire is the structured health-intake payload provided by a
// submitter. It is treated as immutable once received; the repository layer
// stores it as an opaque JSON blob inside the diagnostic test row.
type Questionnaire struct {
	Age              int      `json:"age"`
	Gender           string   `json:"gender"`
	Height           float64  `json:"height"` // cm
	Weight           float64  `json:"weight"` // kg
	BloodPressure    string   `json:"bloodPressure,omitempty"`
	Cholesterol      string   `json:"cholesterol,omitempty"`
	Medications      string   `json:"medications,omitempty"`
	Allergies        string   `json:"allergies,omitempty"`
	HealthConditions []string `json:"healthConditions"`
}

// Validate checks the questionnaire against the intake bounds. All failures
// wrap common.ErrValidation so callers can reject the request before any
// record is created.
func (q *Questionnaire) Validate() error {
	if q.Age < 1 || q.Age > 120 {
		return fmt.Errorf("%w: age must be between 1 and 120", common.ErrValidation)
	}
	if q.Gender == "" {
		return fmt.Errorf("%w: gender is required", common.ErrValidation)
	}
	if q.Height < 50 || q.Height > 250 {
		return fmt.Errorf("%w: height must be between 50 and 250 cm", common.ErrValidation)
	}
	if q.Weight < 10 || q.Weight > 300 {
		return fmt.Errorf("%w: weight must be between 10 and 300 kg", common.ErrValidation)
	}
	return nil
}

// EncodeQuestionnaire serializes the questionnaire for storage. A nil
// conditions slice is normalized to an empty one so the blob round-trips
// field-for-field.
func EncodeQuestionnaire(q *Questionnaire) (string, error) {
	if q.HealthConditions == nil {
		q.HealthConditions = []string{}
	}
	b, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("encoding questionnaire: %w", err)
	}
	return string(b), nil
}

// DecodeQuestionnaire is the read half of the storage codec.
func DecodeQuestionnaire(raw string) (*Questionnaire, error) {
	q := &Questionnaire{}
	if err := json.Unmarshal([]byte(raw), q); err != nil {
		return nil, fmt.Errorf("decoding questionnaire: %w", err)
	}
	if q.HealthConditions == nil {
		q.HealthConditions = []string{}
	}
	return q, nil
}
