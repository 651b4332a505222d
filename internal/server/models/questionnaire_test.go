package models

import (
	"errors"
	"testing"

	"github.com/monkeyandriver/healthforge/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuestionnaire() *Questionnaire {
	return &Questionnaire{
		Age:              45,
		Gender:           "Male",
		Height:           178,
		Weight:           85,
		HealthConditions: []string{"Hypertension"},
	}
}

func TestQuestionnaire_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(q *Questionnaire)
		wantErr bool
	}{
		{"valid", func(q *Questionnaire) {}, false},
		{"age too low", func(q *Questionnaire) { q.Age = 0 }, true},
		{"age too high", func(q *Questionnaire) { q.Age = 121 }, true},
		{"missing gender", func(q *Questionnaire) { q.Gender = "" }, true},
		{"height too low", func(q *Questionnaire) { q.Height = 49 }, true},
		{"height too high", func(q *Questionnaire) { q.Height = 251 }, true},
		{"weight too low", func(q *Questionnaire) { q.Weight = 9 }, true},
		{"weight too high", func(q *Questionnaire) { q.Weight = 301 }, true},
		{"optional fields may be empty", func(q *Questionnaire) {
			q.BloodPressure = ""
			q.Cholesterol = ""
			q.HealthConditions = nil
		}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := validQuestionnaire()
			tc.mutate(q)
			err := q.Validate()
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrValidation), "expected ErrValidation, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuestionnaireCodec_RoundTrip(t *testing.T) {
	q := &Questionnaire{
		Age:              45,
		Gender:           "Male",
		Height:           178,
		Weight:           85,
		BloodPressure:    "140/90",
		HealthConditions: []string{"Hypertension", "Asthma"},
	}

	raw, err := EncodeQuestionnaire(q)
	require.NoError(t, err)

	got, err := DecodeQuestionnaire(raw)
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestQuestionnaireCodec_EmptyConditionsSurviveRoundTrip(t *testing.T) {
	q := &Questionnaire{Age: 30, Gender: "Female", Height: 165, Weight: 60}

	raw, err := EncodeQuestionnaire(q)
	require.NoError(t, err)

	got, err := DecodeQuestionnaire(raw)
	require.NoError(t, err)
	require.NotNil(t, got.HealthConditions)
	assert.Empty(t, got.HealthConditions)
}

func TestDecodeQuestionnaire_InvalidJSON(t *testing.T) {
	_, err := DecodeQuestionnaire("{not json")
	assert.Error(t, err)
}

func TestDiagnosticTest_Validate(t *testing.T) {
	base := func() *DiagnosticTest {
		return &DiagnosticTest{
			Name:          "John Doe",
			Email:         "john@example.com",
			Questionnaire: *validQuestionnaire(),
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing name", func(t *testing.T) {
		tst := base()
		tst.Name = ""
		assert.ErrorIs(t, tst.Validate(), common.ErrValidation)
	})

	t.Run("missing email", func(t *testing.T) {
		tst := base()
		tst.Email = ""
		assert.ErrorIs(t, tst.Validate(), common.ErrValidation)
	})

	t.Run("malformed email", func(t *testing.T) {
		tst := base()
		tst.Email = "not-an-email"
		assert.ErrorIs(t, tst.Validate(), common.ErrValidation)
	})

	t.Run("oversized notes", func(t *testing.T) {
		tst := base()
		tst.AdditionalNotes = string(make([]byte, maxNotesLength+1))
		assert.ErrorIs(t, tst.Validate(), common.ErrValidation)
	})

	t.Run("invalid questionnaire bubbles up", func(t *testing.T) {
		tst := base()
		tst.Questionnaire.Age = 0
		assert.ErrorIs(t, tst.Validate(), common.ErrValidation)
	})
}
