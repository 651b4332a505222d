package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/monkeyandriver/healthforge/internal/server/models"
)

type submitTestRequest struct {
	Name            string               `json:"name"`
	Email           string               `json:"email"`
	Questionnaire   models.Questionnaire `json:"questionnaire"`
	AdditionalNotes string               `json:"additional_notes"`
}

type diagnosticTestResponse struct {
	ID              int64                `json:"id"`
	Name            string               `json:"name"`
	Email           string               `json:"email"`
	Questionnaire   models.Questionnaire `json:"questionnaire"`
	AdditionalNotes string               `json:"additional_notes,omitempty"`
	Evaluation      *string              `json:"evaluation,omitempty"`
	Status          models.Status        `json:"status"`
	CreatedAt       time.Time            `json:"created_at"`
}

func toTestResponse(t *models.DiagnosticTest) *diagnosticTestResponse {
	return &diagnosticTestResponse{
		ID:              t.ID,
		Name:            t.Name,
		Email:           t.Email,
		Questionnaire:   t.Questionnaire,
		AdditionalNotes: t.AdditionalNotes,
		Evaluation:      t.Evaluation,
		Status:          t.Status,
		CreatedAt:       t.CreatedAt,
	}
}

// handleSubmitTest accepts authenticated and anonymous submissions. The owner
// id is taken from the bearer claims when present, never from the body.
func (s *Server) handleSubmitTest(w http.ResponseWriter, r *http.Request) {
	var req submitTestRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	test := &models.DiagnosticTest{
		Name:            req.Name,
		Email:           req.Email,
		Questionnaire:   req.Questionnaire,
		AdditionalNotes: req.AdditionalNotes,
	}
	if claims := claimsFromContext(r.Context()); claims != nil {
		test.OwnerID = &claims.UserID
	}

	test, err := s.diagnostics.Submit(r.Context(), test)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toTestResponse(test))
}

// handleListTests serves the caller's own records; admins see everything.
func (s *Server) handleListTests(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var tests []*models.DiagnosticTest
	var err error
	if claims.HasRole(adminRole) {
		tests, err = s.diagnostics.List(r.Context())
	} else {
		tests, err = s.diagnostics.ListByOwner(r.Context(), claims.UserID)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]*diagnosticTestResponse, len(tests))
	for i, t := range tests {
		out[i] = toTestResponse(t)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid test id")
		return
	}

	test, err := s.diagnostics.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	claims := claimsFromContext(r.Context())
	if !claims.HasRole(adminRole) {
		if test.OwnerID == nil || *test.OwnerID != claims.UserID {
			s.writeStatus(w, http.StatusNotFound, "not found")
			return
		}
	}

	s.writeJSON(w, http.StatusOK, toTestResponse(test))
}
