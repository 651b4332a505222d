package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/monkeyandriver/healthforge/internal/common"
	"github.com/monkeyandriver/healthforge/internal/server/models"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type loginResponse struct {
	Token string        `json:"token"`
	User  *userResponse `json:"user"`
}

func toUserResponse(u *models.User) *userResponse {
	return &userResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", common.ErrValidation)
	}
	return nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.directory.Register(r.Context(), req.Name, req.Email, req.Password, common.RoleUser)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	token, user, err := s.directory.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, &loginResponse{Token: token, User: toUserResponse(user)})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.directory.ListByRole(r.Context(), common.RoleUser)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]*userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleGetUser serves an account to itself or to an admin.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	claims := claimsFromContext(r.Context())
	if claims.UserID != id && !claims.HasRole(adminRole) {
		s.writeStatus(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	user, err := s.directory.FindByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toUserResponse(user))
}

type updateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	claims := claimsFromContext(r.Context())
	if claims.UserID != id && !claims.HasRole(adminRole) {
		s.writeStatus(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req updateUserRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.directory.FindByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = req.Email
	}

	if err := s.directory.Update(r.Context(), user); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.directory.Register(r.Context(), req.Name, req.Email, req.Password, common.RoleAdmin)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := s.directory.ListByRole(r.Context(), common.RoleAdmin)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]*userResponse, len(admins))
	for i, u := range admins {
		out[i] = toUserResponse(u)
	}
	s.writeJSON(w, http.StatusOK, out)
}
