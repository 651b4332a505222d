// Package httpapi exposes the questionnaire pipeline and the account
// directory over a JSON HTTP API.
package httpapi

import (
	"context"
	"net/http"

	"github.com/monkeyandriver/healthforge/internal/logging"
	"github.com/monkeyandriver/healthforge/internal/server/models"
	"github.com/monkeyandriver/healthforge/internal/server/services"
)

// DiagnosticPipeline is the slice of the diagnostic service the API needs.
type DiagnosticPipeline interface {
	Submit(ctx context.Context, test *models.DiagnosticTest) (*models.DiagnosticTest, error)
	GetByID(ctx context.Context, id int64) (*models.DiagnosticTest, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.DiagnosticTest, error)
	List(ctx context.Context) ([]*models.DiagnosticTest, error)
}

type Server struct {
	directory   services.AccountDirectory
	diagnostics DiagnosticPipeline
	secretKey   []byte
	logger      logging.Logger
}

func NewServer(directory services.AccountDirectory, diagnostics DiagnosticPipeline, secretKey []byte, logger logging.Logger) *Server {
	return &Server{
		directory:   directory,
		diagnostics: diagnostics,
		secretKey:   secretKey,
		logger:      logger,
	}
}

// Handler builds the route table. Authentication is per-route: registration,
// login, and test submission accept anonymous callers; directory management
// is admin-only.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/users/register", s.handleRegister)
	mux.HandleFunc("POST /api/users/login", s.handleLogin)
	mux.Handle("GET /api/users", s.requireRole(adminRole, s.handleListUsers))
	mux.Handle("GET /api/users/{id}", s.requireAuth(s.handleGetUser))
	mux.Handle("PUT /api/users/{id}", s.requireAuth(s.handleUpdateUser))
	mux.Handle("DELETE /api/users/{id}", s.requireRole(adminRole, s.handleDeleteUser))

	mux.Handle("POST /api/admins", s.requireRole(adminRole, s.handleCreateAdmin))
	mux.Handle("GET /api/admins", s.requireRole(adminRole, s.handleListAdmins))

	mux.Handle("POST /api/diagnostictests", s.optionalAuth(s.handleSubmitTest))
	mux.Handle("GET /api/diagnostictests", s.requireAuth(s.handleListTests))
	mux.Handle("GET /api/diagnostictests/{id}", s.requireAuth(s.handleGetTest))

	return mux
}
