// This file implements UserService, the concrete account directory:
// registration, login, password verification, role membership, and the
// account CRUD consumed by the admin surface.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/monkeyandriver/healthforge/internal/common"
	"github.com/monkeyandriver/healthforge/internal/dbx"
	"github.com/monkeyandriver/healthforge/internal/server/auth"
	"github.com/monkeyandriver/healthforge/internal/server/config"
	"github.com/monkeyandriver/healthforge/internal/server/models"
	"github.com/monkeyandriver/healthforge/internal/server/repositories/repomanager"
)

// AccountDirectory is the capability interface for identity and role
// management. The diagnostic pipeline never depends on the concrete
// implementation, only on this interface (and only for owner-id lookup at
// the HTTP boundary).
type AccountDirectory interface {
	Register(ctx context.Context, name, email, password, role string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	VerifyPassword(ctx context.Context, email, password string) error
	AssignRole(ctx context.Context, userID, role string) error
	ListByRole(ctx context.Context, role string) ([]*models.User, error)
	GetRoles(ctx context.Context, userID string) ([]string, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// UserService implements AccountDirectory over the users repository and
// issues bearer tokens on successful authentication.
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	jwtSecret             []byte
	tokenIssuer           string
	tokenAudience         string
	tokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenIssuer:           cfg.TokenIssuer,
		tokenAudience:         cfg.TokenAudience,
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Register creates a new account with a bcrypt-hashed password and assigns
// the requested role.
func (s *UserService) Register(ctx context.Context, name, email, password, role string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %v", err)
	}

	user := &models.User{Name: name, Email: email, PasswordHash: string(hash)}

	// account and role land together or not at all
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err = repo.Create(ctx, user)
		if err != nil {
			return fmt.Errorf("error creating user: %v", err)
		}

		if role != "" {
			if err := repo.AssignRole(ctx, user.ID, role); err != nil {
				return fmt.Errorf("error assigning role: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies the credentials and, on success, returns a signed bearer
// token plus the account. Unknown emails and wrong passwords are both
// reported as ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.findForAuth(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	roles, err := s.repomanager.Users(s.db).GetRoles(ctx, user.ID)
	if err != nil {
		return "", nil, common.ErrorInternal
	}

	token, err := auth.IssueToken(user, roles, s.jwtSecret, s.tokenIssuer, s.tokenAudience, s.tokenValidityDuration)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// VerifyPassword checks the credentials without issuing a token.
func (s *UserService) VerifyPassword(ctx context.Context, email, password string) error {
	_, err := s.findForAuth(ctx, email, password)
	return err
}

func (s *UserService) findForAuth(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByEmail(ctx, email)
}

func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

func (s *UserService) AssignRole(ctx context.Context, userID, role string) error {
	return s.repomanager.Users(s.db).AssignRole(ctx, userID, role)
}

func (s *UserService) ListByRole(ctx context.Context, role string) ([]*models.User, error) {
	return s.repomanager.Users(s.db).ListByRole(ctx, role)
}

func (s *UserService) GetRoles(ctx context.Context, userID string) ([]string, error) {
	return s.repomanager.Users(s.db).GetRoles(ctx, userID)
}

func (s *UserService) Update(ctx context.Context, user *models.User) error {
	return s.repomanager.Users(s.db).Update(ctx, user)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.repomanager.Users(s.db).Delete(ctx, id)
}
