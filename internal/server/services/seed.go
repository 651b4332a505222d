package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/monkeyandriver/healthforge/internal/common"
	sc "github.com/monkeyandriver/healthforge/internal/server/config"
	"github.com/monkeyandriver/healthforge/internal/logging"
)

// Seeder bootstraps the initial administrator account on startup so a fresh
// deployment is usable without manual SQL.
type Seeder struct {
	directory AccountDirectory
	config    *sc.Config
	logger    logging.Logger
}

func NewSeeder(directory AccountDirectory, config *sc.Config, logger logging.Logger) *Seeder {
	return &Seeder{directory: directory, config: config, logger: logger}
}

// EnsureAdmin creates the configured admin account if it does not exist yet,
// and makes sure it carries the Admin role. Safe to run on every startup.
func (s *Seeder) EnsureAdmin(ctx context.Context) error {
	if s.config.AdminEmail == "" || s.config.AdminPassword == "" {
		s.logger.Info(ctx, "admin seeding skipped, no credentials configured")
		return nil
	}

	user, err := s.directory.FindByEmail(ctx, s.config.AdminEmail)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("error looking up admin account: %w", err)
		}
		user, err = s.directory.Register(ctx, "Administrator", s.config.AdminEmail, s.config.AdminPassword, common.RoleAdmin)
		if err != nil {
			return fmt.Errorf("error creating admin account: %w", err)
		}
		s.logger.Info(ctx, "admin account created", "email", user.Email)
		return nil
	}

	roles, err := s.directory.GetRoles(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("error reading admin roles: %w", err)
	}
	for _, r := range roles {
		if r == common.RoleAdmin {
			return nil
		}
	}

	if err := s.directory.AssignRole(ctx, user.ID, common.RoleAdmin); err != nil {
		return fmt.Errorf("error assigning admin role: %w", err)
	}
	s.logger.Info(ctx, "admin role assigned", "email", user.Email)
	return nil
}
