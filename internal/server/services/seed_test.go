package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monkeyandriver/healthforge/internal/common"
	"github.com/monkeyandriver/healthforge/internal/server/config"
	"github.com/monkeyandriver/healthforge/internal/server/models"
)

type fakeDirectory struct {
	byEmailOut *models.User
	byEmailErr error

	registered    []string
	registerOut   *models.User
	registerErr   error
	rolesOut      []string
	rolesErr      error
	assignedRoles []string
	assignRoleErr error
}

func (f *fakeDirectory) Register(ctx context.Context, name, email, password, role string) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, email)
	if role != "" {
		f.assignedRoles = append(f.assignedRoles, role)
	}
	if f.registerOut != nil {
		return f.registerOut, nil
	}
	return &models.User{ID: "u-1", Name: name, Email: email}, nil
}

func (f *fakeDirectory) Login(context.Context, string, string) (string, *models.User, error) {
	return "", nil, nil
}

func (f *fakeDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.byEmailOut, f.byEmailErr
}

func (f *fakeDirectory) FindByID(context.Context, string) (*models.User, error) { return nil, nil }
func (f *fakeDirectory) VerifyPassword(context.Context, string, string) error   { return nil }

func (f *fakeDirectory) AssignRole(ctx context.Context, userID, role string) error {
	if f.assignRoleErr != nil {
		return f.assignRoleErr
	}
	f.assignedRoles = append(f.assignedRoles, role)
	return nil
}

func (f *fakeDirectory) ListByRole(context.Context, string) ([]*models.User, error) {
	return nil, nil
}

func (f *fakeDirectory) GetRoles(ctx context.Context, userID string) ([]string, error) {
	return f.rolesOut, f.rolesErr
}

func (f *fakeDirectory) Update(context.Context, *models.User) error { return nil }
func (f *fakeDirectory) Delete(context.Context, string) error       { return nil }

func seedConfig() *config.Config {
	return &config.Config{AdminEmail: "admin@healthforge.local", AdminPassword: "changeme"}
}

func TestSeederEnsureAdmin(t *testing.T) {
	t.Run("creates account when missing", func(t *testing.T) {
		dir := &fakeDirectory{byEmailErr: common.ErrorNotFound}
		s := NewSeeder(dir, seedConfig(), testLogger())

		require.NoError(t, s.EnsureAdmin(context.Background()))
		assert.Equal(t, []string{"admin@healthforge.local"}, dir.registered)
		assert.Equal(t, []string{common.RoleAdmin}, dir.assignedRoles)
	})

	t.Run("noop when account already admin", func(t *testing.T) {
		dir := &fakeDirectory{
			byEmailOut: &models.User{ID: "u-1", Email: "admin@healthforge.local"},
			rolesOut:   []string{common.RoleAdmin},
		}
		s := NewSeeder(dir, seedConfig(), testLogger())

		require.NoError(t, s.EnsureAdmin(context.Background()))
		assert.Empty(t, dir.registered)
		assert.Empty(t, dir.assignedRoles)
	})

	t.Run("assigns role to existing account", func(t *testing.T) {
		dir := &fakeDirectory{
			byEmailOut: &models.User{ID: "u-1", Email: "admin@healthforge.local"},
			rolesOut:   []string{common.RoleUser},
		}
		s := NewSeeder(dir, seedConfig(), testLogger())

		require.NoError(t, s.EnsureAdmin(context.Background()))
		assert.Empty(t, dir.registered)
		assert.Equal(t, []string{common.RoleAdmin}, dir.assignedRoles)
	})

	t.Run("skips when not configured", func(t *testing.T) {
		dir := &fakeDirectory{}
		s := NewSeeder(dir, &config.Config{}, testLogger())

		require.NoError(t, s.EnsureAdmin(context.Background()))
		assert.Empty(t, dir.registered)
	})

	t.Run("propagates lookup errors", func(t *testing.T) {
		dir := &fakeDirectory{byEmailErr: errors.New("connection refused")}
		s := NewSeeder(dir, seedConfig(), testLogger())

		assert.Error(t, s.EnsureAdmin(context.Background()))
	})
}
