package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monkeyandriver/healthforge/internal/common"
	"github.com/monkeyandriver/healthforge/internal/logging"
	"github.com/monkeyandriver/healthforge/internal/server/auth"
	"github.com/monkeyandriver/healthforge/internal/server/evaluation"
	"github.com/monkeyandriver/healthforge/internal/server/models"
)

var testSecret = []byte("test-secret")

// --- fakes ---

type fakeDirectory struct {
	registerOut *models.User
	registerErr error
	gotRole     string

	loginToken string
	loginUser  *models.User
	loginErr   error

	findOut *models.User
	findErr error

	listOut []*models.User
	listErr error

	updateErr error
	deleteErr error
	deletedID string
}

func (f *fakeDirectory) Register(ctx context.Context, name, email, password, role string) (*models.User, error) {
	f.gotRole = role
	return f.registerOut, f.registerErr
}

func (f *fakeDirectory) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	return f.loginToken, f.loginUser, f.loginErr
}

func (f *fakeDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.findOut, f.findErr
}

func (f *fakeDirectory) FindByID(ctx context.Context, id string) (*models.User, error) {
	return f.findOut, f.findErr
}

func (f *fakeDirectory) VerifyPassword(context.Context, string, string) error { return nil }

func (f *fakeDirectory) AssignRole(context.Context, string, string) error { return nil }

func (f *fakeDirectory) ListByRole(ctx context.Context, role string) ([]*models.User, error) {
	return f.listOut, f.listErr
}

func (f *fakeDirectory) GetRoles(context.Context, string) ([]string, error) { return nil, nil }

func (f *fakeDirectory) Update(ctx context.Context, u *models.User) error { return f.updateErr }

func (f *fakeDirectory) Delete(ctx context.Context, id string) error {
	f.deletedID = id
	return f.deleteErr
}

type fakePipeline struct {
	submitted *models.DiagnosticTest
	submitOut *models.DiagnosticTest
	submitErr error

	getOut *models.DiagnosticTest
	getErr error

	listAllCalled   bool
	listOwnerCalled string
	listOut         []*models.DiagnosticTest
	listErr         error
}

func (f *fakePipeline) Submit(ctx context.Context, test *models.DiagnosticTest) (*models.DiagnosticTest, error) {
	f.submitted = test
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if f.submitOut != nil {
		return f.submitOut, nil
	}
	test.ID = 1
	test.Status = models.StatusCompleted
	return test, nil
}

func (f *fakePipeline) GetByID(ctx context.Context, id int64) (*models.DiagnosticTest, error) {
	return f.getOut, f.getErr
}

func (f *fakePipeline) ListByOwner(ctx context.Context, ownerID string) ([]*models.DiagnosticTest, error) {
	f.listOwnerCalled = ownerID
	return f.listOut, f.listErr
}

func (f *fakePipeline) List(ctx context.Context) ([]*models.DiagnosticTest, error) {
	f.listAllCalled = true
	return f.listOut, f.listErr
}

// --- helpers ---

func newTestServer(dir *fakeDirectory, pipe *fakePipeline) http.Handler {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewServer(dir, pipe, testSecret, logger).Handler()
}

func tokenFor(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	user := &models.User{ID: userID, Name: "Test", Email: "test@example.com"}
	token, err := auth.IssueToken(user, roles, testSecret, "healthforge", "healthforge-web", time.Hour)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func submitBody() map[string]any {
	return map[string]any{
		"name":  "Jane Roe",
		"email": "jane@example.com",
		"questionnaire": map[string]any{
			"age":    45,
			"gender": "Female",
			"height": 165,
			"weight": 62,
		},
	}
}

// --- tests ---

func TestRegisterEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		dir := &fakeDirectory{registerOut: &models.User{ID: "u-1", Name: "Jane", Email: "jane@example.com"}}
		h := newTestServer(dir, &fakePipeline{})

		rec := doJSON(t, h, http.MethodPost, "/api/users/register", "",
			map[string]string{"name": "Jane", "email": "jane@example.com", "password": "pw"})

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, common.RoleUser, dir.gotRole)

		var got userResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "u-1", got.ID)
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		dir := &fakeDirectory{registerErr: common.ErrValidation}
		h := newTestServer(dir, &fakePipeline{})

		rec := doJSON(t, h, http.MethodPost, "/api/users/register", "", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		h := newTestServer(&fakeDirectory{}, &fakePipeline{})
		req := httptest.NewRequest(http.MethodPost, "/api/users/register", bytes.NewReader([]byte("{nope")))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("success returns token and user", func(t *testing.T) {
		dir := &fakeDirectory{loginToken: "tok", loginUser: &models.User{ID: "u-1", Email: "jane@example.com"}}
		h := newTestServer(dir, &fakePipeline{})

		rec := doJSON(t, h, http.MethodPost, "/api/users/login", "",
			map[string]string{"email": "jane@example.com", "password": "pw"})

		require.Equal(t, http.StatusOK, rec.Code)
		var got loginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "tok", got.Token)
		assert.Equal(t, "u-1", got.User.ID)
	})

	t.Run("bad credentials map to 401", func(t *testing.T) {
		dir := &fakeDirectory{loginErr: common.ErrorUnauthorized}
		h := newTestServer(dir, &fakePipeline{})

		rec := doJSON(t, h, http.MethodPost, "/api/users/login", "",
			map[string]string{"email": "jane@example.com", "password": "bad"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSubmitTestEndpoint(t *testing.T) {
	t.Run("anonymous submission has no owner", func(t *testing.T) {
		pipe := &fakePipeline{}
		h := newTestServer(&fakeDirectory{}, pipe)

		rec := doJSON(t, h, http.MethodPost, "/api/diagnostictests", "", submitBody())

		require.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, pipe.submitted)
		assert.Nil(t, pipe.submitted.OwnerID)
	})

	t.Run("authenticated submission copies owner from claims", func(t *testing.T) {
		pipe := &fakePipeline{}
		h := newTestServer(&fakeDirectory{}, pipe)

		rec := doJSON(t, h, http.MethodPost, "/api/diagnostictests", tokenFor(t, "u-9", common.RoleUser), submitBody())

		require.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, pipe.submitted.OwnerID)
		assert.Equal(t, "u-9", *pipe.submitted.OwnerID)
	})

	t.Run("invalid token rejected even though route allows anonymous", func(t *testing.T) {
		h := newTestServer(&fakeDirectory{}, &fakePipeline{})
		rec := doJSON(t, h, http.MethodPost, "/api/diagnostictests", "garbage", submitBody())
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("upstream failure maps to 502", func(t *testing.T) {
		pipe := &fakePipeline{submitErr: &evaluation.UpstreamError{StatusCode: 500, Body: "boom"}}
		h := newTestServer(&fakeDirectory{}, pipe)

		rec := doJSON(t, h, http.MethodPost, "/api/diagnostictests", "", submitBody())
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.NotContains(t, rec.Body.String(), "boom")
	})

	t.Run("validation failure maps to 400", func(t *testing.T) {
		pipe := &fakePipeline{submitErr: common.ErrValidation}
		h := newTestServer(&fakeDirectory{}, pipe)

		rec := doJSON(t, h, http.MethodPost, "/api/diagnostictests", "", submitBody())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListTestsEndpoint(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		h := newTestServer(&fakeDirectory{}, &fakePipeline{})
		rec := doJSON(t, h, http.MethodGet, "/api/diagnostictests", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("regular user sees own records", func(t *testing.T) {
		pipe := &fakePipeline{listOut: []*models.DiagnosticTest{{ID: 1, Name: "A", Email: "a@b.c"}}}
		h := newTestServer(&fakeDirectory{}, pipe)

		rec := doJSON(t, h, http.MethodGet, "/api/diagnostictests", tokenFor(t, "u-1", common.RoleUser), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u-1", pipe.listOwnerCalled)
		assert.False(t, pipe.listAllCalled)
	})

	t.Run("admin sees all records", func(t *testing.T) {
		pipe := &fakePipeline{}
		h := newTestServer(&fakeDirectory{}, pipe)

		rec := doJSON(t, h, http.MethodGet, "/api/diagnostictests", tokenFor(t, "adm", common.RoleAdmin), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, pipe.listAllCalled)
	})
}

func TestGetTestEndpoint(t *testing.T) {
	owner := "u-1"
	record := &models.DiagnosticTest{ID: 5, Name: "A", Email: "a@b.c", OwnerID: &owner}

	t.Run("owner can read own record", func(t *testing.T) {
		pipe := &fakePipeline{getOut: record}
		h := newTestServer(&fakeDirectory{}, pipe)

		rec := doJSON(t, h, http.MethodGet, "/api/diagnostictests/5", tokenFor(t, "u-1", common.RoleUser), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other user gets 404", func(t *testing.T) {
		pipe := &fakePipeline{getOut: record}
		h := newTestServer(&fakeDirectory{}, pipe)

		rec := doJSON(t, h, http.MethodGet, "/api/diagnostictests/5", tokenFor(t, "u-2", common.RoleUser), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("admin can read any record", func(t *testing.T) {
		pipe := &fakePipeline{getOut: record}
		h := newTestServer(&fakeDirectory{}, pipe)

		rec := doJSON(t, h, http.MethodGet, "/api/diagnostictests/5", tokenFor(t, "adm", common.RoleAdmin), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing record maps to 404", func(t *testing.T) {
		pipe := &fakePipeline{getErr: common.ErrorNotFound}
		h := newTestServer(&fakeDirectory{}, pipe)

		rec := doJSON(t, h, http.MethodGet, "/api/diagnostictests/99", tokenFor(t, "adm", common.RoleAdmin), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-numeric id maps to 400", func(t *testing.T) {
		h := newTestServer(&fakeDirectory{}, &fakePipeline{})
		rec := doJSON(t, h, http.MethodGet, "/api/diagnostictests/abc", tokenFor(t, "u-1", common.RoleUser), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	t.Run("list users requires admin role", func(t *testing.T) {
		h := newTestServer(&fakeDirectory{}, &fakePipeline{})

		rec := doJSON(t, h, http.MethodGet, "/api/users", tokenFor(t, "u-1", common.RoleUser), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = doJSON(t, h, http.MethodGet, "/api/users", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin can list users", func(t *testing.T) {
		dir := &fakeDirectory{listOut: []*models.User{{ID: "u-1", Email: "a@b.c"}}}
		h := newTestServer(dir, &fakePipeline{})

		rec := doJSON(t, h, http.MethodGet, "/api/users", tokenFor(t, "adm", common.RoleAdmin), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got []*userResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
	})

	t.Run("create admin", func(t *testing.T) {
		dir := &fakeDirectory{registerOut: &models.User{ID: "adm-2", Email: "x@y.z"}}
		h := newTestServer(dir, &fakePipeline{})

		rec := doJSON(t, h, http.MethodPost, "/api/admins", tokenFor(t, "adm", common.RoleAdmin),
			map[string]string{"name": "X", "email": "x@y.z", "password": "pw"})
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, common.RoleAdmin, dir.gotRole)
	})

	t.Run("delete user", func(t *testing.T) {
		dir := &fakeDirectory{}
		h := newTestServer(dir, &fakePipeline{})

		rec := doJSON(t, h, http.MethodDelete, "/api/users/u-3", tokenFor(t, "adm", common.RoleAdmin), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "u-3", dir.deletedID)
	})
}

func TestGetUserEndpoint(t *testing.T) {
	user := &models.User{ID: "u-1", Name: "Jane", Email: "jane@example.com"}

	t.Run("self access", func(t *testing.T) {
		h := newTestServer(&fakeDirectory{findOut: user}, &fakePipeline{})
		rec := doJSON(t, h, http.MethodGet, "/api/users/u-1", tokenFor(t, "u-1", common.RoleUser), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other account forbidden", func(t *testing.T) {
		h := newTestServer(&fakeDirectory{findOut: user}, &fakePipeline{})
		rec := doJSON(t, h, http.MethodGet, "/api/users/u-1", tokenFor(t, "u-2", common.RoleUser), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("expired token maps to 401", func(t *testing.T) {
		expired, err := auth.IssueToken(user, nil, testSecret, "healthforge", "healthforge-web", -time.Minute)
		require.NoError(t, err)

		h := newTestServer(&fakeDirectory{findOut: user}, &fakePipeline{})
		rec := doJSON(t, h, http.MethodGet, "/api/users/u-1", expired, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUpdateUserEndpoint(t *testing.T) {
	user := &models.User{ID: "u-1", Name: "Jane", Email: "jane@example.com"}
	h := newTestServer(&fakeDirectory{findOut: user}, &fakePipeline{})

	rec := doJSON(t, h, http.MethodPut, "/api/users/u-1", tokenFor(t, "u-1", common.RoleUser),
		map[string]string{"name": "Janet"})
	require.Equal(t, http.StatusOK, rec.Code)

	var got userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Janet", got.Name)
}
