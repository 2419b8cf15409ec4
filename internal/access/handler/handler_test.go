package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"kycdesk/internal/access"
	"kycdesk/internal/access/models"
	"kycdesk/internal/access/token"
	"kycdesk/internal/recordstore"
	"kycdesk/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	service *access.Service
	router  chi.Router
	admin   string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	records := recordstore.NewRecords(recordstore.NewInMemory(), recordstore.WithLogger(logger))
	tokens := token.NewJWTService("handler-key", "kycdesk-test")
	s.service = access.New(records,
		access.WithLogger(logger),
		access.WithTokens(tokens, time.Hour),
		access.WithBcryptCost(bcrypt.MinCost),
	)
	s.Require().NoError(s.service.Bootstrap(context.Background(), "admin@example.com", "password"))

	s.router = chi.NewRouter()
	New(s.service, logger, tokens).Register(s.router)
	s.admin = s.login("admin@example.com", "password")
}

func (s *HandlerSuite) login(email, password string) string {
	rr := testutil.Serve(s.router, testutil.JSONRequest(s.T(), http.MethodPost, "/admin/login",
		map[string]string{"email": email, "password": password}))
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	res := testutil.Decode[access.LoginResult](s.T(), rr)
	s.Require().NotEmpty(res.Token)
	return res.Token
}

func (s *HandlerSuite) do(token, method, path string, body any) *httptest.ResponseRecorder {
	req := testutil.JSONRequest(s.T(), method, path, body)
	if token != "" {
		testutil.WithBearer(req, token)
	}
	return testutil.Serve(s.router, req)
}

func (s *HandlerSuite) TestLogin() {
	s.Run("bad password", func() {
		rr := s.do("", http.MethodPost, "/admin/login", map[string]string{"email": "admin@example.com", "password": "nope"})
		testutil.AssertError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("missing fields", func() {
		rr := s.do("", http.MethodPost, "/admin/login", map[string]string{"email": "admin@example.com"})
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("malformed body", func() {
		rr := testutil.Serve(s.router, testutil.RawRequest(http.MethodPost, "/admin/login", "{"))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("response never carries the password hash", func() {
		rr := s.do("", http.MethodPost, "/admin/login", map[string]string{"email": "admin@example.com", "password": "password"})
		s.Equal(http.StatusOK, rr.Code)
		s.NotContains(rr.Body.String(), "password_hash")
	})
}

func (s *HandlerSuite) TestAuthentication() {
	s.Run("missing token", func() {
		rr := s.do("", http.MethodGet, "/admin/users", nil)
		testutil.AssertError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("garbage token", func() {
		rr := s.do("not-a-jwt", http.MethodGet, "/admin/me", nil)
		testutil.AssertError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *HandlerSuite) TestMe() {
	rr := s.do(s.admin, http.MethodGet, "/admin/me", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	me := testutil.Decode[meResponse](s.T(), rr)
	s.Equal("admin@example.com", me.User.Email)
	s.Len(me.Permissions, len(models.Catalogue))
}

func (s *HandlerSuite) TestUserLifecycle() {
	rr := s.do(s.admin, http.MethodPost, "/admin/users", map[string]any{
		"email": "rev@example.com", "name": "Rev", "role": "Reviewer", "password": "secret",
	})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	created := testutil.Decode[models.User](s.T(), rr)
	s.Equal(models.RoleReviewer, created.Role)
	s.True(created.Active)

	rr = s.do(s.admin, http.MethodGet, "/admin/users?q=rev", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	list := testutil.Decode[map[string][]models.User](s.T(), rr)
	s.Len(list["users"], 1)

	rr = s.do(s.admin, http.MethodPatch, "/admin/users/"+created.ID, map[string]any{"role": "supervisor"})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.Equal(models.RoleSupervisor, testutil.Decode[models.User](s.T(), rr).Role)

	rr = s.do(s.admin, http.MethodPatch, "/admin/users/"+created.ID, map[string]any{})
	testutil.AssertError(s.T(), rr, http.StatusBadRequest, "validation_error")

	rr = s.do(s.admin, http.MethodDelete, "/admin/users/"+created.ID, nil)
	s.Equal(http.StatusNoContent, rr.Code)

	rr = s.do(s.admin, http.MethodGet, "/admin/users/"+created.ID, nil)
	testutil.AssertError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *HandlerSuite) TestCreateUserValidation() {
	rr := s.do(s.admin, http.MethodPost, "/admin/users", map[string]any{
		"email": "x@example.com", "name": "X", "role": "owner", "password": "secret",
	})
	testutil.AssertError(s.T(), rr, http.StatusBadRequest, "validation_error")

	rr = s.do(s.admin, http.MethodPost, "/admin/users", map[string]any{
		"email": "admin@example.com", "name": "Dup", "role": "admin", "password": "secret",
	})
	testutil.AssertError(s.T(), rr, http.StatusConflict, "conflict")
}

func (s *HandlerSuite) TestCannotDeleteSelf() {
	me := testutil.Decode[meResponse](s.T(), s.do(s.admin, http.MethodGet, "/admin/me", nil))
	rr := s.do(s.admin, http.MethodDelete, "/admin/users/"+me.User.ID, nil)
	testutil.AssertError(s.T(), rr, http.StatusConflict, "conflict")
}

func (s *HandlerSuite) TestPermissionGate() {
	rr := s.do(s.admin, http.MethodPost, "/admin/users", map[string]any{
		"email": "ro@example.com", "name": "RO", "role": "readonly", "password": "secret",
	})
	s.Require().Equal(http.StatusCreated, rr.Code)
	readonly := s.login("ro@example.com", "secret")

	rr = s.do(readonly, http.MethodGet, "/admin/users", nil)
	testutil.AssertError(s.T(), rr, http.StatusForbidden, "forbidden")

	rr = s.do(readonly, http.MethodGet, "/admin/roles", nil)
	testutil.AssertError(s.T(), rr, http.StatusForbidden, "forbidden")
}

func (s *HandlerSuite) TestRoles() {
	rr := s.do(s.admin, http.MethodGet, "/admin/roles", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	roles := testutil.Decode[rolesResponse](s.T(), rr)
	s.Len(roles.Roles, len(models.AllRoles))
	s.Equal(models.Catalogue, roles.Permissions)

	rr = s.do(s.admin, http.MethodPut, "/admin/roles/reviewer", map[string]any{
		"permissions": []string{"view_dashboard", " VIEW_SUBMISSIONS ", "view_dashboard"},
	})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	updated := testutil.Decode[models.RolePermissions](s.T(), rr)
	s.Equal([]models.Permission{models.PermViewDashboard, models.PermViewSubmissions}, updated.Permissions)

	rr = s.do(s.admin, http.MethodPut, "/admin/roles/reviewer", map[string]any{"permissions": []string{"launch_rockets"}})
	testutil.AssertError(s.T(), rr, http.StatusBadRequest, "invalid_input")

	rr = s.do(s.admin, http.MethodPut, "/admin/roles/owner", map[string]any{"permissions": []string{}})
	testutil.AssertError(s.T(), rr, http.StatusBadRequest, "invalid_input")
}
