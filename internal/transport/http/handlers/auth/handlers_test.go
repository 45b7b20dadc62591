package authhandler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumigente/internal/domain/audit"
	authhandler "lumigente/internal/transport/http/handlers/auth"
	"lumigente/internal/transport/http/middleware"
	"lumigente/internal/testfixtures"
)

const (
	cpfAna   = "52998224725"
	cpfBruno = "11144477735"
	cpfIgor  = "71428793860"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type server struct {
	svc    *testfixtures.Services
	router http.Handler
}

func newServer(t *testing.T) *server {
	t.Helper()
	svc := testfixtures.NewServices(nil,
		testfixtures.Node("DIR", "100", "EMPRESA > DIRETORIA"),
		testfixtures.Node("D1", "200", "EMPRESA > DIRETORIA > VENDAS", "100"),
	)
	svc.Hire(cpfAna, "100", "Ana Souza", "DIR")
	svc.Hire(cpfBruno, "200", "Bruno Lima", "D1")
	svc.Onboard(t)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Auth(testfixtures.Secret, svc.Auth, middleware.WithSessionCookie("sid")))
	authhandler.NewHandler(svc.Auth, "sid", false).RegisterRoutes(r)
	return &server{svc: svc, router: r}
}

func (s *server) do(t *testing.T, method, path string, body any, cookie *http.Cookie) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	t.Fatal("expected session cookie")
	return nil
}

func TestLoginMeLogout(t *testing.T) {
	s := newServer(t)

	rec, env := s.do(t, http.MethodPost, "/auth/login", map[string]string{"cpf": "529.982.247-25", "password": testfixtures.Password}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)
	var login struct {
		Token string `json:"token"`
		User  struct {
			FullName       string `json:"fullName"`
			HierarchyLevel int    `json:"hierarchyLevel"`
			Role           string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "Ana Souza", login.User.FullName)
	assert.Equal(t, 2, login.User.HierarchyLevel)
	assert.Equal(t, "Coordenador", login.User.Role)

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	rec, env = s.do(t, http.MethodGet, "/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "Ana Souza")

	rec, _ = s.do(t, http.MethodPost, "/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unauthorized", env.Error.Code)
}

func TestLoginFailures(t *testing.T) {
	s := newServer(t)

	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"wrong password", map[string]string{"cpf": cpfAna, "password": "errada"}, http.StatusUnauthorized, "invalid_credentials"},
		{"invalid cpf", map[string]string{"cpf": "123", "password": "x"}, http.StatusBadRequest, "invalid_cpf"},
		{"unknown employee", map[string]string{"cpf": cpfIgor, "password": "x"}, http.StatusUnauthorized, "employee_not_found"},
		{"missing fields", map[string]string{"cpf": ""}, http.StatusBadRequest, "validation_error"},
		{"malformed payload", "not an object", http.StatusBadRequest, "invalid_payload"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodPost, "/auth/login", tc.body, nil)
			assert.Equal(t, tc.status, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestRegisterFlow(t *testing.T) {
	s := newServer(t)
	s.svc.Hire(cpfIgor, "500", "Igor Alves", "D1")
	_, err := s.svc.Sync.SyncAll(context.Background())
	require.NoError(t, err)

	rec, env := s.do(t, http.MethodPost, "/auth/check-cpf", map[string]string{"cpf": cpfIgor}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exists":true,"registered":false}`, string(env.Data))

	rec, env = s.do(t, http.MethodPost, "/auth/login", map[string]string{"cpf": cpfIgor, "password": "qualquer"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "registration_required", env.Error.Code)

	rec, env = s.do(t, http.MethodPost, "/auth/register", map[string]string{"cpf": cpfIgor, "password": "123"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "weak_password", env.Error.Code)

	rec, _ = s.do(t, http.MethodPost, "/auth/register", map[string]string{"cpf": cpfIgor, "password": "novasenha"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, s.svc.Audit.Actions(), audit.ActionRegister)

	rec, env = s.do(t, http.MethodPost, "/auth/register", map[string]string{"cpf": cpfIgor, "password": "novasenha"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_registered", env.Error.Code)

	rec, _ = s.do(t, http.MethodPost, "/auth/login", map[string]string{"cpf": cpfIgor, "password": "novasenha"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePassword(t *testing.T) {
	s := newServer(t)
	token, _ := s.svc.Login(t, cpfBruno)
	cookie := &http.Cookie{Name: "sid", Value: token}

	rec, env := s.do(t, http.MethodPost, "/auth/change-password", map[string]string{"currentPassword": "errada", "newPassword": "outrasenha"}, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", env.Error.Code)

	rec, _ = s.do(t, http.MethodPost, "/auth/change-password", map[string]string{"currentPassword": testfixtures.Password, "newPassword": "outrasenha"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/auth/login", map[string]string{"cpf": cpfBruno, "password": "outrasenha"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/auth/change-password", map[string]string{"currentPassword": "x", "newPassword": "y"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
