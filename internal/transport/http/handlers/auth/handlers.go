package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lumigente/internal/domain/auth"
	"lumigente/internal/domain/employee"
	"lumigente/internal/platform/logger"
	"lumigente/internal/transport/http/api"
	"lumigente/internal/transport/http/middleware"
	"lumigente/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
	Cookie  string
	Secure  bool
}

func NewHandler(service *auth.Service, cookie string, secure bool) *Handler {
	if cookie == "" {
		cookie = middleware.DefaultSessionCookie
	}
	return &Handler{Service: service, Cookie: cookie, Secure: secure}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/register", h.handleRegister)
		r.Post("/check-cpf", h.handleCheckCPF)
		r.Post("/logout", h.handleLogout)
		r.With(middleware.RequireAuth).Post("/change-password", h.handleChangePassword)
	})
	r.With(middleware.RequireAuth).Get("/me", h.handleMe)
}

type credentialsRequest struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

type cpfRequest struct {
	CPF string `json:"cpf"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type loginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      auth.Principal `json:"user"`
}

var failures = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{auth.ErrInvalidCPF, http.StatusBadRequest, "invalid_cpf", "invalid CPF"},
	{auth.ErrWeakPassword, http.StatusBadRequest, "weak_password", "password must have at least 6 characters"},
	{auth.ErrEmployeeNotFound, http.StatusUnauthorized, "employee_not_found", "CPF not found in the employee base"},
	{auth.ErrEmployeeInactive, http.StatusForbidden, "employee_inactive", "employee is inactive"},
	{auth.ErrAccountNotFound, http.StatusUnauthorized, "user_not_found", "user not registered"},
	{auth.ErrRegistrationRequired, http.StatusForbidden, "registration_required", "registration required"},
	{auth.ErrAccountInactive, http.StatusForbidden, "user_inactive", "user is inactive"},
	{auth.ErrPasswordNotSet, http.StatusForbidden, "password_not_set", "password not set"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "invalid credentials"},
	{auth.ErrAlreadyRegistered, http.StatusConflict, "already_registered", "user already registered"},
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	for _, f := range failures {
		if errors.Is(err, f.err) {
			api.Fail(w, f.status, f.code, f.message, reqID)
			return
		}
	}
	logger.From(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("auth request failed")
	api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", reqID)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload credentialsRequest
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("cpf", payload.CPF, "is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	principal, err := h.Service.Login(r.Context(), payload.CPF, payload.Password)
	if err != nil {
		logger.From(r.Context()).Info().Err(err).Str("cpf", employee.MaskCPF(payload.CPF)).Msg("login refused")
		fail(w, r, err)
		return
	}
	token, expires, err := h.Service.StartSession(r.Context(), principal)
	if err != nil {
		fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	api.Success(w, loginResponse{Token: token, ExpiresAt: expires, User: principal}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload credentialsRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := h.Service.Register(r.Context(), payload.CPF, payload.Password); err != nil {
		fail(w, r, err)
		return
	}
	api.Created(w, map[string]string{"status": "registered"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCheckCPF(w http.ResponseWriter, r *http.Request) {
	var payload cpfRequest
	if !decode(w, r, &payload) {
		return
	}
	status, err := h.Service.CheckCPF(r.Context(), payload.CPF)
	if err != nil {
		fail(w, r, err)
		return
	}
	api.Success(w, status, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.GetUser(r.Context()); ok {
		if err := h.Service.EndSession(r.Context(), user.SessionID); err != nil {
			logger.From(r.Context()).Warn().Err(err).Str("userId", user.UserID).Msg("logout session revoke failed")
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload changePasswordRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := h.Service.ChangePassword(r.Context(), user.UserID, payload.CurrentPassword, payload.NewPassword); err != nil {
		fail(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "password_changed"}, middleware.GetRequestID(r.Context()))
}

// handleMe returns the session snapshot, not the current account row.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}
