package usershandler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lumigente/internal/domain/users"
	"lumigente/internal/platform/logger"
	"lumigente/internal/platform/report"
	"lumigente/internal/transport/http/api"
	"lumigente/internal/transport/http/middleware"
)

type Handler struct {
	Service    *users.Service
	Classifier middleware.Classifier
	Now        func() time.Time
}

func NewHandler(service *users.Service, classifier middleware.Classifier) *Handler {
	return &Handler{Service: service, Classifier: classifier, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleAccessible)
		r.Get("/feedback", h.handleFeedback)
		r.Get("/superiors", h.handleSuperiors)
		r.With(middleware.RequireManagerAccess(h.Classifier)).Get("/subordinates", h.handleSubordinates)
		r.With(middleware.RequireManagerAccess(h.Classifier)).Get("/team/roster.pdf", h.handleRoster)
		r.With(middleware.CanAccessUser(h.Service, "userID")).Get("/{userID}", h.handleGet)
	})
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	logger.From(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
	api.Fail(w, http.StatusInternalServerError, code, message, middleware.GetRequestID(r.Context()))
}

// handleAccessible lists the users visible to the caller. The department
// query parameter narrows the list; "Todos" or empty means no narrowing.
func (h *Handler) handleAccessible(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	filter := users.Filter{Department: r.URL.Query().Get("department")}
	members, err := h.Service.GetAccessibleUsers(r.Context(), user.Subject(), filter)
	if err != nil {
		h.internalError(w, r, err, "users_list_failed", "failed to list users")
		return
	}
	api.Success(w, members, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	members, err := h.Service.GetUsersForFeedback(r.Context())
	if err != nil {
		h.internalError(w, r, err, "users_list_failed", "failed to list users")
		return
	}
	api.Success(w, members, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	target, _ := middleware.GetTarget(r.Context())
	api.Success(w, h.Service.Member(target), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubordinates(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	members, err := h.Service.Subordinates(r.Context(), user.Subject())
	if err != nil {
		h.internalError(w, r, err, "subordinates_failed", "failed to list subordinates")
		return
	}
	api.Success(w, members, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSuperiors(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	members, err := h.Service.Superiors(r.Context(), user.Subject())
	if err != nil {
		h.internalError(w, r, err, "superiors_failed", "failed to list superiors")
		return
	}
	api.Success(w, members, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	filter := users.Filter{Department: r.URL.Query().Get("department")}
	members, err := h.Service.GetAccessibleUsers(r.Context(), user.Subject(), filter)
	if err != nil {
		h.internalError(w, r, err, "users_list_failed", "failed to list users")
		return
	}

	var buf bytes.Buffer
	err = report.WriteTeamRoster(&buf, report.Roster{
		Title:       "Equipe de " + user.FullName,
		Owner:       user.FullName,
		GeneratedAt: h.Now(),
		Members:     members,
	})
	if err != nil {
		h.internalError(w, r, err, "roster_failed", "failed to render roster")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=equipe.pdf")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.From(r.Context()).Warn().Err(err).Msg("roster write failed")
	}
}
