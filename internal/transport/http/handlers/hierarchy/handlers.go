package hierarchyhandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lumigente/internal/domain/hierarchy"
	"lumigente/internal/domain/users"
	"lumigente/internal/platform/logger"
	"lumigente/internal/transport/http/api"
	"lumigente/internal/transport/http/middleware"
	"lumigente/internal/transport/http/shared"
)

type Resolver interface {
	Resolve(ctx context.Context, employeeNumber, cpf string) hierarchy.Resolution
}

type Handler struct {
	Classifier middleware.Classifier
	Resolver   Resolver
	Users      *users.Service
	Access     *hierarchy.AccessTable
}

func NewHandler(classifier middleware.Classifier, resolver Resolver, directory *users.Service, access *hierarchy.AccessTable) *Handler {
	return &Handler{Classifier: classifier, Resolver: resolver, Users: directory, Access: access}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/me/permissions", h.handlePermissions)
	r.Route("/hierarchy", func(r chi.Router) {
		r.Use(middleware.RequireHRAccess(h.Access))
		r.Get("/stats", h.handleStats)
		r.Get("/resolve", h.handleResolve)
	})
}

type permissionsResponse struct {
	Tabs               hierarchy.Tabs `json:"permissions"`
	IsManager          bool           `json:"isManager"`
	IsFullAccess       bool           `json:"isFullAccess"`
	ManagerType        string         `json:"managerType"`
	HierarchyLevel     int            `json:"hierarchyLevel"`
	Role               string         `json:"role"`
	ManagedDepartments []string       `json:"managedDepartments"`
	HierarchyPaths     []string       `json:"hierarchyPaths"`
}

// handlePermissions reports the caller's tabs and managerial standing. The
// level is the one captured in the session; the classification is live.
func (h *Handler) handlePermissions(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	class, err := h.Classifier.Classify(r.Context(), user.Subject())
	if err != nil {
		logger.From(r.Context()).Error().Err(err).Str("userId", user.UserID).Msg("classification failed")
		api.Fail(w, http.StatusInternalServerError, "hierarchy_unavailable", "failed to load permissions", middleware.GetRequestID(r.Context()))
		return
	}

	out := permissionsResponse{
		Tabs:               hierarchy.TabsFor(class, user.IsAdmin),
		IsManager:          class.IsManager,
		IsFullAccess:       class.IsFullAccess,
		ManagerType:        class.ManagerType,
		HierarchyLevel:     user.HierarchyLevel,
		Role:               user.Role,
		ManagedDepartments: []string{},
		HierarchyPaths:     []string{},
	}
	if class.IsManager {
		for _, dept := range class.ManagedDepartments {
			out.ManagedDepartments = append(out.ManagedDepartments, dept.Code)
			out.HierarchyPaths = append(out.HierarchyPaths, dept.Path)
		}
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Users.DepartmentStats(r.Context())
	if err != nil {
		logger.From(r.Context()).Error().Err(err).Msg("department stats failed")
		api.Fail(w, http.StatusInternalServerError, "stats_failed", "failed to load department stats", middleware.GetRequestID(r.Context()))
		return
	}
	total := 0
	for _, c := range counts {
		total += c.ActiveUsers
	}
	api.Success(w, map[string]any{
		"totalActiveUsers": total,
		"departments":      counts,
	}, middleware.GetRequestID(r.Context()))
}

// handleResolve shows where an employee lands in the org chart. Degraded
// outcomes are returned as data, not as errors.
func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	number := strings.TrimSpace(r.URL.Query().Get("employeeNumber"))
	cpf := strings.TrimSpace(r.URL.Query().Get("cpf"))
	v := shared.NewValidator()
	v.Required("employeeNumber", number, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	api.Success(w, h.Resolver.Resolve(r.Context(), number, cpf), middleware.GetRequestID(r.Context()))
}
