package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lumigente/internal/domain/hierarchy"
	"lumigente/internal/domain/users"
	"lumigente/internal/platform/logger"
	"lumigente/internal/transport/http/api"
)

// Classifier is the part of hierarchy.Classifier the manager gate needs.
type Classifier interface {
	Classify(ctx context.Context, s hierarchy.Subject) (hierarchy.Classification, error)
}

// TargetAccess loads a target user and decides whether the current user may
// act on it.
type TargetAccess interface {
	Get(ctx context.Context, id string) (users.Account, error)
	CanAccess(current hierarchy.Subject, target users.Account) bool
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
}

func forbidden(w http.ResponseWriter, r *http.Request, message string) {
	api.Fail(w, http.StatusForbidden, "forbidden", message, GetRequestID(r.Context()))
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireManagerAccess admits administrators, full-access departments and
// anyone the classifier marks as a manager.
func RequireManagerAccess(classifier Classifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				unauthorized(w, r)
				return
			}
			if user.IsAdmin {
				next.ServeHTTP(w, r)
				return
			}
			class, err := classifier.Classify(r.Context(), user.Subject())
			if err != nil {
				logger.From(r.Context()).Error().Err(err).Str("userId", user.UserID).Msg("manager check failed")
				api.Fail(w, http.StatusInternalServerError, "hierarchy_unavailable", "hierarchy check failed", GetRequestID(r.Context()))
				return
			}
			if !class.IsFullAccess && !class.IsManager {
				forbidden(w, r, "manager, HR or T&D access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireHRAccess admits administrators and users of full-access departments.
func RequireHRAccess(access *hierarchy.AccessTable) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				unauthorized(w, r)
				return
			}
			if !user.IsAdmin && !access.IsFullAccess(user.Department) {
				forbidden(w, r, "HR or T&D access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin admits administrators only.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			unauthorized(w, r)
			return
		}
		if !user.IsAdmin {
			forbidden(w, r, "administrator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireHierarchyLevel uses the level captured in the session.
func RequireHierarchyLevel(minLevel int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				unauthorized(w, r)
				return
			}
			if !user.IsAdmin && user.HierarchyLevel < minLevel {
				forbidden(w, r, "insufficient hierarchy level")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CanAccessUser loads the user named by the route parameter and rejects the
// request unless the current user may access it. The loaded account is kept
// in the context for the handler.
func CanAccessUser(targets TargetAccess, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				unauthorized(w, r)
				return
			}
			id := strings.TrimSpace(chi.URLParam(r, param))
			if id == "" {
				api.Fail(w, http.StatusBadRequest, "invalid_request", "user id is required", GetRequestID(r.Context()))
				return
			}
			target, err := targets.Get(r.Context(), id)
			if errors.Is(err, users.ErrNotFound) {
				api.Fail(w, http.StatusNotFound, "not_found", "user not found", GetRequestID(r.Context()))
				return
			}
			if err != nil {
				logger.From(r.Context()).Error().Err(err).Str("targetId", id).Msg("load target user failed")
				api.Fail(w, http.StatusInternalServerError, "user_lookup_failed", "failed to load user", GetRequestID(r.Context()))
				return
			}
			if !targets.CanAccess(user.Subject(), target) {
				forbidden(w, r, "access to this user is not allowed")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyTarget, target)))
		})
	}
}

func GetTarget(ctx context.Context) (users.Account, bool) {
	target, ok := ctx.Value(ctxKeyTarget).(users.Account)
	return target, ok
}
