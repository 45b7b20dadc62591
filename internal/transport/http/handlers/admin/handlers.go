package adminhandler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"lumigente/internal/domain/audit"
	"lumigente/internal/domain/hierarchy"
	"lumigente/internal/domain/users"
	"lumigente/internal/domain/usersync"
	"lumigente/internal/platform/jobs"
	"lumigente/internal/platform/logger"
	"lumigente/internal/platform/metrics"
	"lumigente/internal/transport/http/api"
	"lumigente/internal/transport/http/middleware"
	"lumigente/internal/transport/http/shared"
)

type AuditLister interface {
	Count(ctx context.Context, filter audit.Filter) (int, error)
	List(ctx context.Context, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
}

type UserSyncer interface {
	SyncOne(ctx context.Context, userID string) (usersync.Outcome, error)
}

type Handler struct {
	Jobs    *jobs.Service
	SyncAll jobs.RunFunc
	Syncer  UserSyncer
	Metrics *metrics.Collector
	Audit   AuditLister
	Access  *hierarchy.AccessTable
}

func NewHandler(jobService *jobs.Service, syncAll jobs.RunFunc, syncer UserSyncer, collector *metrics.Collector, auditor AuditLister, access *hierarchy.AccessTable) *Handler {
	return &Handler{Jobs: jobService, SyncAll: syncAll, Syncer: syncer, Metrics: collector, Audit: auditor, Access: access}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireHRAccess(h.Access))
		r.Post("/sync", h.handleSyncAll)
		r.Post("/sync/{userID}", h.handleSyncOne)
		r.Get("/audit", h.handleAudit)
		if h.Metrics != nil {
			r.Get("/metrics", h.handleMetrics)
		}
	})
}

// handleSyncAll runs a full sync in the request, or queues it when async is
// set.
func (h *Handler) handleSyncAll(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if !h.Jobs.Enqueue(r.Context(), jobs.JobUserSync, h.SyncAll) {
			api.Fail(w, http.StatusServiceUnavailable, "queue_full", "sync queue is full", reqID)
			return
		}
		api.WriteJSON(w, http.StatusAccepted, api.Envelope{Success: true, Data: map[string]string{"status": "queued"}, RequestID: reqID})
		return
	}
	result, err := h.Jobs.RunNow(r.Context(), jobs.JobUserSync, h.SyncAll)
	if err != nil {
		logger.From(r.Context()).Error().Err(err).Msg("sync run failed")
		api.FailWithDetails(w, http.StatusBadGateway, "sync_failed", "user sync failed", result, reqID)
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleSyncOne(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := strings.TrimSpace(chi.URLParam(r, "userID"))
	outcome, err := h.Syncer.SyncOne(r.Context(), id)
	if errors.Is(err, users.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", reqID)
		return
	}
	if err != nil {
		logger.From(r.Context()).Error().Err(err).Str("userId", id).Msg("user sync failed")
		api.Fail(w, http.StatusBadGateway, "sync_failed", "user sync failed", reqID)
		return
	}
	api.Success(w, map[string]any{"userId": id, "outcome": outcome}, reqID)
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	v := shared.NewValidator()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		ActorUser:  q.Get("actorUserId"),
	}
	if raw := q.Get("since"); raw != "" {
		filter.Since, _ = v.Date("since", raw)
	}
	if raw := q.Get("until"); raw != "" {
		filter.Until, _ = v.Date("until", raw)
	}
	v.DateOrder("since", filter.Since, "until", filter.Until)
	if v.Reject(w, reqID) {
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	includeDetails := q.Get("includeDetails") == "true"
	total, err := h.Audit.Count(r.Context(), filter)
	if err != nil {
		logger.From(r.Context()).Warn().Err(err).Msg("audit count failed")
	}
	events, err := h.Audit.List(r.Context(), filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		logger.From(r.Context()).Error().Err(err).Msg("audit list failed")
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", reqID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, events, reqID)
}
