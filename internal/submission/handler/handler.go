// Package handler serves the admin dashboard and submission review endpoints.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	accessmodels "kycdesk/internal/access/models"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/platform/middleware"
	"kycdesk/internal/submission"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/platform/httputil"
	"kycdesk/pkg/requestcontext"
)

// recentLimit is how many submissions the dashboard lists.
const recentLimit = 5

// Service is the submission surface the handler needs.
type Service interface {
	List(ctx context.Context) []*models.Submission
	Get(ctx context.Context, id string) *models.Submission
	Images(ctx context.Context, id string) map[models.ImageKind]string
	Search(ctx context.Context, f submission.Filter, page int) submission.Page
	Stats(ctx context.Context) submission.Stats
	SetStatus(ctx context.Context, id string, status models.Status) bool
	Export(ctx context.Context, id string) ([]byte, error)
}

// Handler serves /admin/dashboard and /admin/submissions.
type Handler struct {
	service   Service
	authz     middleware.PermissionChecker
	validator middleware.TokenValidator
	logger    *slog.Logger
}

// New creates a Handler.
func New(service Service, authz middleware.PermissionChecker, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{service: service, authz: authz, validator: validator, logger: logger}
}

// Register mounts the admin review routes on r behind bearer authentication.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))

		r.With(h.require(accessmodels.PermViewDashboard)).Get("/admin/dashboard", h.handleDashboard)
		r.With(h.require(accessmodels.PermViewSubmissions)).Get("/admin/submissions", h.handleList)
		r.With(h.require(accessmodels.PermViewSubmissionDetails)).Get("/admin/submissions/{id}", h.handleGet)
		r.With(h.require(accessmodels.PermExportData)).Get("/admin/submissions/{id}/export", h.handleExport)
		// Permission depends on the requested status, so it is checked in the handler.
		r.Put("/admin/submissions/{id}/status", h.handleSetStatus)
	})
}

func (h *Handler) require(perms ...accessmodels.Permission) func(http.Handler) http.Handler {
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = string(p)
	}
	return middleware.RequirePermission(h.authz, h.logger, names...)
}

type dashboardResponse struct {
	Stats  submission.Stats     `json:"stats"`
	Recent []*models.Submission `json:"recent"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	all := h.service.List(ctx)
	recent := slices.Clone(all[max(0, len(all)-recentLimit):])
	slices.Reverse(recent)
	httputil.WriteJSON(w, http.StatusOK, dashboardResponse{
		Stats:  h.service.Stats(ctx),
		Recent: recent,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var f submission.Filter
	if raw := q.Get("status"); raw != "" && raw != "all" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		f.Status = status
	}
	if raw := q.Get("document_type"); raw != "" && raw != "all" {
		dt, err := models.ParseDocumentType(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		f.DocumentType = dt
	}
	f.Query = q.Get("q")

	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "page must be a positive integer"))
			return
		}
		page = n
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.Search(ctx, f, page))
}

type detailResponse struct {
	Submission *models.Submission           `json:"submission"`
	Images     map[models.ImageKind]string `json:"images"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	sub := h.service.Get(ctx, id)
	if sub == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "submission not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detailResponse{Submission: sub, Images: h.service.Images(ctx, id)})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (r *statusRequest) Normalize() {
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

func (r *statusRequest) Validate() error {
	if r.Status == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	return nil
}

// statusPermissions lists the permissions that may set each status; holding any one suffices.
var statusPermissions = map[models.Status][]accessmodels.Permission{
	models.StatusApproved: {accessmodels.PermApproveSubmissions},
	models.StatusRejected: {accessmodels.PermRejectSubmissions},
	models.StatusFlagged:  {accessmodels.PermFlagSubmissions},
	models.StatusPending: {
		accessmodels.PermApproveSubmissions,
		accessmodels.PermRejectSubmissions,
		accessmodels.PermFlagSubmissions,
	},
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id := chi.URLParam(r, "id")

	req, ok := httputil.DecodeAndPrepare[statusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	allowed, err := h.allowedAny(ctx, statusPermissions[status])
	if err != nil {
		h.logger.ErrorContext(ctx, "permission lookup failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "permission lookup failed"))
		return
	}
	if !allowed {
		h.logger.WarnContext(ctx, "status change denied",
			"request_id", requestID,
			"user_id", requestcontext.UserID(ctx),
			"status", status,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "insufficient permissions to set status "+string(status)))
		return
	}

	if h.service.Get(ctx, id) == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "submission not found"))
		return
	}
	if !h.service.SetStatus(ctx, id, status) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeStorage, "status update was not saved"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.Get(ctx, id))
}

func (h *Handler) allowedAny(ctx context.Context, perms []accessmodels.Permission) (bool, error) {
	userID := requestcontext.UserID(ctx)
	for _, p := range perms {
		ok, err := h.authz.Authorize(ctx, userID, string(p))
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	body, err := h.service.Export(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "submission export failed",
			"request_id", requestcontext.RequestID(ctx),
			"submission_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".json"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
