// Package handler exposes admin login, user management and the role editor over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kycdesk/internal/access"
	"kycdesk/internal/access/models"
	"kycdesk/internal/platform/middleware"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/platform/httputil"
	"kycdesk/pkg/requestcontext"
)

// Service is the access control surface the handler needs.
type Service interface {
	Login(ctx context.Context, email, password string) (*access.LoginResult, error)
	Authorize(ctx context.Context, userID, permission string) (bool, error)
	HasPermission(ctx context.Context, user *models.User, permission models.Permission) bool
	ListUsers(ctx context.Context) []models.User
	SearchUsers(ctx context.Context, term string) []models.User
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, in access.CreateUserInput) (*models.User, error)
	UpdateUser(ctx context.Context, id string, in access.UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	RolePermissions(ctx context.Context) []models.RolePermissions
	UpdateRolePermissions(ctx context.Context, role models.Role, permissions []string, description *string) (*models.RolePermissions, error)
}

// Handler serves /admin/login, /admin/me, /admin/users and /admin/roles.
type Handler struct {
	service   Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

// New creates a Handler.
func New(service Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{service: service, logger: logger, validator: validator}
}

// Register mounts the routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Get("/admin/me", h.handleMe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(h.service, h.logger, string(models.PermManageUsers)))
			r.Get("/admin/users", h.handleListUsers)
			r.Post("/admin/users", h.handleCreateUser)
			r.Get("/admin/users/{id}", h.handleGetUser)
			r.Patch("/admin/users/{id}", h.handleUpdateUser)
			r.Delete("/admin/users/{id}", h.handleDeleteUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(h.service, h.logger, string(models.PermManageRoles)))
			r.Get("/admin/roles", h.handleListRoles)
			r.Put("/admin/roles/{role}", h.handleUpdateRole)
		})
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[loginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(ctx, w, "login failed", err)
		return
	}
	h.logger.InfoContext(ctx, "admin logged in",
		"request_id", requestID,
		"user_id", res.User.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.service.GetUser(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "current user lookup failed", err)
		return
	}
	perms := []models.Permission{}
	for _, info := range models.Catalogue {
		if h.service.HasPermission(ctx, user, info.Name) {
			perms = append(perms, info.Name)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, meResponse{User: *user, Permissions: perms})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var users []models.User
	if q := r.URL.Query().Get("q"); q != "" {
		users = h.service.SearchUsers(ctx, q)
	} else {
		users = h.service.ListUsers(ctx)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[createUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	user, err := h.service.CreateUser(ctx, access.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Role:     models.Role(req.Role),
		Password: req.Password,
		Active:   active,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "create user failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.service.GetUser(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(ctx, w, "get user failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[updateUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	in := access.UpdateUserInput{Email: req.Email, Name: req.Name, Active: req.Active, Password: req.Password}
	if req.Role != nil {
		role := models.Role(*req.Role)
		in.Role = &role
	}
	user, err := h.service.UpdateUser(ctx, chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(ctx, w, "update user failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if id == requestcontext.UserID(ctx) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "cannot delete your own account"))
		return
	}
	if err := h.service.DeleteUser(ctx, id); err != nil {
		h.writeServiceError(ctx, w, "delete user failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, rolesResponse{
		Roles:       h.service.RolePermissions(r.Context()),
		Permissions: models.Catalogue,
	})
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	role, err := models.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[updateRoleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	rp, err := h.service.UpdateRolePermissions(ctx, role, req.Permissions, req.Description)
	if err != nil {
		h.writeServiceError(ctx, w, "update role failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rp)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeStorage:
		h.logger.ErrorContext(ctx, msg, attrs...)
	default:
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
