// Package handler exposes the intake wizard under /kyc/sessions.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kycdesk/internal/kyc/models"
	"kycdesk/internal/wizard"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/platform/httputil"
	"kycdesk/pkg/requestcontext"
)

// Service is the wizard surface the handler drives.
type Service interface {
	Start(ctx context.Context) *wizard.State
	Get(ctx context.Context, id string) (*wizard.State, error)
	UpdatePersonalInfo(ctx context.Context, id string, info models.PersonalInfo) (*wizard.State, error)
	AttachImage(ctx context.Context, id string, kind models.ImageKind, payload string) (*wizard.State, error)
	Next(ctx context.Context, id string) (*wizard.State, error)
	Previous(ctx context.Context, id string) (*wizard.State, error)
	Submit(ctx context.Context, id string) (*wizard.State, error)
	Restart(ctx context.Context, id string) (*wizard.State, error)
	Export(ctx context.Context, id string) (*wizard.Export, error)
}

// Handler serves the public wizard routes.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the wizard routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/kyc/sessions", func(r chi.Router) {
		r.Post("/", h.handleStart)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/personal-info", h.handlePersonalInfo)
			r.Put("/images/{kind}", h.handleImage)
			r.Post("/next", h.step(h.service.Next, "next"))
			r.Post("/previous", h.step(h.service.Previous, "previous"))
			r.Post("/submit", h.step(h.service.Submit, "submit"))
			r.Post("/restart", h.step(h.service.Restart, "restart"))
			r.Get("/export", h.handleExport)
		})
	})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusCreated, h.service.Start(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, "get", st, err)
}

type personalInfoRequest struct {
	models.PersonalInfo
}

func (p *personalInfoRequest) Normalize() { p.PersonalInfo.Normalize() }

// Validate only rejects malformed values; completeness is checked on next.
func (p *personalInfoRequest) Validate() error {
	if p.DocumentType != "" && !p.DocumentType.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "document_type must be one of national-id, passport, driving-license")
	}
	return nil
}

func (h *Handler) handlePersonalInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[personalInfoRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	st, err := h.service.UpdatePersonalInfo(ctx, chi.URLParam(r, "id"), req.PersonalInfo)
	h.respond(w, r, "update personal info", st, err)
}

type imageRequest struct {
	Image string `json:"image"`
}

func (i *imageRequest) Normalize() {}

func (i *imageRequest) Validate() error {
	if i.Image == "" {
		return dErrors.New(dErrors.CodeValidation, "image is required")
	}
	return nil
}

func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, ok := models.ParseImageKind(chi.URLParam(r, "kind"))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown image kind"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[imageRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	st, err := h.service.AttachImage(ctx, chi.URLParam(r, "id"), kind, req.Image)
	h.respond(w, r, "attach image", st, err)
}

func (h *Handler) step(fn func(context.Context, string) (*wizard.State, error), op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := fn(r.Context(), chi.URLParam(r, "id"))
		h.respond(w, r, op, st, err)
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Export(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respond(w, r, "export", nil, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Body)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op string, st *wizard.State, err error) {
	if err != nil {
		ctx := r.Context()
		attrs := []any{
			"request_id", requestcontext.RequestID(ctx),
			"session_id", chi.URLParam(r, "id"),
			"op", op,
			"error", err,
		}
		switch dErrors.CodeOf(err) {
		case dErrors.CodeInternal, dErrors.CodeStorage, dErrors.CodeVerificationFailed:
			h.logger.ErrorContext(ctx, "wizard operation failed", attrs...)
		default:
			h.logger.WarnContext(ctx, "wizard operation rejected", attrs...)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}
