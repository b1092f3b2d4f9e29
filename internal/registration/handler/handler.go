// Package handler exposes admission control over HTTP. Handlers stay thin:
// parse, delegate, map coded errors to statuses.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pulsefit/internal/platform/middleware"
	"pulsefit/internal/registration"
	id "pulsefit/pkg/domain"
	dErrors "pulsefit/pkg/domainerrors"
	"pulsefit/pkg/requestcontext"
)

// Service defines the admission operations the handler delegates to.
type Service interface {
	Register(ctx context.Context, eventID id.EventID, userID id.UserID) (registration.Decision, error)
	Cancel(ctx context.Context, eventID id.EventID, userID id.UserID) (registration.Decision, error)
	Snapshot(ctx context.Context, eventID id.EventID) (registration.Snapshot, error)
	Roster(ctx context.Context, eventID id.EventID) ([]registration.Registration, error)
}

// Handler handles event registration endpoints.
type Handler struct {
	service   Service
	logger    *slog.Logger
	validator *middleware.JWTValidator
	limiter   func(http.Handler) http.Handler
}

// New creates a registration Handler. limiter may be nil.
func New(service Service, logger *slog.Logger, validator *middleware.JWTValidator, limiter func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, logger: logger, validator: validator, limiter: limiter}
}

// Register mounts the event registration routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/events/{eventID}", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.Timeout(10 * time.Second))

		r.Get("/capacity", h.handleCapacity)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.validator, h.logger))
			if h.limiter != nil {
				r.Use(h.limiter)
			}
			r.Post("/register", h.handleRegister)
			r.Post("/cancel", h.handleCancel)
			r.Get("/registrations", h.handleRoster)
		})
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, ok := h.eventID(w, r)
	if !ok {
		return
	}
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		writeError(w, dErrors.New(dErrors.CodeUnauthorized, "missing authenticated user"))
		return
	}

	decision, err := h.service.Register(ctx, eventID, userID)
	if err != nil {
		h.logOutcome(ctx, "register", err)
		writeError(w, err)
		return
	}

	switch decision.Kind {
	case registration.DecisionSeated:
		writeJSON(w, http.StatusOK, registerResponse{Status: "SEATED"})
	case registration.DecisionWaitlisted:
		writeJSON(w, http.StatusOK, registerResponse{Status: "WAITLISTED", Position: decision.Position})
	default:
		writeError(w, dErrors.New(dErrors.CodeInternal, "unexpected decision"))
	}
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, ok := h.eventID(w, r)
	if !ok {
		return
	}
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		writeError(w, dErrors.New(dErrors.CodeUnauthorized, "missing authenticated user"))
		return
	}

	decision, err := h.service.Cancel(ctx, eventID, userID)
	if err != nil {
		h.logOutcome(ctx, "cancel", err)
		writeError(w, err)
		return
	}

	resp := cancelResponse{Status: "CANCELLED"}
	if decision.Promoted != nil {
		promoted := decision.Promoted.String()
		resp.Promoted = &promoted
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCapacity(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.eventID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Snapshot(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, capacityResponse{
		RegisteredCount: snap.RegisteredCount,
		WaitlistCount:   snap.WaitlistCount,
		SpotsLeft:       snap.SpotsLeft,
	})
}

func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.eventID(w, r)
	if !ok {
		return
	}
	regs, err := h.service.Roster(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	entries := make([]rosterEntry, 0, len(regs))
	for _, reg := range regs {
		entries = append(entries, rosterEntry{
			UserID:      reg.UserID.String(),
			Status:      string(reg.Status),
			Position:    reg.Position,
			RequestedAt: reg.RequestedAt,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) eventID(w http.ResponseWriter, r *http.Request) (id.EventID, bool) {
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid event id"))
		return id.EventID{}, false
	}
	return eventID, true
}

func (h *Handler) logOutcome(ctx context.Context, operation string, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal || code == dErrors.CodeUnavailable {
		h.logger.ErrorContext(ctx, "admission operation failed",
			"operation", operation,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	h.logger.InfoContext(ctx, "admission rejected",
		"operation", operation,
		"code", string(code),
		"request_id", requestcontext.RequestID(ctx),
	)
}
