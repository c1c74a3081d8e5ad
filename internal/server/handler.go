// Package server exposes the interview orchestrator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/session"
)

const maxBodyBytes = 1 << 20

// Interviewer is the orchestrator surface served over HTTP.
type Interviewer interface {
	CreateSession(ctx context.Context, req session.CreateRequest) (*session.Created, error)
	SubmitResponse(ctx context.Context, sessionID, answer string) (*session.Turn, error)
	GetSession(ctx context.Context, sessionID string) (*session.Snapshot, error)
	CompleteSession(ctx context.Context, sessionID string) error
	AbandonSession(ctx context.Context, sessionID string) error
	HealthCheck(ctx context.Context) bool
}

// Handler serves the session routes.
type Handler struct {
	svc    Interviewer
	logger *zap.Logger
}

func NewHandler(svc Interviewer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the session routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Delete("/", h.handleCompleteSession)
			r.Post("/responses", h.handleSubmitResponse)
			r.Post("/abandon", h.handleAbandonSession)
		})
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Profile.Skills) == 0 {
		respondError(w, http.StatusBadRequest, "profile.skills is required")
		return
	}

	created, err := h.svc.CreateSession(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, "create session", err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Answer string `json:"answer"`
	}
	if err := decodeBody(w, r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.svc.SubmitResponse(r.Context(), chi.URLParam(r, "sessionID"), payload.Answer)
	if err != nil {
		h.respondServiceError(w, "submit response", err)
		return
	}
	respondJSON(w, http.StatusOK, turn)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, "get session", err)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CompleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondServiceError(w, "complete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.AbandonSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondServiceError(w, "abandon session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.svc.HealthCheck(r.Context()) {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("operation", op), zap.Error(err))
	}
	respondError(w, status, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, session.ErrSessionNotFound.Error()
	case errors.Is(err, session.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, session.ErrBackendUnavailable.Error()
	case errors.Is(err, session.ErrSessionExists):
		return http.StatusConflict, session.ErrSessionExists.Error()
	case errors.Is(err, session.ErrEmptyAnswer):
		return http.StatusBadRequest, session.ErrEmptyAnswer.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": strings.TrimSpace(message)})
}
