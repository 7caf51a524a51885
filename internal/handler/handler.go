package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"netfence/internal/domain"
	"netfence/internal/service"
)

// Handler exposes the security core over HTTP.
type Handler struct {
	auth   *service.AuthService
	policy *service.PolicyService
	audit  *service.AuditRecorder
	log    zerolog.Logger
}

// New creates the API handler.
func New(auth *service.AuthService, policy *service.PolicyService, audit *service.AuditRecorder, log zerolog.Logger) *Handler {
	return &Handler{
		auth:   auth,
		policy: policy,
		audit:  audit,
		log:    log.With().Str("component", "http").Logger(),
	}
}

// ErrorResponse is the JSON shape of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message, Details: details}); err != nil {
		h.log.Error().Err(err).Msg("failed to encode error response")
	}
}

// writeServiceError maps the service error taxonomy onto HTTP status
// codes. Storage failures are logged and answered generically so
// internal detail never reaches a client.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeError(w, "Validation failed", verr.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidCredentials):
		h.writeError(w, "Invalid username or password", "", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrAccountLocked):
		h.writeError(w, "Account temporarily locked due to too many failed attempts", "", http.StatusLocked)
	case errors.Is(err, domain.ErrInvalidSession):
		h.writeError(w, "Invalid or expired session", "", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrForbidden):
		h.writeError(w, "Admin access required", "", http.StatusForbidden)
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, "Not found", "", http.StatusNotFound)
	case errors.Is(err, domain.ErrConflict):
		h.writeError(w, "Conflict with existing resource", "", http.StatusConflict)
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		h.writeError(w, "Internal server error", "", http.StatusInternalServerError)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		h.writeError(w, "Invalid "+name, "must be a numeric id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// clientIP extracts the request origin, honoring the reverse-proxy
// headers in precedence order before falling back to the socket peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

func (h *Handler) actor(r *http.Request) service.Actor {
	principal := PrincipalFrom(r.Context())
	return service.Actor{ID: principal.ID, Origin: clientIP(r)}
}
