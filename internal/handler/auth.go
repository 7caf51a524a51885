package handler

import (
	"net/http"

	"netfence/internal/service"
)

// Login authenticates a username/password pair and returns a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		h.writeError(w, "Validation failed", "username and password are required", http.StatusBadRequest)
		return
	}

	session, err := h.auth.Login(r.Context(), req.Username, req.Password, clientIP(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, session, http.StatusOK)
}

// Me returns the principal behind the presented session.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, PrincipalFrom(r.Context()), http.StatusOK)
}

// ListUsers returns all accounts.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.auth.ListAccounts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, accounts, http.StatusOK)
}

// CreateUser creates an account.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input service.CreateAccountInput
	if !h.decode(w, r, &input) {
		return
	}

	account, err := h.auth.CreateAccount(r.Context(), PrincipalFrom(r.Context()), clientIP(r), input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, account, http.StatusCreated)
}

// DeleteUser removes an account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.auth.DeleteAccount(r.Context(), PrincipalFrom(r.Context()), clientIP(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword updates an account's credential.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	err := h.auth.ChangePassword(r.Context(), PrincipalFrom(r.Context()), clientIP(r), id, req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAudit returns the newest audit entries.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			h.writeError(w, "Invalid limit", "must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := h.audit.List(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, entries, http.StatusOK)
}
