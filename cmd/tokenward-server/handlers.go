package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	tokenward "github.com/tokenward/tokenward"
	"github.com/tokenward/tokenward/middleware"
)

type server struct {
	engine *tokenward.Engine
	logger *slog.Logger
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type cleanupResponse struct {
	Removed int `json:"removed"`
}

type sessionResponse struct {
	Subject string   `json:"subject"`
	Roles   []string `json:"roles"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	ctx := tokenward.WithClientIP(r.Context(), remoteIP(r))
	pair, err := s.engine.Login(ctx, req.Username, req.Password)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	pair, err := s.engine.Refresh(r.Context(), token)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := s.engine.Logout(r.Context(), token); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Subject: claims.Subject, Roles: claims.RoleList()})
}

func (s *server) handleRevokeAll(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.RevokeAll(r.Context()); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRevokeUser lets any authenticated user revoke their own sessions;
// targeting another subject requires the admin role.
func (s *server) handleRevokeUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user id required")
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if claims.Subject != userID && !claims.HasAdminRole() {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := s.engine.RevokeUser(r.Context(), userID); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := s.engine.Cleanup(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cleanupResponse{Removed: removed})
}

func (s *server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeEngineError maps engine sentinels onto HTTP statuses. Credential
// and token rejections collapse to 401 so callers learn nothing beyond
// "not accepted"; revocation-disabled is the caller asking a stateless
// deployment for state, reported as 501.
func (s *server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tokenward.ErrWrongCredentials),
		errors.Is(err, tokenward.ErrInvalidToken),
		errors.Is(err, tokenward.ErrTokenExpired),
		errors.Is(err, tokenward.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, tokenward.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, tokenward.ErrRevocationDisabled):
		writeError(w, http.StatusNotImplemented, "revocation tracking disabled")
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func bearerToken(r *http.Request) (string, bool) {
	const bearer = "Bearer "
	value := r.Header.Get("Authorization")
	if !strings.HasPrefix(value, bearer) || value == bearer {
		return "", false
	}
	return value[len(bearer):], true
}

func remoteIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
