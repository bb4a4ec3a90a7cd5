package handler

import (
	"net/http"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/polite-betrayal/planner/internal/auth"
)

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// AuthHandler issues and refreshes client tokens.
type AuthHandler struct {
	jwtMgr  *auth.JWTManager
	devAuth bool
}

// NewAuthHandler creates an AuthHandler. devAuth enables IssueToken.
func NewAuthHandler(jwtMgr *auth.JWTManager, devAuth bool) *AuthHandler {
	return &AuthHandler{jwtMgr: jwtMgr, devAuth: devAuth}
}

// IssueToken handles POST /auth/token. It signs a token pair for any
// client ID and is only available in dev auth mode.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if !h.devAuth {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	var req struct {
		ClientID string `json:"client_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !clientIDPattern.MatchString(req.ClientID) {
		writeError(w, http.StatusBadRequest, "client_id must be 1-64 letters, digits, '.', '_' or '-'")
		return
	}

	tokens, err := h.jwtMgr.GenerateTokenPair(req.ClientID)
	if err != nil {
		log.Error().Err(err).Str("clientId", req.ClientID).Msg("Failed to sign token pair")
		writeError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// RefreshToken handles POST /auth/refresh.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.jwtMgr.Refresh(req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}
