package httpapi

import (
	"net/http"
	"strings"
	"time"

	"faithresponders.org/internal/auth"
)

type tokenRequest struct {
	User string `json:"user"`
}

// handleToken mints a development token for the given user id. Production
// deployments front this API with a real identity provider and disable the
// endpoint at the proxy.
func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user := strings.TrimSpace(req.User)
	if user == "" {
		writeError(w, r, http.StatusBadRequest, "user is required")
		return
	}

	token, err := auth.GenerateToken(user, time.Hour)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": int(time.Hour.Seconds()),
	})
}
