package httpapi

import (
	"net/http"

	"faithresponders.org/internal/messaging"
)

func (a *API) handleMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.sendMessage(w, r)
	case http.MethodGet:
		a.listThread(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

// handleBroadcast is an alias for coordinators' tooling; same semantics as
// POST /v1/messages.
func (a *API) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.sendMessage(w, r)
}

func (a *API) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req messaging.SendInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	msg, err := a.svc.Messaging.Send(r.Context(), callerID(r), req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (a *API) listThread(w http.ResponseWriter, r *http.Request) {
	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 100, 1, 1000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	threadID := r.URL.Query().Get("threadId")
	if threadID == "" {
		writeError(w, r, http.StatusBadRequest, "threadId query parameter is required")
		return
	}
	items, err := a.svc.Messaging.Thread(r.Context(), callerID(r), threadID, limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
