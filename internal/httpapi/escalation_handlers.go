package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"faithresponders.org/internal/audit"
	"faithresponders.org/internal/escalation"
)

type escalationStatusRequest struct {
	Status     escalation.Status `json:"status"`
	AssignedTo string            `json:"assignedTo"`
}

type escalationResolveRequest struct {
	Resolution string `json:"resolution"`
}

func (a *API) handleEscalationsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createEscalation(w, r)
	case http.MethodGet:
		a.listEscalations(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleEscalationResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/escalations/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if id, ok := strings.CutSuffix(path, "/status"); ok {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.updateEscalationStatus(w, r, strings.TrimSuffix(id, "/"))
		return
	}
	if id, ok := strings.CutSuffix(path, "/resolve"); ok {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.resolveEscalation(w, r, strings.TrimSuffix(id, "/"))
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getEscalation(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

func (a *API) createEscalation(w http.ResponseWriter, r *http.Request) {
	var req escalation.CreateInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	esc, err := a.svc.Escalations.Create(r.Context(), callerID(r), req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "escalation.create", map[string]any{
		"escalation_id": esc.ID,
		"workgroup_id":  esc.WorkgroupID,
		"type":          esc.Type,
	})
	w.Header().Set("Location", "/v1/escalations/"+esc.ID)
	writeJSON(w, http.StatusCreated, esc)
}

func (a *API) listEscalations(w http.ResponseWriter, r *http.Request) {
	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 100, 1, 1000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	f := escalation.Filter{
		WorkgroupID: r.URL.Query().Get("workgroupId"),
		CenterID:    r.URL.Query().Get("centerId"),
		GroupID:     r.URL.Query().Get("groupId"),
		Status:      escalation.Status(r.URL.Query().Get("status")),
		Type:        escalation.Type(r.URL.Query().Get("type")),
		Limit:       limit,
	}
	items, err := a.svc.Escalations.List(r.Context(), callerID(r), f)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) getEscalation(w http.ResponseWriter, r *http.Request, id string) {
	esc, err := a.svc.Escalations.Get(r.Context(), callerID(r), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, esc)
}

func (a *API) updateEscalationStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req escalationStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.Escalations.UpdateStatus(r.Context(), callerID(r), id, req.Status, req.AssignedTo); err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "escalation.status_update", map[string]any{
		"escalation_id": id,
		"status":        req.Status,
	})
	writeSuccess(w)
}

func (a *API) resolveEscalation(w http.ResponseWriter, r *http.Request, id string) {
	var req escalationResolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.Escalations.Resolve(r.Context(), callerID(r), id, req.Resolution); err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "escalation.resolve", map[string]any{"escalation_id": id})
	writeSuccess(w)
}

// StreamEscalations handles Server-Sent Events for escalation activity.
func (a *API) StreamEscalations(w http.ResponseWriter, r *http.Request) {
	if a.svc.Stream == nil {
		http.Error(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch := a.svc.Stream.Subscribe(ctx)

	// Send an initial comment to establish the stream
	_, _ = w.Write([]byte(": stream started\n\n"))
	flusher.Flush()

	for event := range ch {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		_, _ = w.Write([]byte("data: "))
		_, _ = w.Write(payload)
		_, _ = w.Write([]byte("\n\n"))
		flusher.Flush()
	}
}
