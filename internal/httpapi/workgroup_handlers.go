package httpapi

import (
	"net/http"
	"strings"

	"faithresponders.org/internal/audit"
	"faithresponders.org/internal/workgroup"
)

type workgroupStatusRequest struct {
	Status    workgroup.TaskStatus `json:"status"`
	Note      string               `json:"note"`
	PhotoURLs []string             `json:"photoUrls"`
}

type addWorkerRequest struct {
	UserID string `json:"userId"`
}

func (a *API) handleWorkgroupsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createWorkgroup(w, r)
	case http.MethodGet:
		a.listWorkgroups(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleWorkgroupResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/workgroups/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if id, ok := strings.CutSuffix(path, "/status"); ok {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.updateWorkgroupStatus(w, r, strings.TrimSuffix(id, "/"))
		return
	}
	if id, ok := strings.CutSuffix(path, "/workers"); ok {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.addWorker(w, r, strings.TrimSuffix(id, "/"))
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getWorkgroup(w, r, path)
	case http.MethodPatch:
		a.updateWorkgroup(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) createWorkgroup(w http.ResponseWriter, r *http.Request) {
	var req workgroup.CreateInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	wg, err := a.svc.Workgroups.Create(r.Context(), callerID(r), req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "workgroup.create", map[string]any{
		"workgroup_id": wg.ID,
		"center_id":    wg.CenterID,
	})
	w.Header().Set("Location", "/v1/workgroups/"+wg.ID)
	writeJSON(w, http.StatusCreated, wg)
}

func (a *API) listWorkgroups(w http.ResponseWriter, r *http.Request) {
	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 100, 1, 1000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	f := workgroup.Filter{
		CenterID:     r.URL.Query().Get("centerId"),
		GroupID:      r.URL.Query().Get("groupId"),
		AssessmentID: r.URL.Query().Get("assessmentId"),
		TaskStatus:   workgroup.TaskStatus(r.URL.Query().Get("taskStatus")),
		Limit:        limit,
	}
	items, err := a.svc.Workgroups.List(r.Context(), callerID(r), f)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) getWorkgroup(w http.ResponseWriter, r *http.Request, id string) {
	wg, err := a.svc.Workgroups.Get(r.Context(), callerID(r), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wg)
}

func (a *API) updateWorkgroup(w http.ResponseWriter, r *http.Request, id string) {
	updates, err := decodePatch(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.Workgroups.Update(r.Context(), callerID(r), id, updates); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (a *API) updateWorkgroupStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req workgroupStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.Workgroups.UpdateStatus(r.Context(), callerID(r), id, req.Status, req.Note, req.PhotoURLs); err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "workgroup.status_update", map[string]any{
		"workgroup_id": id,
		"status":       req.Status,
	})
	writeSuccess(w)
}

func (a *API) addWorker(w http.ResponseWriter, r *http.Request, id string) {
	var req addWorkerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.Workgroups.AddWorker(r.Context(), callerID(r), id, req.UserID); err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "workgroup.worker_add", map[string]any{
		"workgroup_id": id,
		"user_id":      req.UserID,
	})
	writeSuccess(w)
}
