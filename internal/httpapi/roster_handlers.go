package httpapi

import (
	"net/http"
	"strings"

	"faithresponders.org/internal/audit"
	"faithresponders.org/internal/roster"
)

type addGroupUserRequest struct {
	UserID string `json:"userId"`
}

func (a *API) handleGroupsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createGroup(w, r)
	case http.MethodGet:
		a.listGroups(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleGroupResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/groups/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if id, ok := strings.CutSuffix(path, "/users"); ok {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.addUserToGroup(w, r, strings.TrimSuffix(id, "/"))
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getGroup(w, r, path)
	case http.MethodPatch:
		a.updateGroup(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) createGroup(w http.ResponseWriter, r *http.Request) {
	var req roster.CreateGroupInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	group, err := a.svc.Roster.CreateGroup(r.Context(), callerID(r), req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "roster.group_create", map[string]any{
		"group_id": group.ID,
		"members":  len(group.UserIDs),
	})
	w.Header().Set("Location", "/v1/groups/"+group.ID)
	writeJSON(w, http.StatusCreated, group)
}

func (a *API) listGroups(w http.ResponseWriter, r *http.Request) {
	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 100, 1, 1000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	groups, err := a.svc.Roster.ListGroups(r.Context(), callerID(r), limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": groups})
}

func (a *API) getGroup(w http.ResponseWriter, r *http.Request, id string) {
	group, err := a.svc.Roster.GetGroup(r.Context(), callerID(r), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (a *API) updateGroup(w http.ResponseWriter, r *http.Request, id string) {
	updates, err := decodePatch(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.Roster.UpdateGroup(r.Context(), callerID(r), id, updates); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (a *API) addUserToGroup(w http.ResponseWriter, r *http.Request, id string) {
	var req addGroupUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.Roster.AddUserToGroup(r.Context(), callerID(r), id, req.UserID); err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "roster.group_member_add", map[string]any{
		"group_id": id,
		"user_id":  req.UserID,
	})
	writeSuccess(w)
}

func (a *API) handleCentersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createCenter(w, r)
	case http.MethodGet:
		a.listCenters(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleCenterResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/centers/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getCenter(w, r, path)
	case http.MethodPatch:
		a.updateCenter(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) createCenter(w http.ResponseWriter, r *http.Request) {
	var req roster.CreateCenterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	center, err := a.svc.Roster.CreateCenter(r.Context(), callerID(r), req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "roster.center_create", map[string]any{
		"center_id": center.ID,
		"group_id":  center.GroupID,
	})
	w.Header().Set("Location", "/v1/centers/"+center.ID)
	writeJSON(w, http.StatusCreated, center)
}

func (a *API) listCenters(w http.ResponseWriter, r *http.Request) {
	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 100, 1, 1000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	centers, err := a.svc.Roster.ListCenters(r.Context(), callerID(r), r.URL.Query().Get("groupId"), limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": centers})
}

func (a *API) getCenter(w http.ResponseWriter, r *http.Request, id string) {
	center, err := a.svc.Roster.GetCenter(r.Context(), callerID(r), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, center)
}

func (a *API) updateCenter(w http.ResponseWriter, r *http.Request, id string) {
	updates, err := decodePatch(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.Roster.UpdateCenter(r.Context(), callerID(r), id, updates); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeSuccess(w)
}
