package httpapi

import (
	"net/http"
	"strings"

	"faithresponders.org/internal/audit"
	"faithresponders.org/internal/directory"
)

type approveRoleRequest struct {
	Approve bool             `json:"approve"`
	Roles   []directory.Role `json:"roles"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.registerUser(w, r)
	case http.MethodGet:
		a.listUsers(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if id, ok := strings.CutSuffix(path, "/approval"); ok {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.approveRole(w, r, strings.TrimSuffix(id, "/"))
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getUser(w, r, path)
	case http.MethodPatch:
		a.updateProfile(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) registerUser(w http.ResponseWriter, r *http.Request) {
	var req directory.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.svc.Directory.Register(r.Context(), callerID(r), req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "directory.register", map[string]any{
		"user_id":         user.ID,
		"requested_roles": user.RequestedRoles,
	})
	w.Header().Set("Location", "/v1/users/"+user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 100, 1, 1000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	f := directory.Filter{
		Role:     directory.Role(r.URL.Query().Get("role")),
		GroupID:  r.URL.Query().Get("groupId"),
		CenterID: r.URL.Query().Get("centerId"),
		Limit:    limit,
	}
	users, err := a.svc.Directory.List(r.Context(), callerID(r), f)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users})
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request, id string) {
	user, err := a.svc.Directory.Get(r.Context(), callerID(r), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request, id string) {
	updates, err := decodePatch(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.Directory.UpdateProfile(r.Context(), callerID(r), id, updates); err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "directory.profile_update", map[string]any{"user_id": id})
	writeSuccess(w)
}

func (a *API) approveRole(w http.ResponseWriter, r *http.Request, id string) {
	var req approveRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.Directory.ApproveRole(r.Context(), callerID(r), id, req.Approve, req.Roles); err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "directory.role_approval", map[string]any{
		"user_id": id,
		"approve": req.Approve,
		"roles":   req.Roles,
	})
	writeSuccess(w)
}
