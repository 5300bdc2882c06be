package httpapi

import (
	"net/http"
	"strings"

	"faithresponders.org/internal/audit"
	"faithresponders.org/internal/release"
)

type signReleaseRequest struct {
	SignatureImageURL string `json:"signatureImageUrl"`
}

func (a *API) handleReleasesCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.createRelease(w, r)
}

func (a *API) handleReleaseResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/releases/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if id, ok := strings.CutSuffix(path, "/sign"); ok {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.signRelease(w, r, strings.TrimSuffix(id, "/"))
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	a.getRelease(w, r, path)
}

func (a *API) createRelease(w http.ResponseWriter, r *http.Request) {
	var req release.CreateInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	rel, err := a.svc.Releases.Create(r.Context(), callerID(r), req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "release.create", map[string]any{
		"release_id":   rel.ID,
		"user_id":      rel.UserID,
		"release_type": rel.ReleaseType,
	})
	w.Header().Set("Location", "/v1/releases/"+rel.ID)
	writeJSON(w, http.StatusCreated, rel)
}

func (a *API) getRelease(w http.ResponseWriter, r *http.Request, id string) {
	rel, err := a.svc.Releases.Get(r.Context(), callerID(r), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

func (a *API) signRelease(w http.ResponseWriter, r *http.Request, id string) {
	// body is optional; an empty POST is a plain digital signature
	var req signReleaseRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := a.svc.Releases.Sign(r.Context(), callerID(r), id, req.SignatureImageURL); err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "release.sign", map[string]any{"release_id": id})
	writeSuccess(w)
}
