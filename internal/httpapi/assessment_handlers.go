package httpapi

import (
	"net/http"
	"strings"

	"faithresponders.org/internal/assessment"
	"faithresponders.org/internal/audit"
)

type reassessRequest struct {
	Updates       map[string]any `json:"updates"`
	FlagForReview bool           `json:"flagForReview"`
}

func (a *API) handleAssessmentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createAssessment(w, r)
	case http.MethodGet:
		a.listAssessments(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleAssessmentResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/assessments/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if id, ok := strings.CutSuffix(path, "/reassess"); ok {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.reassess(w, r, strings.TrimSuffix(id, "/"))
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getAssessment(w, r, path)
	case http.MethodPatch:
		a.updateAssessment(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) createAssessment(w http.ResponseWriter, r *http.Request) {
	var req assessment.CreateInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	as, err := a.svc.Assessments.Create(r.Context(), callerID(r), req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "assessment.create", map[string]any{
		"assessment_id": as.ID,
		"center_id":     as.CenterID,
		"severity":      as.Severity,
	})
	w.Header().Set("Location", "/v1/assessments/"+as.ID)
	writeJSON(w, http.StatusCreated, as)
}

func (a *API) listAssessments(w http.ResponseWriter, r *http.Request) {
	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 100, 1, 1000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	f := assessment.Filter{
		CenterID: r.URL.Query().Get("centerId"),
		GroupID:  r.URL.Query().Get("groupId"),
		Limit:    limit,
	}
	switch strings.TrimSpace(r.URL.Query().Get("flaggedForReview")) {
	case "":
	case "true":
		v := true
		f.FlaggedForReview = &v
	case "false":
		v := false
		f.FlaggedForReview = &v
	default:
		writeError(w, r, http.StatusBadRequest, "flaggedForReview must be true or false")
		return
	}
	items, err := a.svc.Assessments.List(r.Context(), callerID(r), f)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) getAssessment(w http.ResponseWriter, r *http.Request, id string) {
	as, err := a.svc.Assessments.Get(r.Context(), callerID(r), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, as)
}

func (a *API) updateAssessment(w http.ResponseWriter, r *http.Request, id string) {
	updates, err := decodePatch(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.Assessments.Update(r.Context(), callerID(r), id, updates); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (a *API) reassess(w http.ResponseWriter, r *http.Request, id string) {
	var req reassessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.Assessments.Reassess(r.Context(), callerID(r), id, req.Updates, req.FlagForReview); err != nil {
		handleDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "assessment.reassess", map[string]any{
		"assessment_id": id,
		"flagged":       req.FlagForReview,
	})
	writeSuccess(w)
}
