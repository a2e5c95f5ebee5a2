package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/testboard/engine/internal/services"
)

type FeaturesHandler struct {
	svc services.FeatureService
}

func NewFeaturesHandler(svc services.FeatureService) *FeaturesHandler {
	return &FeaturesHandler{svc: svc}
}

// List returns features with derived test counts. ?project_id scopes the
// list to one project and ?q filters by name or description.
func (h *FeaturesHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := &services.FeatureFilters{Query: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("project_id"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			writeErrorStr(w, r, http.StatusBadRequest, "invalid project_id")
			return
		}
		filters.ProjectID = &pid
	}
	items, err := h.svc.ListFeatures(r.Context(), filters)
	if err != nil {
		writeError(w, r, err)
		return
	}
	paginate(w, r, items)
}

func (h *FeaturesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.FeatureInput
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.svc.CreateFeature(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusCreated, f)
}

func (h *FeaturesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r)
	if !valid {
		return
	}
	f, err := h.svc.GetFeature(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, f)
}

func (h *FeaturesHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r)
	if !valid {
		return
	}
	var req services.FeatureInput
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.svc.ReplaceFeature(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, f)
}

func (h *FeaturesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r)
	if !valid {
		return
	}
	if err := h.svc.DeleteFeature(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
