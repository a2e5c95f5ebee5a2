package handlers

import (
	"net/http"

	"github.com/testboard/engine/internal/services"
)

type ProjectsHandler struct {
	svc services.ProjectService
}

func NewProjectsHandler(svc services.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{svc: svc}
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListProjects(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	paginate(w, r, items)
}

func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.ProjectInput
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreateProject(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusCreated, p)
}

func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r)
	if !valid {
		return
	}
	p, err := h.svc.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, p)
}

func (h *ProjectsHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r)
	if !valid {
		return
	}
	var req services.ProjectInput
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.ReplaceProject(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, p)
}

func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r)
	if !valid {
		return
	}
	if err := h.svc.DeleteProject(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r)
	if !valid {
		return
	}
	s, err := h.svc.ProjectSummary(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, s)
}
