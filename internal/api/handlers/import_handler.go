package handlers

import (
	"net/http"

	"github.com/testboard/engine/internal/records"
	"github.com/testboard/engine/internal/services"
)

// ImportHandler loads a whole dashboard export or realtime store dump.
type ImportHandler struct {
	svc services.ImportService
}

func NewImportHandler(svc services.ImportService) *ImportHandler {
	return &ImportHandler{svc: svc}
}

func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	body, valid := readBody(w, r)
	if !valid {
		return
	}
	batch, err := records.DecodeBatch(body)
	if err != nil {
		writeErrorStr(w, r, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Import(r.Context(), batch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, res)
}
