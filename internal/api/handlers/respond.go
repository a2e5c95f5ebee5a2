package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/testboard/engine/internal/api/middleware"
	"github.com/testboard/engine/internal/api/types"
	appErr "github.com/testboard/engine/pkg/errors"
	"github.com/testboard/engine/pkg/logger"
)

// maxBodyBytes bounds request bodies; imports are the largest payloads.
const maxBodyBytes = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, status, types.APIResponse{Success: true, Data: data, Meta: &types.Meta{RequestID: middleware.GetRequestID(r.Context())}})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := appErr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, types.APIResponse{
		Success: false,
		Error:   types.FromAppError(err),
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context())},
	})
}

func writeErrorStr(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, types.APIResponse{
		Success: false,
		Error:   &types.APIError{Code: string(appErr.CodeInvalid), Message: msg},
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context())},
	})
}

// decodeJSON reads a single JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorStr(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		if errors.Is(err, io.EOF) {
			writeErrorStr(w, r, http.StatusBadRequest, "request body is empty")
			return false
		}
		writeErrorStr(w, r, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeErrorStr(w, r, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	return b, true
}

// pathID parses the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, r, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// paginate slices items when page or page_size is given; otherwise the
// full collection is returned, since dashboards derive totals from it.
func paginate[T any](w http.ResponseWriter, r *http.Request, items []T) {
	meta := &types.Meta{RequestID: middleware.GetRequestID(r.Context()), Total: int64(len(items))}
	q := r.URL.Query()
	if q.Get("page") == "" && q.Get("page_size") == "" {
		writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: meta})
		return
	}
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	start := (page - 1) * size
	end := start + size
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	meta.Page, meta.PageSize = page, size
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items[start:end], Meta: meta})
}
