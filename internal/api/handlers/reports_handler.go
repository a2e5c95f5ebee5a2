package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/testboard/engine/internal/api/middleware"
	"github.com/testboard/engine/internal/api/types"
	"github.com/testboard/engine/internal/api/validators"
	"github.com/testboard/engine/internal/queue/tasks"
	appErr "github.com/testboard/engine/pkg/errors"
	"github.com/testboard/engine/pkg/logger"
)

type ReportsHandler struct {
	queue tasks.Enqueuer
}

// NewReportsHandler builds the handler; a nil queue disables background
// reports and the endpoint answers 503.
func NewReportsHandler(queue tasks.Enqueuer) *ReportsHandler {
	return &ReportsHandler{queue: queue}
}

func (h *ReportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeError(w, r, appErr.New(appErr.CodeUnavailable, "background reports are not configured"))
		return
	}
	var req types.ReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validators.Struct(&req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Format == "" {
		req.Format = "pdf"
	}
	task, err := tasks.NewReportTask(tasks.ReportPayload{
		Format:    req.Format,
		Query:     req.Query,
		Status:    req.Status,
		FeatureID: req.FeatureID,
		RequestID: middleware.GetRequestID(r.Context()),
		Requested: time.Now().UTC(),
	})
	if err != nil {
		writeError(w, r, appErr.Wrap(err, appErr.CodeInternal, "build report task failed"))
		return
	}
	info, err := h.queue.EnqueueContext(r.Context(), task)
	if err != nil {
		writeError(w, r, appErr.Wrap(err, appErr.CodeUnavailable, "enqueue report failed"))
		return
	}
	logger.L().Info("report enqueued", zap.String("task_id", info.ID), zap.String("queue", info.Queue))
	ok(w, r, http.StatusAccepted, types.Enqueued{TaskID: info.ID, Queue: info.Queue})
}
