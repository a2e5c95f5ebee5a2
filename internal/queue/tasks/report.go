package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/testboard/engine/internal/export"
	"github.com/testboard/engine/internal/filter"
	"github.com/testboard/engine/internal/services"
	"github.com/testboard/engine/pkg/logger"
)

// ReportTaskHandler renders exports into a directory.
type ReportTaskHandler struct {
	cases services.TestCaseService
	dir   string
}

func NewReportTaskHandler(cases services.TestCaseService, dir string) *ReportTaskHandler {
	return &ReportTaskHandler{cases: cases, dir: dir}
}

// QueryOf turns a payload back into the list filter it was built from.
func (p ReportPayload) QueryOf() (filter.Query, error) {
	status, err := filter.ParseStatus(p.Status)
	if err != nil {
		return filter.Query{}, err
	}
	q := filter.Query{Text: p.Query, Status: status}
	if p.FeatureID != "" {
		scope := p.FeatureID
		q.FeatureScope = &scope
	}
	return q, nil
}

// ReportPath is where the report for taskID is written.
func (h *ReportTaskHandler) ReportPath(taskID string, f export.Format) string {
	return filepath.Join(h.dir, taskID+"-"+f.Filename())
}

func (h *ReportTaskHandler) HandleReport(ctx context.Context, t *asynq.Task) error {
	var p ReportPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid report task payload", zap.Error(err))
		return fmt.Errorf("decode report payload: %v: %w", err, asynq.SkipRetry)
	}
	format, err := export.ParseFormat(p.Format)
	if err != nil {
		return fmt.Errorf("report format: %v: %w", err, asynq.SkipRetry)
	}
	q, err := p.QueryOf()
	if err != nil {
		return fmt.Errorf("report status: %v: %w", err, asynq.SkipRetry)
	}

	taskID, ok := asynq.GetTaskID(ctx)
	if !ok || strings.TrimSpace(taskID) == "" {
		taskID = uuid.NewString()
	}
	log := logger.L().With(zap.String("task_id", taskID), zap.String("request_id", p.RequestID))
	log.Info("handling report task", zap.String("format", string(format)))

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}
	tmp, err := os.CreateTemp(h.dir, ".report-*")
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := h.cases.ExportTestCases(ctx, tmp, q, format); err != nil {
		_ = tmp.Close()
		log.Error("report export failed", zap.Error(err))
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}
	dst := h.ReportPath(taskID, format)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	if rw := t.ResultWriter(); rw != nil {
		_, _ = rw.Write([]byte(dst))
	}
	log.Info("report written", zap.String("path", dst))
	return nil
}
