// Package tasks defines the background jobs processed by cmd/worker.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeReportExport = "report:export"
	TypeStatsDigest  = "stats:digest"

	QueueReports = "reports"
	QueueDefault = "default"
)

// Enqueuer is the subset of *asynq.Client used by the API.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ReportPayload carries the export filters of a report request.
type ReportPayload struct {
	Format    string    `json:"format"`
	Query     string    `json:"q,omitempty"`
	Status    string    `json:"status,omitempty"`
	FeatureID string    `json:"feature_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Requested time.Time `json:"requested_at"`
}

// NewReportTask builds a report export task on the reports queue.
func NewReportTask(p ReportPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal report payload: %w", err)
	}
	return asynq.NewTask(TypeReportExport, b,
		asynq.Queue(QueueReports),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
		asynq.Retention(24*time.Hour),
	), nil
}

// NewDigestTask builds the periodic statistics digest task.
func NewDigestTask() *asynq.Task {
	return asynq.NewTask(TypeStatsDigest, nil, asynq.Queue(QueueDefault), asynq.MaxRetry(1))
}

// Queues is the weighted queue set served by the worker.
func Queues() map[string]int {
	return map[string]int{QueueReports: 3, QueueDefault: 1}
}

// Register binds the task handlers on mux.
func Register(mux *asynq.ServeMux, reports *ReportTaskHandler, digest *DigestTaskHandler) {
	mux.HandleFunc(TypeReportExport, reports.HandleReport)
	mux.HandleFunc(TypeStatsDigest, digest.HandleDigest)
}
