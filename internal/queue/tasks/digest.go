package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/testboard/engine/internal/services"
	"github.com/testboard/engine/internal/stats"
	"github.com/testboard/engine/pkg/logger"
)

// DigestKey is the Redis key holding the latest digest.
const DigestKey = "testboard:stats:digest"

// Digest is a dated statistics snapshot.
type Digest struct {
	At    time.Time         `json:"at"`
	Stats stats.SystemStats `json:"stats"`
}

// DigestStore keeps the latest digest.
type DigestStore interface {
	SaveDigest(ctx context.Context, d Digest) error
	LatestDigest(ctx context.Context) (*Digest, error)
}

// RedisDigestStore stores the digest as JSON under DigestKey.
type RedisDigestStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisDigestStore(rdb redis.UniversalClient, ttl time.Duration) *RedisDigestStore {
	return &RedisDigestStore{rdb: rdb, ttl: ttl}
}

func (s *RedisDigestStore) SaveDigest(ctx context.Context, d Digest) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal digest: %w", err)
	}
	return s.rdb.Set(ctx, DigestKey, b, s.ttl).Err()
}

// LatestDigest returns nil, nil when no digest has been stored yet.
func (s *RedisDigestStore) LatestDigest(ctx context.Context) (*Digest, error) {
	b, err := s.rdb.Get(ctx, DigestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d Digest
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode digest: %w", err)
	}
	return &d, nil
}

// DigestTaskHandler logs and stores periodic statistics.
type DigestTaskHandler struct {
	stats services.StatsService
	store DigestStore
	now   func() time.Time
}

// NewDigestTaskHandler builds the handler; store may be nil to only log.
func NewDigestTaskHandler(svc services.StatsService, store DigestStore) *DigestTaskHandler {
	return &DigestTaskHandler{stats: svc, store: store, now: time.Now}
}

func (h *DigestTaskHandler) HandleDigest(ctx context.Context, _ *asynq.Task) error {
	o, err := h.stats.Overview(ctx)
	if err != nil {
		logger.L().Error("digest overview failed", zap.Error(err))
		return err
	}
	logger.L().Info("stats digest",
		zap.Int("projects", o.Projects),
		zap.Int("features", o.Features),
		zap.Int("test_cases", o.TestCases.Total),
		zap.Int("passed", o.TestCases.Passed),
		zap.Int("failed", o.TestCases.Failed),
		zap.Int("pending", o.TestCases.Pending),
		zap.Int("pass_rate", o.PassRate),
	)
	if h.store == nil {
		return nil
	}
	if err := h.store.SaveDigest(ctx, Digest{At: h.now().UTC(), Stats: *o}); err != nil {
		logger.L().Warn("digest store failed", zap.Error(err))
		return err
	}
	return nil
}
