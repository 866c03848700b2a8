package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/pkg/cache"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
)

// CacheRepository stores JSON payloads under string keys.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CacheService keeps each institute's active counselor roster warm so the
// student booking screen does not hit Postgres on every load.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a roster cache. A nil repo disables it.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled reports whether lookups reach Redis.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Roster returns the cached roster of instituteID. Redis failures count as a miss.
func (s *CacheService) Roster(ctx context.Context, instituteID string) ([]models.Counselor, bool) {
	if !s.Enabled() {
		return nil, false
	}
	key := cache.RosterKey(instituteID)
	start := time.Now()
	var counselors []models.Counselor
	err := s.repo.Get(ctx, key, &counselors)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("roster cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if counselors == nil {
		counselors = []models.Counselor{}
	}
	return counselors, true
}

// StoreRoster caches counselors for instituteID with the configured TTL.
func (s *CacheService) StoreRoster(ctx context.Context, instituteID string, counselors []models.Counselor) {
	if !s.Enabled() {
		return
	}
	key := cache.RosterKey(instituteID)
	start := time.Now()
	err := s.repo.Set(ctx, key, counselors, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("roster cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateRoster drops the cached roster after a counselor is added or
// changes status.
func (s *CacheService) InvalidateRoster(ctx context.Context, instituteID string) error {
	if !s.Enabled() {
		return nil
	}
	return s.repo.Delete(ctx, cache.RosterKey(instituteID))
}
