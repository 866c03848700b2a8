package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/pkg/cache"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
)

type memoryCacheRepo struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCacheRepo) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
		m.deleted = append(m.deleted, key)
	}
	return nil
}

func TestCacheServiceRosterRoundTrip(t *testing.T) {
	repo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	_, hit := svc.Roster(ctx, "inst-1")
	assert.False(t, hit)

	svc.StoreRoster(ctx, "inst-1", []models.Counselor{{ID: "c-1", FullName: "Asha"}})
	assert.Equal(t, time.Minute, repo.ttls[cache.RosterKey("inst-1")])

	roster, hit := svc.Roster(ctx, "inst-1")
	require.True(t, hit)
	require.Len(t, roster, 1)
	assert.Equal(t, "c-1", roster[0].ID)

	require.NoError(t, svc.InvalidateRoster(ctx, "inst-1"))
	assert.Equal(t, []string{cache.RosterKey("inst-1")}, repo.deleted)
	_, hit = svc.Roster(ctx, "inst-1")
	assert.False(t, hit)

	snapshot := metrics.Snapshot()
	assert.EqualValues(t, 1, snapshot.CacheHits)
	assert.EqualValues(t, 2, snapshot.CacheMisses)
}

func TestCacheServiceEmptyRosterIsAHit(t *testing.T) {
	svc := NewCacheService(newMemoryCacheRepo(), nil, 0, nil, true)
	svc.StoreRoster(context.Background(), "inst-2", []models.Counselor{})

	roster, hit := svc.Roster(context.Background(), "inst-2")
	assert.True(t, hit)
	assert.NotNil(t, roster)
	assert.Empty(t, roster)
}

func TestCacheServiceReadErrorIsAMiss(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	roster, hit := svc.Roster(context.Background(), "inst-1")
	assert.False(t, hit)
	assert.Nil(t, roster)
}

func TestCacheServiceDisabled(t *testing.T) {
	svc := NewCacheService(nil, nil, time.Minute, zap.NewNop(), true)
	assert.False(t, svc.Enabled())
	_, hit := svc.Roster(context.Background(), "inst-1")
	assert.False(t, hit)
	assert.NoError(t, svc.InvalidateRoster(context.Background(), "inst-1"))

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}
