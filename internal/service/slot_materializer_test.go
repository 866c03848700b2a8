package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mannsetu-api/internal/models"
)

func TestSlotMaterializerRunOnce(t *testing.T) {
	counselors := &fakeCounselorStore{byID: map[string]models.Counselor{
		"c1": {ID: "c1", IsActive: true},
		"c2": {ID: "c2", IsActive: false},
	}}
	store := &fakeBookingStore{}
	m := NewSlotMaterializer(counselors, &fakeAvailability{}, store, SlotMaterializerConfig{Days: 6}, nil)
	m.now = func() time.Time { return time.Date(2030, 1, 7, 18, 0, 0, 0, time.UTC) }

	written, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	// Monday 2030-01-07 through Sunday 2030-01-13.
	assert.Equal(t, 40, written)
	for _, slot := range store.ensured {
		assert.Equal(t, "c1", slot.CounselorID)
	}
}

func TestSlotMaterializerSkipsFailingCounselor(t *testing.T) {
	counselors := &fakeCounselorStore{byID: map[string]models.Counselor{"c1": {ID: "c1", IsActive: true}}}
	m := NewSlotMaterializer(counselors, &fakeAvailability{err: errors.New("boom")}, &fakeBookingStore{}, SlotMaterializerConfig{}, nil)

	written, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, written)
}

func TestSlotMaterializerListFailure(t *testing.T) {
	counselors := &fakeCounselorStore{listErr: errors.New("db down")}
	m := NewSlotMaterializer(counselors, &fakeAvailability{}, &fakeBookingStore{}, SlotMaterializerConfig{}, nil)

	_, err := m.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestSlotMaterializerStartStop(t *testing.T) {
	counselors := &fakeCounselorStore{byID: map[string]models.Counselor{"c1": {ID: "c1", IsActive: true}}}
	store := &fakeBookingStore{}
	m := NewSlotMaterializer(counselors, &fakeAvailability{}, store, SlotMaterializerConfig{Days: 7, Interval: time.Hour}, nil)

	m.Start(context.Background())
	m.Stop()
	m.Stop()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Positive(t, store.calls)
}
