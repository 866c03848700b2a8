package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mannsetu-api/internal/models"
)

type activeCounselorLister interface {
	ListActive(ctx context.Context) ([]models.Counselor, error)
}

// SlotMaterializerConfig controls how far ahead and how often slots are written.
type SlotMaterializerConfig struct {
	Days         int
	Interval     time.Duration
	SlotDuration time.Duration
}

// SlotMaterializer periodically writes upcoming slots for every active counselor.
type SlotMaterializer struct {
	counselors   activeCounselorLister
	availability availabilityReader
	slots        slotWriter
	cfg          SlotMaterializerConfig
	logger       *zap.Logger
	now          func() time.Time

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewSlotMaterializer constructs a SlotMaterializer.
func NewSlotMaterializer(counselors activeCounselorLister, availability availabilityReader, slots slotWriter, cfg SlotMaterializerConfig, logger *zap.Logger) *SlotMaterializer {
	if cfg.Days <= 0 {
		cfg.Days = 14
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.SlotDuration <= 0 {
		cfg.SlotDuration = defaultSlotDuration
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotMaterializer{
		counselors:   counselors,
		availability: availability,
		slots:        slots,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start runs one pass immediately and then one per interval until Stop or ctx is done.
func (m *SlotMaterializer) Start(ctx context.Context) {
	m.logger.Info("starting slot materializer", zap.Int("days", m.cfg.Days), zap.Duration("interval", m.cfg.Interval))
	go m.run(ctx)
}

// Stop halts the loop and waits for the running pass to finish.
func (m *SlotMaterializer) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
	<-m.done
}

func (m *SlotMaterializer) run(ctx context.Context) {
	defer close(m.done)
	m.pass(ctx)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.pass(ctx)
		case <-m.stopChan:
			m.logger.Info("slot materializer stopped")
			return
		case <-ctx.Done():
			m.logger.Info("slot materializer cancelled")
			return
		}
	}
}

func (m *SlotMaterializer) pass(ctx context.Context) {
	written, err := m.RunOnce(ctx)
	if err != nil {
		m.logger.Error("slot materialization failed", zap.Error(err))
		return
	}
	m.logger.Info("slot materialization completed", zap.Int("slots", written))
}

// RunOnce materializes today plus the configured number of days for every
// active counselor. A failing counselor is logged and skipped.
func (m *SlotMaterializer) RunOnce(ctx context.Context) (int, error) {
	counselors, err := m.counselors.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	from := truncateDay(m.now().UTC())
	to := from.AddDate(0, 0, m.cfg.Days)

	written := 0
	for _, counselor := range counselors {
		if ctx.Err() != nil {
			return written, ctx.Err()
		}
		rows, err := m.availability.ListByCounselor(ctx, counselor.ID)
		if err != nil {
			m.logger.Warn("failed to load availability", zap.String("counselor_id", counselor.ID), zap.Error(err))
			continue
		}
		slots := GenerateRangeSlots(counselor.ID, rows, from, to, m.cfg.SlotDuration)
		if len(slots) == 0 {
			continue
		}
		if err := m.slots.EnsureSlots(ctx, slots); err != nil {
			m.logger.Warn("failed to materialize slots", zap.String("counselor_id", counselor.ID), zap.Error(err))
			continue
		}
		written += len(slots)
	}
	return written, nil
}
