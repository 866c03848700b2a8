package client

import (
	"context"
	"sync"
)

type slotAPI interface {
	ListSlots(ctx context.Context, counselorID, date string) ([]Slot, error)
}

// SlotBoard shows the open slots of one counselor and date at a time.
type SlotBoard struct {
	api slotAPI

	mu         sync.Mutex
	slots      []Slot
	generation int
}

// NewSlotBoard builds an empty board.
func NewSlotBoard(api slotAPI) *SlotBoard {
	return &SlotBoard{api: api}
}

// Load clears the board, then fetches slots. On error the board stays empty.
// When loads overlap only the most recent one is applied.
func (b *SlotBoard) Load(ctx context.Context, counselorID, date string) error {
	b.mu.Lock()
	b.slots = nil
	b.generation++
	gen := b.generation
	b.mu.Unlock()

	slots, err := b.api.ListSlots(ctx, counselorID, date)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen == b.generation {
		b.slots = slots
	}
	return nil
}

// Slots returns a copy of the displayed slots.
func (b *SlotBoard) Slots() []Slot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Slot(nil), b.slots...)
}
