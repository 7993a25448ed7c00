package storage

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrSlotTaken means another active appointment already holds the SlotKey.
	ErrSlotTaken = errors.New("slot already taken")
	// ErrStale means a conditional update matched no row because the
	// appointment left the expected state.
	ErrStale = errors.New("appointment state changed")
)
