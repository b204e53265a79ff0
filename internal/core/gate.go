package core

// gate.go serializes mutating session operations.
//
// The gate is a single-slot semaphore: ingest, edit, delete, confirm and
// clear must hold it, so no resolution action is accepted while a parse or a
// previous action is still in flight. A caller that cannot get the slot
// within maxWait receives ErrSessionBusy.
//
// WaitForDrain blocks until the slot is free, which lets the server finish
// an in-flight action before shutting down.

import (
	"context"
	"sync"
	"time"
)

// DefaultGateWait is how long to wait for the slot before rejecting.
const DefaultGateWait = 5 * time.Second

// Gate controls exclusive access to the session's mutating operations.
type Gate struct {
	slot    chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewGate creates a gate. A non-positive maxWait uses DefaultGateWait.
func NewGate(maxWait time.Duration) *Gate {
	if maxWait <= 0 {
		maxWait = DefaultGateWait
	}
	return &Gate{
		slot:    make(chan struct{}, 1),
		maxWait: maxWait,
	}
}

// Acquire takes the slot, waiting up to maxWait.
// The caller MUST call Release when done (use defer).
func (g *Gate) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	select {
	case g.slot <- struct{}{}:
		g.mu.Lock()
		g.active++
		g.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrSessionBusy
	}
}

// TryAcquire takes the slot without blocking.
func (g *Gate) TryAcquire() bool {
	select {
	case g.slot <- struct{}{}:
		g.mu.Lock()
		g.active++
		g.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release frees the slot. Must be called exactly once per successful acquire.
func (g *Gate) Release() {
	g.mu.Lock()
	g.active--
	g.mu.Unlock()
	<-g.slot
}

// Busy reports whether an operation currently holds the slot.
func (g *Gate) Busy() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active > 0
}

// WaitForDrain blocks until no operation holds the slot or ctx ends.
func (g *Gate) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !g.Busy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
