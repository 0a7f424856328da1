package chain

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-burn-mint/internal/adapter"
	"github.com/feral-file/ff-burn-mint/internal/logger"
)

// headCache serves the latest block number to confirmation polls.
// Concurrent settlements polling the same chain share one header call per TTL.
type headCache struct {
	fetch       func(ctx context.Context) (uint64, error)
	ttl         time.Duration
	staleWindow time.Duration
	clock       adapter.Clock

	mu        sync.RWMutex
	number    uint64
	fetchedAt time.Time
	valid     bool
}

func newHeadCache(fetch func(ctx context.Context) (uint64, error), ttl, staleWindow time.Duration, clock adapter.Clock) *headCache {
	return &headCache{
		fetch:       fetch,
		ttl:         ttl,
		staleWindow: staleWindow,
		clock:       clock,
	}
}

// Latest returns the latest block number, from cache while it is younger than the TTL.
// A failed fetch falls back to a cached value younger than the stale window.
func (h *headCache) Latest(ctx context.Context) (uint64, error) {
	h.mu.RLock()
	number, fetchedAt, valid := h.number, h.fetchedAt, h.valid
	h.mu.RUnlock()

	now := h.clock.Now()
	age := now.Sub(fetchedAt)

	if valid && age < h.ttl {
		return number, nil
	}

	latest, err := h.fetch(ctx)
	if err != nil {
		if valid && age < h.staleWindow {
			logger.DebugCtx(ctx, "Using stale block number", zap.Uint64("block_number", number), zap.Error(err))
			return number, nil
		}
		return 0, err
	}

	h.mu.Lock()
	// a slower concurrent fetch must not move the head backwards
	if !h.valid || latest >= h.number {
		h.number = latest
	}
	h.fetchedAt = now
	h.valid = true
	latest = h.number
	h.mu.Unlock()

	return latest, nil
}
