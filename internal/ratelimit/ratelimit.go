package ratelimit

import (
	"errors"
	"fmt"
	"sync"
)

// ErrBudgetExhausted is returned once the per-run request cap is reached.
var ErrBudgetExhausted = errors.New("model request budget exhausted")

// Budget caps how many model requests a run may issue, per provider and in
// total. A max of 0 disables the cap.
type Budget struct {
	mu    sync.Mutex
	used  map[string]int
	total int
	max   int
}

func NewBudget(max int) *Budget {
	return &Budget{
		used: make(map[string]int),
		max:  max,
	}
}

// Use reserves one request for provider.
func (b *Budget) Use(provider string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max > 0 && b.total >= b.max {
		return fmt.Errorf("%w (%d/%d)", ErrBudgetExhausted, b.total, b.max)
	}

	b.used[provider]++
	b.total++
	return nil
}

// Remaining reports how many requests are left, or -1 when uncapped.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max <= 0 {
		return -1
	}
	return b.max - b.total
}

// GetStats returns current usage
func (b *Budget) GetStats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := map[string]interface{}{
		"total_used":  b.total,
		"total_limit": b.max,
	}
	for provider, n := range b.used {
		stats[provider+"_used"] = n
	}
	return stats
}
