package intercept

import (
	"context"
	"sync"

	"github.com/hostgate/hostgate/pkg/httpmsg"
)

// Chain is an append-only, ordered sequence of Transforms. Appends are rare
// (an operator registering an interceptor at startup or via the control
// surface); Apply runs on every connection, so it takes only a shared lock,
// held just long enough to copy the current list before running it.
type Chain struct {
	mu    sync.RWMutex
	steps []Transform
}

// NewChain builds an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends transform to the end of the chain.
func (c *Chain) Add(t Transform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, t)
}

// Len reports how many transforms are registered.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.steps)
}

// Apply runs every registered transform, in registration order, against
// msg. It stops and returns the first error encountered.
func (c *Chain) Apply(ctx context.Context, msg *httpmsg.Message) error {
	c.mu.RLock()
	steps := make([]Transform, len(c.steps))
	copy(steps, c.steps)
	c.mu.RUnlock()

	for _, t := range steps {
		if err := t.Apply(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}
