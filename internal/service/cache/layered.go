package cache

import (
	"context"
	"time"
)

// Layered puts an in-process cache in front of a shared one. Writes go through to
// the shared cache first; local copies live at most frontTTL so replicas converge.
type Layered struct {
	front    *TTLCache
	back     BytesCache
	frontTTL time.Duration
}

func NewLayered(front *TTLCache, back BytesCache, frontTTL time.Duration) *Layered {
	if frontTTL <= 0 {
		frontTTL = 30 * time.Second
	}
	return &Layered{front: front, back: back, frontTTL: frontTTL}
}

func (c *Layered) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, _ := c.front.GetBytes(ctx, key); ok {
		return b, true, nil
	}
	b, ok, err := c.back.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = c.front.SetBytes(ctx, key, b, c.frontTTL)
	return b, true, nil
}

func (c *Layered) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.back.SetBytes(ctx, key, value, ttl); err != nil {
		return err
	}
	local := c.frontTTL
	if ttl > 0 && ttl < local {
		local = ttl
	}
	return c.front.SetBytes(ctx, key, value, local)
}

var _ BytesCache = (*Layered)(nil)
