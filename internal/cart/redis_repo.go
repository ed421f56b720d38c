package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/medibook/medibook-backend/pkg/redis"
)

const snapshotVersion = 1

// Repository is the save/load boundary for cart state.
type Repository interface {
	Load(ctx context.Context, ownerID string) (*Cart, error)
	Save(ctx context.Context, ownerID string, c *Cart) error
	Delete(ctx context.Context, ownerID string) error
}

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(ownerID string) string
}

type snapshot struct {
	Version   int       `json:"version"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedisRepository stores each cart as one JSON snapshot whose TTL is
// refreshed on every save.
type RedisRepository struct {
	store kvStore
	ttl   time.Duration
	now   func() time.Time
}

// NewRedisRepository builds a snapshot repository. A ttl of 0 keeps carts forever.
func NewRedisRepository(store kvStore, ttl time.Duration) (*RedisRepository, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("cart ttl must not be negative")
	}
	return &RedisRepository{store: store, ttl: ttl, now: time.Now}, nil
}

// Load returns an empty cart when nothing is stored for ownerID.
func (r *RedisRepository) Load(ctx context.Context, ownerID string) (*Cart, error) {
	raw, err := r.store.Get(ctx, r.store.CartKey(ownerID))
	if err != nil {
		if redis.IsNil(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return New(), nil
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported cart snapshot version %d", snap.Version)
	}
	return New(snap.Lines...), nil
}

// Save writes the cart snapshot. Empty carts are deleted instead.
func (r *RedisRepository) Save(ctx context.Context, ownerID string, c *Cart) error {
	if c == nil || c.Len() == 0 {
		return r.Delete(ctx, ownerID)
	}
	payload, err := json.Marshal(snapshot{
		Version:   snapshotVersion,
		Lines:     c.Lines(),
		UpdatedAt: r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := r.store.Set(ctx, r.store.CartKey(ownerID), string(payload), r.ttl); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, ownerID string) error {
	if err := r.store.Del(ctx, r.store.CartKey(ownerID)); err != nil {
		return fmt.Errorf("delete cart snapshot: %w", err)
	}
	return nil
}
