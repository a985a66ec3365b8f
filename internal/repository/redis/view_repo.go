// internal/repository/redis/view_repo.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"retention-service/internal/domain/view"

	"github.com/redis/go-redis/v9"
)

const viewKeyPrefix = "retention:view:"

// ViewRepository stores views as JSON with a sliding TTL.
type ViewRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewViewRepository(client redis.UniversalClient, ttl time.Duration) *ViewRepository {
	return &ViewRepository{client: client, ttl: ttl}
}

func viewKey(id string) string {
	return viewKeyPrefix + id
}

func (r *ViewRepository) Save(ctx context.Context, v *view.View) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal view: %w", err)
	}
	if err := r.client.Set(ctx, viewKey(v.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save view: %w", err)
	}
	return nil
}

func (r *ViewRepository) Get(ctx context.Context, id string) (*view.View, error) {
	data, err := r.client.Get(ctx, viewKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, view.ErrViewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load view: %w", err)
	}

	var v view.View
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode view: %w", err)
	}
	return &v, nil
}

func (r *ViewRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, viewKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete view: %w", err)
	}
	if n == 0 {
		return view.ErrViewNotFound
	}
	return nil
}
