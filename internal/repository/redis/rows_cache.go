// internal/repository/redis/rows_cache.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"retention-service/internal/service/customer"

	"github.com/redis/go-redis/v9"
)

const rowsKeyPrefix = "retention:rows:"

// RowsCache shares raw agency rows between service instances.
type RowsCache struct {
	client redis.UniversalClient
}

func NewRowsCache(client redis.UniversalClient) *RowsCache {
	return &RowsCache{client: client}
}

func rowsKey(agency string) string {
	return rowsKeyPrefix + agency
}

func (c *RowsCache) GetRows(ctx context.Context, agency string) ([]customer.Row, bool, error) {
	data, err := c.client.Get(ctx, rowsKey(agency)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read rows: %w", err)
	}

	var rows []customer.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, fmt.Errorf("failed to decode rows: %w", err)
	}
	return rows, true, nil
}

func (c *RowsCache) SetRows(ctx context.Context, agency string, rows []customer.Row, ttl time.Duration) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}
	if err := c.client.Set(ctx, rowsKey(agency), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

func (c *RowsCache) DeleteRows(ctx context.Context, agency string) error {
	if err := c.client.Del(ctx, rowsKey(agency)).Err(); err != nil {
		return fmt.Errorf("failed to delete rows: %w", err)
	}
	return nil
}
