package earnings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"revenueScope/internal/model"
)

// Cache keeps computed earnings in Redis so repeated dashboard requests
// for the same wallet do not replay the full history.
type Cache struct {
	rdb    *goredis.Client
	ttl    time.Duration
	prefix string
}

func NewCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Cache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl, prefix: "earnings:"}, nil
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

func (c *Cache) Get(ctx context.Context, wallet string) (model.WalletEarnings, bool, error) {
	data, err := c.rdb.Get(ctx, c.key(wallet)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return model.WalletEarnings{}, false, nil
		}
		return model.WalletEarnings{}, false, fmt.Errorf("cache get: %w", err)
	}

	var earnings model.WalletEarnings
	if err := json.Unmarshal(data, &earnings); err != nil {
		return model.WalletEarnings{}, false, fmt.Errorf("cache decode: %w", err)
	}
	return earnings, true, nil
}

func (c *Cache) Put(ctx context.Context, earnings model.WalletEarnings) error {
	data, err := json.Marshal(earnings)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key(earnings.Address), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

func (c *Cache) key(wallet string) string {
	return c.prefix + strings.ToLower(wallet)
}
