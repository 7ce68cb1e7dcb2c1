package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout  = 5 * time.Second
	retryBackoff = 500 * time.Millisecond
)

// Config selects the Redis instance holding revocations and rate-limit windows.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Attempts is how many pings Connect tries before giving up. Minimum 1.
	Attempts int
}

// Connect opens the client and waits until the server answers a PING. Each
// failed attempt waits a little longer than the previous one.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	attempts := max(cfg.Attempts, 1)
	var err error
	for i := 1; i <= attempts; i++ {
		if err = ping(ctx, client); err == nil {
			return client, nil
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(i) * retryBackoff):
		}
	}
	_ = client.Close()
	return nil, fmt.Errorf("redis %s unreachable after %d attempts: %w", cfg.Addr, attempts, err)
}

func ping(ctx context.Context, client *redis.Client) error {
	pctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	return client.Ping(pctx).Err()
}
