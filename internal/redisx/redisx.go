// Package redisx opens the optional Redis connection shared by session and
// chat history storage.
package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zulandar/launchpad/internal/apperr"
)

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 3 * time.Second
)

// Open parses a redis:// URL, connects and pings.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redisx: parse url: %w", err)
	}
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = ioTimeout
	opts.WriteTimeout = ioTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redisx: ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// Wrap maps a Redis error to an application error kind.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return apperr.Wrap(err, apperr.NotFound, message)
	}
	return apperr.Wrap(err, apperr.Upstream, message)
}
