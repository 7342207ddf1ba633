package config

// Redis backs the /api rate limiter and the catalog response cache.  It is
// optional: when no server answers at startup the constructor returns nil and
// both middlewares turn into pass-throughs.

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisOptions resolves connection settings.  REDIS_URL (redis:// or
// rediss://) wins; otherwise REDIS_ADDR or REDIS_HOST + REDIS_PORT are used
// with REDIS_PASSWORD, REDIS_DB and REDIS_TLS.  ok is false when nothing is
// set.
func redisOptions() (opts *redis.Options, ok bool) {
	if raw := strings.TrimSpace(os.Getenv("REDIS_URL")); raw != "" {
		parsed, err := redis.ParseURL(raw)
		if err == nil {
			return parsed, true
		}
	}

	addr := os.Getenv("REDIS_ADDR")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		return nil, false
	}
	opts = &redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")}
	if n, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
		opts.DB = n
	}
	if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, true
}

// NewRedisClient returns a connected client, or nil when redis is not
// configured or does not answer a ping within two seconds.
func NewRedisClient() *redis.Client {
	opts, ok := redisOptions()
	if !ok {
		return nil
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
