package limiter

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var failIncrScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// Redis is a limiter backed by Redis: a fail counter expiring after the window
// and a block key expiring after the block duration.
type Redis struct {
	client redis.UniversalClient
	prefix string
	policy Policy
}

// NewRedis constructs a Redis-backed limiter. Keys are namespaced by prefix.
func NewRedis(client redis.UniversalClient, prefix string, p Policy) *Redis {
	return &Redis{client: client, prefix: strings.TrimSpace(prefix), policy: p}
}

// Allow reports whether the pair is currently unblocked.
func (l *Redis) Allow(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	ttl, err := l.client.PTTL(ctx, l.key("block", username, ipHash)).Result()
	if err != nil {
		return false, 0, err
	}
	// -2: no key, -1: key without expiry (never written by us).
	if ttl > 0 {
		return false, ttl, nil
	}
	return true, 0, nil
}

// Success clears the counters for the pair.
func (l *Redis) Success(ctx context.Context, username string, ipHash []byte) error {
	return l.client.Del(ctx, l.key("fail", username, ipHash), l.key("block", username, ipHash)).Err()
}

// Failure counts a failed attempt and blocks once the policy threshold is reached.
func (l *Redis) Failure(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	res, err := failIncrScript.Run(ctx, l.client,
		[]string{l.key("fail", username, ipHash)}, l.policy.Window.Milliseconds()).Result()
	if err != nil {
		return false, 0, err
	}
	fails, ok := res.(int64)
	if !ok {
		return false, 0, errors.New("limiter redis: unexpected response type")
	}
	if fails < int64(l.policy.MaxFails) {
		return false, 0, nil
	}
	if err := l.client.Set(ctx, l.key("block", username, ipHash), fails, l.policy.BlockFor).Err(); err != nil {
		return false, 0, err
	}
	return true, l.policy.BlockFor, nil
}

func (l *Redis) key(kind, username string, ipHash []byte) string {
	k := "login:" + kind + ":" + username + ":" + hex.EncodeToString(ipHash)
	if l.prefix == "" {
		return k
	}
	return l.prefix + ":" + k
}
