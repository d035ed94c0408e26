package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Open parses a redis:// URL and verifies the server answers.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 2 * time.Second
	opt.WriteTimeout = 2 * time.Second
	opt.MaxRetries = 1

	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return c, nil
}

var clearIfMatches = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var incrIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	local n = redis.call("INCR", KEYS[1])
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	return n
end
return 0
`)

// RedisPresence stores presence and unread counters in Redis.
type RedisPresence struct {
	client      *redis.Client
	presenceTTL time.Duration
	unreadTTL   time.Duration
}

var _ Presence = (*RedisPresence)(nil)

func NewRedisPresence(client *redis.Client, presenceTTL, unreadTTL time.Duration) *RedisPresence {
	return &RedisPresence{client: client, presenceTTL: presenceTTL, unreadTTL: unreadTTL}
}

func (r *RedisPresence) SetPresence(ctx context.Context, userID, roomID uint) error {
	return r.client.Set(ctx, presenceKey(userID), strconv.FormatUint(uint64(roomID), 10), r.presenceTTL).Err()
}

func (r *RedisPresence) PresentRoom(ctx context.Context, userID uint) (uint, bool, error) {
	val, err := r.client.Get(ctx, presenceKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("presence: bad room id %q: %w", val, err)
	}
	return uint(id), true, nil
}

func (r *RedisPresence) ClearPresence(ctx context.Context, userID uint) error {
	return r.client.Del(ctx, presenceKey(userID)).Err()
}

func (r *RedisPresence) ClearPresenceIf(ctx context.Context, userID, roomID uint) error {
	return clearIfMatches.Run(ctx, r.client, []string{presenceKey(userID)}, strconv.FormatUint(uint64(roomID), 10)).Err()
}

func (r *RedisPresence) SetUnread(ctx context.Context, roomID, userID uint, n int64) error {
	return r.client.Set(ctx, unreadKey(roomID, userID), n, r.unreadTTL).Err()
}

// IncrUnread bumps a live counter and refreshes its TTL. A counter that has
// expired stays absent and 0 is returned; the next read reseeds it from the
// durable count.
func (r *RedisPresence) IncrUnread(ctx context.Context, roomID, userID uint) (int64, error) {
	return incrIfExists.Run(ctx, r.client, []string{unreadKey(roomID, userID)}, r.unreadTTL.Milliseconds()).Int64()
}

func (r *RedisPresence) Unread(ctx context.Context, roomID, userID uint) (int64, bool, error) {
	n, err := r.client.Get(ctx, unreadKey(roomID, userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (r *RedisPresence) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisPresence) Close() error {
	return r.client.Close()
}
