package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"OddsFlow/internal/domain/models"
	drepo "OddsFlow/internal/domain/repository"
	"OddsFlow/pkg/util"
)

// watermark CAS: succeeds when the key is absent (old == "") or equals old.
var advanceScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if (cur == false and ARGV[1] == '') or cur == ARGV[1] then
    redis.call('SET', KEYS[1], ARGV[2])
    return 1
end
return 0
`)

// RedisCursorStore persists the transform watermark in Redis.
type RedisCursorStore struct {
	rdb *redis.Client
	key string
}

// NewRedisCursorStore creates the watermark store under the given key prefix.
func NewRedisCursorStore(rdb *redis.Client, prefix string) *RedisCursorStore {
	if prefix == "" {
		prefix = "oddsflow"
	}
	return &RedisCursorStore{rdb: rdb, key: prefix + ":transform:watermark"}
}

var _ drepo.CursorStore = (*RedisCursorStore)(nil)

// Watermark returns the stored cursor, or zero time when none exists yet.
func (s *RedisCursorStore) Watermark(ctx context.Context) (time.Time, error) {
	val, err := s.rdb.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get watermark: %w", err)
	}
	wm, err := util.ParseDate(val)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse watermark %q: %w", val, err)
	}
	return wm, nil
}

// Advance moves the cursor from old to new atomically. A concurrent
// writer that moved it first causes models.ErrWatermarkConflict, and
// the caller must not treat its run as committed.
func (s *RedisCursorStore) Advance(ctx context.Context, old, new time.Time) error {
	oldVal := ""
	if !old.IsZero() {
		oldVal = util.FormatDate(old)
	}
	ok, err := advanceScript.Run(ctx, s.rdb, []string{s.key}, oldVal, util.FormatDate(new)).Int()
	if err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}
	if ok != 1 {
		return fmt.Errorf("%w: cursor moved past %s", models.ErrWatermarkConflict, oldVal)
	}
	return nil
}

// Health pings Redis.
func (s *RedisCursorStore) Health(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
