package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-solo/internal/domain"
)

const defaultRedisTTL = 24 * time.Hour

type redisSink struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis connects to redisURL (redis:// or rediss://) and pings it.
func NewRedis(redisURL string, ttl time.Duration) (Sink, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis archive")
	}
	opts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisClient(rdb, ttl), nil
}

// NewRedisClient wraps an existing client.
func NewRedisClient(rdb *redis.Client, ttl time.Duration) Sink {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &redisSink{rdb: rdb, ttl: ttl}
}

func (s *redisSink) keyGame(id string) string { return "solo:game:" + strings.TrimSpace(id) }
func (s *redisSink) keyIndex() string         { return "solo:games" }

func (s *redisSink) Save(ctx context.Context, rec domain.GameRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	ended := rec.EndedAt
	if ended.IsZero() {
		ended = time.Now()
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.keyGame(rec.ID), raw, s.ttl)
	pipe.ZAdd(ctx, s.keyIndex(), redis.Z{Score: float64(ended.UnixMilli()), Member: rec.ID})
	// 인덱스 키 TTL도 갱신하여 누적 방지(게임 TTL과 동일)
	pipe.Expire(ctx, s.keyIndex(), s.ttl)
	pipe.ZRemRangeByScore(ctx, s.keyIndex(), "-inf", strconv.FormatInt(time.Now().Add(-s.ttl).UnixMilli(), 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save game %s: %w", rec.ID, err)
	}
	return nil
}

func (s *redisSink) Recent(ctx context.Context, limit int) ([]domain.GameRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.rdb.ZRevRange(ctx, s.keyIndex(), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.GameRecord, 0, len(ids))
	for _, id := range ids {
		raw, err := s.rdb.Get(ctx, s.keyGame(id)).Bytes()
		if err == redis.Nil {
			// expired; drop the stale index entry
			_ = s.rdb.ZRem(ctx, s.keyIndex(), id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		var rec domain.GameRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode game %s: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *redisSink) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// ParseRedisURL maps redis://[user:pass@]host:port/db (rediss:// for TLS) to
// client options.
func ParseRedisURL(raw string) (*redis.Options, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opts, nil
}
