package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Harshitk-cp/factline/internal/domain"
)

const (
	keyPrefix = "factline:"
	// TTL outlives one epoch so a late rollover still finds yesterday's keys.
	TTL = 48 * time.Hour
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Redis keeps processed hashes in a set and extractions in a hash, one pair
// of keys per epoch.
type Redis struct {
	rdb *redis.Client
}

var _ domain.HeadlineCache = (*Redis)(nil)

func NewRedis(cfg RedisConfig) *Redis {
	return NewRedisWithClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}))
}

func NewRedisWithClient(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func processedKey(epoch string) string { return keyPrefix + "processed:" + epoch }
func extractKey(epoch string) string   { return keyPrefix + "extract:" + epoch }

func (r *Redis) SeenHeadline(ctx context.Context, epoch, hash string) (bool, error) {
	ok, err := r.rdb.SIsMember(ctx, processedKey(epoch), hash).Result()
	if err != nil {
		return false, fmt.Errorf("check processed headline: %w", err)
	}
	return ok, nil
}

func (r *Redis) MarkHeadline(ctx context.Context, epoch, hash string) error {
	key := processedKey(epoch)
	pipe := r.rdb.TxPipeline()
	pipe.SAdd(ctx, key, hash)
	pipe.Expire(ctx, key, TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark processed headline: %w", err)
	}
	return nil
}

func (r *Redis) GetExtraction(ctx context.Context, epoch, hash string) (domain.ExtractedFact, bool, error) {
	raw, err := r.rdb.HGet(ctx, extractKey(epoch), hash).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ExtractedFact{}, false, nil
	}
	if err != nil {
		return domain.ExtractedFact{}, false, fmt.Errorf("get extraction: %w", err)
	}
	var f domain.ExtractedFact
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return domain.ExtractedFact{}, false, fmt.Errorf("decode extraction: %w", err)
	}
	return f, true, nil
}

func (r *Redis) PutExtraction(ctx context.Context, epoch, hash string, f domain.ExtractedFact) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	key := extractKey(epoch)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, hash, data)
	pipe.Expire(ctx, key, TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put extraction: %w", err)
	}
	return nil
}

func (r *Redis) Reset(ctx context.Context, epoch string) error {
	iter := r.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var stale []string
	for iter.Next(ctx) {
		key := iter.Val()
		if !strings.HasSuffix(key, ":"+epoch) {
			stale = append(stale, key)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, stale...).Err()
}
