package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quantumgateway/hotelchat/internal/assistant/model"
	errx "github.com/quantumgateway/hotelchat/internal/core/error"
	logx "github.com/quantumgateway/hotelchat/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type RedisTranscriptRepository struct {
	rdb      redis.Cmdable
	ttl      time.Duration
	maxItems int
}

func NewRedisTranscriptRepository(rdb redis.Cmdable, cfg model.TranscriptConfig) *RedisTranscriptRepository {
	return &RedisTranscriptRepository{rdb: rdb, ttl: cfg.TTL, maxItems: cfg.MaxItems}
}

func (r *RedisTranscriptRepository) transcriptKey(sessionID string) string {
	return fmt.Sprintf("hotelchat:session:%s:transcript", sessionID)
}

func (r *RedisTranscriptRepository) Append(ctx context.Context, sessionID string, exchange model.Exchange) error {
	b, err := json.Marshal(exchange)
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to marshal exchange")
		return fmt.Errorf("marshal exchange: %w", err)
	}
	key := r.transcriptKey(sessionID)

	// append, keep only the newest maxItems, extend TTL on touch
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, b)
		if r.maxItems > 0 {
			pipe.LTrim(ctx, key, int64(-r.maxItems), -1)
		}
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to append exchange to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisTranscriptRepository) Load(ctx context.Context, sessionID string) ([]model.Exchange, error) {
	key := r.transcriptKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.Exchange{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load transcript from redis")
		return nil, errx.WrapRedis(err)
	}

	out := make([]model.Exchange, 0, len(rows))
	for i, s := range rows {
		var ex model.Exchange
		if err := json.Unmarshal([]byte(s), &ex); err != nil {
			logx.Error().Err(err).Str("session_id", sessionID).Int("index", i).Msg("failed to unmarshal exchange")
			return nil, fmt.Errorf("unmarshal exchange at index %d: %w", i, err)
		}
		out = append(out, ex)
	}
	return out, nil
}

func (r *RedisTranscriptRepository) Clear(ctx context.Context, sessionID string) error {
	key := r.transcriptKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete transcript from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.TranscriptRepository = (*RedisTranscriptRepository)(nil)
