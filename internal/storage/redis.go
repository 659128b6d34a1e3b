package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/jwebster45206/mission-script/pkg/dialogue"
	"github.com/jwebster45206/mission-script/pkg/storage"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements the Store interface on Redis. Each mission is a JSON
// string under mission:{lang}:{id}; missions:{lang} is a set of cached ids.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// Ensure RedisStore implements Store interface
var _ storage.Store = (*RedisStore)(nil)

// NewRedisStore creates a store from a redis:// URL. A zero ttl keeps entries forever.
func NewRedisStore(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &RedisStore{
		client: redis.NewClient(opt),
		logger: logger,
		ttl:    ttl,
	}, nil
}

// Health and lifecycle methods

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStore) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Mission operations

func (r *RedisStore) SaveMission(ctx context.Context, lang string, m *dialogue.MainMission) error {
	if m == nil {
		return errors.New("mission cannot be nil")
	}

	data, err := json.Marshal(m)
	if err != nil {
		r.logger.Error("Failed to marshal mission", "mission_id", m.ID, "error", err)
		return fmt.Errorf("failed to marshal mission: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, storage.MissionKey(lang, m.ID), data, r.ttl)
	pipe.SAdd(ctx, storage.IndexKey(lang), m.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to save mission", "mission_id", m.ID, "lang", lang, "error", err)
		return fmt.Errorf("failed to save mission: %w", err)
	}

	return nil
}

func (r *RedisStore) LoadMission(ctx context.Context, lang string, missionID int64) (*dialogue.MainMission, error) {
	data, err := r.client.Get(ctx, storage.MissionKey(lang, missionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load mission", "mission_id", missionID, "lang", lang, "error", err)
		return nil, fmt.Errorf("failed to load mission: %w", err)
	}

	var m dialogue.MainMission
	if err := json.Unmarshal(data, &m); err != nil {
		r.logger.Error("Failed to unmarshal mission", "mission_id", missionID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal mission: %w", err)
	}

	return &m, nil
}

func (r *RedisStore) DeleteMission(ctx context.Context, lang string, missionID int64) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, storage.MissionKey(lang, missionID))
	pipe.SRem(ctx, storage.IndexKey(lang), missionID)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to delete mission", "mission_id", missionID, "error", err)
		return fmt.Errorf("failed to delete mission: %w", err)
	}
	return nil
}

// ListMissions returns the cached mission ids, ascending. Ids whose entry has
// expired are dropped from the index as they are found.
func (r *RedisStore) ListMissions(ctx context.Context, lang string) ([]int64, error) {
	members, err := r.client.SMembers(ctx, storage.IndexKey(lang)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			r.logger.Warn("Ignoring malformed mission index entry", "member", member)
			continue
		}
		exists, err := r.client.Exists(ctx, storage.MissionKey(lang, id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check mission %d: %w", id, err)
		}
		if exists == 0 {
			r.client.SRem(ctx, storage.IndexKey(lang), member)
			continue
		}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
