package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	redisKeyPrefix   = "relaybot:"
	redisUsersKey    = redisKeyPrefix + "users"
	redisChannelsKey = redisKeyPrefix + "channels"
	redisMediaKey    = redisKeyPrefix + "media:" // + models.MediaConfigID
)

// RedisStore keeps the bot state in Redis as JSON values.
type RedisStore struct {
	client *redis.Client
}

// OpenRedis connects to Redis and checks the connection.
func OpenRedis(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewRedisStore(client), nil
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func userKey(userID int64) string {
	return redisKeyPrefix + "user:" + strconv.FormatInt(userID, 10)
}

func mediaKey() string {
	return redisMediaKey + strconv.Itoa(models.MediaConfigID)
}

// GetUserState returns the stored state or models.ErrUserNotFound.
func (s *RedisStore) GetUserState(ctx context.Context, userID int64) (*models.UserState, error) {
	data, err := s.client.Get(ctx, userKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}

	var state models.UserState
	if err = json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode user %d: %w", userID, err)
	}
	return &state, nil
}

// SaveUserState writes the state and registers the user ID in one transaction.
func (s *RedisStore) SaveUserState(ctx context.Context, state *models.UserState) error {
	stored := state.Clone()
	stored.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode user %d: %w", state.UserID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, userKey(state.UserID), data, 0)
		pipe.SAdd(ctx, redisUsersKey, state.UserID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save user %d: %w", state.UserID, err)
	}
	return nil
}

// ListUserIDs returns every known user ID in ascending order.
func (s *RedisStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	members, err := s.client.SMembers(ctx, redisUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			logrus.WithError(err).Warnf("Skipping malformed user id %q", m)
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ListChannelOptions returns the options ordered by row and position.
func (s *RedisStore) ListChannelOptions(ctx context.Context) ([]models.ChannelOption, error) {
	values, err := s.client.HGetAll(ctx, redisChannelsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list channel options: %w", err)
	}

	options := make([]models.ChannelOption, 0, len(values))
	for field, raw := range values {
		var opt models.ChannelOption
		if err = json.Unmarshal([]byte(raw), &opt); err != nil {
			return nil, fmt.Errorf("decode channel option %s: %w", field, err)
		}
		options = append(options, opt)
	}
	models.SortChannelOptions(options)
	return options, nil
}

// GetChannelOption returns the option with the given row ID or models.ErrChannelNotFound.
func (s *RedisStore) GetChannelOption(ctx context.Context, id int64) (models.ChannelOption, error) {
	raw, err := s.client.HGet(ctx, redisChannelsKey, strconv.FormatInt(id, 10)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ChannelOption{}, models.ErrChannelNotFound
	}
	if err != nil {
		return models.ChannelOption{}, fmt.Errorf("get channel option %d: %w", id, err)
	}

	var opt models.ChannelOption
	if err = json.Unmarshal(raw, &opt); err != nil {
		return models.ChannelOption{}, fmt.Errorf("decode channel option %d: %w", id, err)
	}
	return opt, nil
}

// UpdateChannelOption overwrites an existing option.
func (s *RedisStore) UpdateChannelOption(ctx context.Context, opt models.ChannelOption) error {
	field := strconv.FormatInt(opt.ID, 10)
	exists, err := s.client.HExists(ctx, redisChannelsKey, field).Result()
	if err != nil {
		return fmt.Errorf("check channel option %d: %w", opt.ID, err)
	}
	if !exists {
		return models.ErrChannelNotFound
	}

	data, err := json.Marshal(opt)
	if err != nil {
		return fmt.Errorf("encode channel option %d: %w", opt.ID, err)
	}
	if err = s.client.HSet(ctx, redisChannelsKey, field, data).Err(); err != nil {
		return fmt.Errorf("update channel option %d: %w", opt.ID, err)
	}
	return nil
}

// SeedChannelOptions stores options only when none exist yet.
func (s *RedisStore) SeedChannelOptions(ctx context.Context, options []models.ChannelOption) error {
	count, err := s.client.HLen(ctx, redisChannelsKey).Result()
	if err != nil {
		return fmt.Errorf("count channel options: %w", err)
	}
	if count > 0 {
		return nil
	}

	values := make(map[string]interface{}, len(options))
	for _, opt := range options {
		data, err := json.Marshal(opt)
		if err != nil {
			return fmt.Errorf("encode channel option %d: %w", opt.ID, err)
		}
		values[strconv.FormatInt(opt.ID, 10)] = data
	}
	if err = s.client.HSet(ctx, redisChannelsKey, values).Err(); err != nil {
		return fmt.Errorf("seed channel options: %w", err)
	}
	logrus.Infof("Seeded %d channel options", len(options))
	return nil
}

// GetMediaConfig returns the media channel config or models.ErrMediaConfigNotFound.
func (s *RedisStore) GetMediaConfig(ctx context.Context) (models.MediaChannelConfig, error) {
	data, err := s.client.Get(ctx, mediaKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.MediaChannelConfig{}, models.ErrMediaConfigNotFound
	}
	if err != nil {
		return models.MediaChannelConfig{}, fmt.Errorf("get media config: %w", err)
	}

	var cfg models.MediaChannelConfig
	if err = json.Unmarshal(data, &cfg); err != nil {
		return models.MediaChannelConfig{}, fmt.Errorf("decode media config: %w", err)
	}
	return cfg, nil
}

// SaveMediaConfig replaces the media channel config.
func (s *RedisStore) SaveMediaConfig(ctx context.Context, cfg models.MediaChannelConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode media config: %w", err)
	}
	if err = s.client.Set(ctx, mediaKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("save media config: %w", err)
	}
	return nil
}
