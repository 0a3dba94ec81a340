// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/campus-tally/models"
)

// RedisStore keeps each snapshot under one key, "tally:<election id>"
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	c := redis.NewClient(opts)

	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	return &RedisStore{client: c}, nil
}

func (rs *RedisStore) Load(ctx context.Context, electionID string) (*models.TallySnapshot, error) {
	data, err := rs.client.Get(ctx, snapshotKey(electionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading snapshot from redis: %w", err)
	}
	return decode(data)
}

func (rs *RedisStore) Save(ctx context.Context, electionID string, snap *models.TallySnapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}

	if err := rs.client.Set(ctx, snapshotKey(electionID), data, 0).Err(); err != nil {
		return fmt.Errorf("error writing snapshot to redis: %w", err)
	}
	return nil
}

func (rs *RedisStore) Delete(ctx context.Context, electionID string) error {
	if err := rs.client.Del(ctx, snapshotKey(electionID)).Err(); err != nil {
		return fmt.Errorf("error deleting snapshot from redis: %w", err)
	}
	return nil
}

func (rs *RedisStore) Close() error {
	if err := rs.client.Close(); err != nil {
		return fmt.Errorf("error closing redis client: %w", err)
	}
	return nil
}
