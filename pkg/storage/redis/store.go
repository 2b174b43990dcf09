/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/trustbloc/wallet-engine/pkg/api"
)

type redisClient interface {
	API() redis.UniversalClient
	Key(parts ...string) string
	ContextWithTimeout() (context.Context, context.CancelFunc)
}

// Store keeps values under "<prefix>:<name>:<id>" keys, prefix being the client's key namespace.
type Store struct {
	client redisClient
	prefix string
}

// NewStore returns a store for the given name.
func NewStore(client redisClient, name string) *Store {
	return &Store{
		client: client,
		prefix: client.Key(name) + keySeparator,
	}
}

func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	b, err := s.client.API().Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("get %s: %w", id, api.ErrNotFound)
		}

		return nil, fmt.Errorf("redis get: %w", err)
	}

	return b, nil
}

func (s *Store) Put(ctx context.Context, id string, value []byte) error {
	if id == "" {
		return errors.New("id is required")
	}

	if err := s.client.API().Set(ctx, s.prefix+id, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.API().Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

// List returns the stored IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string

	iter := s.client.API().Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), s.prefix))
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}

	sort.Strings(ids)

	return ids, nil
}

// ActivityStore appends activities to a redis list.
type ActivityStore struct {
	client redisClient
	key    string
}

func NewActivityStore(client redisClient, name string) *ActivityStore {
	return &ActivityStore{
		client: client,
		key:    client.Key(name),
	}
}

func (s *ActivityStore) Log(activity *api.Activity) error {
	if activity == nil {
		return errors.New("activity is required")
	}

	b, err := json.Marshal(activity)
	if err != nil {
		return err
	}

	ctx, cancel := s.client.ContextWithTimeout()
	defer cancel()

	if err = s.client.API().RPush(ctx, s.key, b).Err(); err != nil {
		return fmt.Errorf("redis rpush: %w", err)
	}

	return nil
}

func (s *ActivityStore) List(ctx context.Context) ([]*api.Activity, error) {
	values, err := s.client.API().LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	activities := make([]*api.Activity, 0, len(values))

	for _, v := range values {
		a := &api.Activity{}
		if err = json.Unmarshal([]byte(v), a); err != nil {
			return nil, fmt.Errorf("decode activity: %w", err)
		}

		activities = append(activities, a)
	}

	return activities, nil
}
