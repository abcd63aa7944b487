// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delivery

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-aggregate/pkg/log"
)

// RedisSink pushes posts as JSON onto a redis list
type RedisSink struct {
	client *redis.Client
	key    string
}

// NewRedisSink connects to the redis of cfg
func NewRedisSink(cfg RedisConfig) (*RedisSink, error) {
	if cfg.Addr == "" || cfg.Key == "" {
		return nil, errors.New("redis address and key are required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to connect to redis %s", cfg.Addr)
	}
	return &RedisSink{client: client, key: cfg.Key}, nil
}

// Send pushes the post onto the list
func (s *RedisSink) Send(ctx context.Context, post *Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return errors.Wrap(err, "failed to encode post")
	}
	return s.client.RPush(ctx, s.key, data).Err()
}

// Close closes the connection
func (s *RedisSink) Close() error {
	return s.client.Close()
}

// LogSink logs the posts, used when no redis is configured
type LogSink struct{}

// Send logs the post
func (LogSink) Send(_ context.Context, post *Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return err
	}
	log.Logger("delivery").Info("post relayed", zap.ByteString("post", data))
	return nil
}
