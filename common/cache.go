// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrCacheSize = errors.New("cache size must be positive")
)

// Cache is a two tier byte cache. Values are lz4 compressed and kept in a
// local LRU; when a redis client is configured they are also written
// through to redis with the configured ttl.
type Cache struct {
	local *lru.Cache
	rdb   *redis.Client
	ttl   time.Duration
}

var (
	defaultCache *Cache
	cacheLocker  sync.RWMutex
)

// NewCache creates a cache holding up to localSize entries in memory. rdb may be nil.
func NewCache(localSize int, rdb *redis.Client, ttl time.Duration) (*Cache, error) {
	if localSize <= 0 {
		return nil, ErrCacheSize
	}

	local, err := lru.New(localSize)
	if err != nil {
		return nil, err
	}

	return &Cache{
		local: local,
		rdb:   rdb,
		ttl:   ttl,
	}, nil
}

// SetupCache creates the process wide cache from the cache.* configuration keys
func SetupCache() error {
	var rdb *redis.Client
	if viper.GetBool("cache.redis") {
		opt, err := redis.ParseURL(viper.GetString("cache.redis_url"))
		if err != nil {
			log.Error().Err(err).Msg("could not parse redis URL")
			return err
		}

		rdb = redis.NewClient(opt)
	}

	size := viper.GetInt("cache.local_size")
	if size <= 0 {
		size = 1024
	}

	cache, err := NewCache(size, rdb, time.Duration(viper.GetInt("cache.ttl"))*time.Second)
	if err != nil {
		log.Error().Err(err).Msg("could not create LRU cache")
		return err
	}

	SetDefaultCache(cache)
	return nil
}

// SetDefaultCache replaces the process wide cache; nil disables it
func SetDefaultCache(cache *Cache) {
	cacheLocker.Lock()
	defer cacheLocker.Unlock()
	defaultCache = cache
}

// DefaultCache returns the process wide cache or nil if SetupCache has not been called
func DefaultCache() *Cache {
	cacheLocker.RLock()
	defer cacheLocker.RUnlock()
	return defaultCache
}

// Set stores val under key
func (cache *Cache) Set(ctx context.Context, key string, val []byte) error {
	compressed, err := Compress(val)
	if err != nil {
		return err
	}
	cache.local.Add(key, compressed)

	if cache.rdb != nil {
		return cache.rdb.Set(ctx, key, compressed, cache.ttl).Err()
	}
	return nil
}

// Get returns the value stored under key. The boolean is false on a miss.
func (cache *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := cache.local.Get(key); ok {
		val, err := Decompress(v.([]byte))
		return val, err == nil, err
	}

	if cache.rdb == nil {
		return nil, false, nil
	}

	compressed, err := cache.rdb.GetEx(ctx, key, cache.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	// promote to the local tier
	cache.local.Add(key, compressed)

	val, err := Decompress(compressed)
	return val, err == nil, err
}

// Len returns the number of entries in the local tier
func (cache *Cache) Len() int {
	return cache.local.Len()
}

func Compress(in []byte) ([]byte, error) {
	w := &bytes.Buffer{}
	zw := lz4.NewWriter(w)
	if _, err := io.Copy(zw, bytes.NewReader(in)); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func Decompress(in []byte) ([]byte, error) {
	w := &bytes.Buffer{}
	zr := lz4.NewReader(bytes.NewReader(in))
	if _, err := io.Copy(w, zr); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
