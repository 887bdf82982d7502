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

// Package pricing submits risk requests to providers under an ambient set of
// options and expands them over date ranges.
package pricing

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-pricing/risk"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

// Context holds the ambient configuration used to price instruments.
// Requests submitted inside a Batch scope are held until the outermost scope
// exits; otherwise they are dispatched as soon as they are submitted. A
// Context is read-only after construction and safe for concurrent use.
type Context struct {
	opts       Options
	parameters risk.Parameters
}

type pendingRequest struct {
	provider risk.Provider
	request  risk.Request
	future   *risk.Future
	cacheKey string
}

// NewContext validates opts and creates a pricing context
func NewContext(opts Options) (*Context, error) {
	if err := prepare(&opts); err != nil {
		return nil, err
	}
	return newContext(opts, false), nil
}

func newContext(opts Options, historicalOnly bool) *Context {
	return &Context{
		opts: opts,
		parameters: risk.Parameters{
			CsaTerm:                  opts.CsaTerm,
			UseHistoricalDiddlesOnly: historicalOnly,
		},
	}
}

// Options returns a copy of the context's options
func (c *Context) Options() Options {
	return c.opts
}

func (c *Context) PricingDate() time.Time {
	return c.opts.PricingDate
}

// Market returns the base market
func (c *Context) Market() risk.Market {
	return *c.opts.Market
}

func (c *Context) Scenario() risk.Scenario {
	return c.opts.Scenario
}

func (c *Context) Parameters() risk.Parameters {
	return c.parameters
}

// Provider returns the provider used for inst: the context's provider if
// set, otherwise the instrument's default
func (c *Context) Provider(inst risk.Instrument) (risk.Provider, error) {
	if c.opts.Provider != nil {
		return c.opts.Provider, nil
	}
	if inst != nil {
		if provider := inst.Provider(); provider != nil {
			return provider, nil
		}
	}
	return nil, ErrNoProvider
}

func providerName(provider risk.Provider) string {
	if provider == nil {
		return ""
	}
	return provider.Name()
}

// Calc prices inst on the pricing date against the base market
func (c *Context) Calc(ctx context.Context, inst risk.Instrument, measure risk.Measure) *risk.Future {
	provider, _ := c.Provider(inst)
	key := risk.Key{
		Provider:   providerName(provider),
		Date:       c.PricingDate(),
		Market:     c.Market(),
		Parameters: c.Parameters(),
		Scenario:   c.Scenario(),
		Measure:    measure,
	}
	return c.Submit(ctx, inst, key)
}

// Submit queues a single request and returns its future. Cached results are
// returned already resolved.
func (c *Context) Submit(ctx context.Context, inst risk.Instrument, key risk.Key) *risk.Future {
	future := risk.NewFuture(key)

	provider, err := c.Provider(inst)
	if err != nil {
		future.Resolve(risk.Result{}, err)
		return future
	}

	var cacheKey string
	if c.opts.UseCache && c.opts.Cache != nil {
		cacheKey, err = resultCacheKey(inst, key)
		if err != nil {
			log.Warn().Err(err).Str("Key", key.String()).Msg("could not compute cache key")
		} else if result, ok := c.cached(ctx, cacheKey); ok {
			future.Resolve(result, nil)
			return future
		}
	}

	req := &pendingRequest{
		provider: provider,
		request: risk.Request{
			Instrument: inst,
			Key:        key,
			Options: risk.RequestOptions{
				VisibleToGS:     c.opts.VisibleToGS,
				RequestPriority: c.opts.RequestPriority,
				UseServerCache:  c.opts.UseServerCache,
				IsBatch:         c.opts.IsBatch,
			},
		},
		future:   future,
		cacheKey: cacheKey,
	}

	if scope := c.scopeFrom(ctx); scope != nil {
		future.SetHeld(scope.holds)
		if scope.add(req) {
			return future
		}
	}

	c.send(ctx, []*pendingRequest{req})
	return future
}

// Batch runs fn inside a batch scope carried by the context passed to fn.
// Requests submitted with that context are held and dispatched when the
// outermost Batch call for this Context returns; unless the context is async
// Batch waits for them to complete. Scopes belong to the calling goroutine's
// context chain so concurrent callers never share one. The error returned by
// fn is returned unchanged.
func (c *Context) Batch(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.scopeFrom(ctx) != nil {
		return fn(ctx)
	}

	scope := &batchScope{owner: c, parent: scopeOf(ctx), open: true}
	defer func() {
		c.send(ctx, scope.close())
	}()

	return fn(context.WithValue(ctx, scopeKey{}, scope))
}

// Pending returns the number of requests held by the batch scope carried by
// ctx
func (c *Context) Pending(ctx context.Context) int {
	scope := c.scopeFrom(ctx)
	if scope == nil {
		return 0
	}
	return scope.len()
}

func (c *Context) send(ctx context.Context, batch []*pendingRequest) {
	if len(batch) == 0 {
		return
	}

	if c.opts.IsAsync {
		go c.dispatch(ctx, batch)
		return
	}

	c.dispatch(ctx, batch)
}

func (c *Context) cached(ctx context.Context, cacheKey string) (risk.Result, bool) {
	var result risk.Result
	raw, ok, err := c.opts.Cache.Get(ctx, cacheKey)
	if err != nil {
		log.Warn().Err(err).Str("CacheKey", cacheKey).Msg("could not read result cache")
		return result, false
	}
	if !ok {
		return result, false
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		log.Warn().Err(err).Str("CacheKey", cacheKey).Msg("could not decode cached result")
		return result, false
	}
	return result, true
}

func (c *Context) store(ctx context.Context, cacheKey string, result risk.Result) {
	raw, err := json.Marshal(result)
	if err != nil {
		log.Warn().Err(err).Str("CacheKey", cacheKey).Msg("could not encode result")
		return
	}
	if err := c.opts.Cache.Set(ctx, cacheKey, raw); err != nil {
		log.Warn().Err(err).Str("CacheKey", cacheKey).Msg("could not write result cache")
	}
}

// resultCacheKey identifies a result by its risk key and the instrument definition
func resultCacheKey(inst risk.Instrument, key risk.Key) (string, error) {
	instJSON, err := json.Marshal(inst)
	if err != nil {
		return "", err
	}
	hasher := blake3.New()
	hasher.Write([]byte(key.String()))
	hasher.Write(instJSON)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
