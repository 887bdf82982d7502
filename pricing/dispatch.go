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

package pricing

import (
	"context"

	"github.com/penny-vault/pv-pricing/observability/opentelemetry"
	"github.com/penny-vault/pv-pricing/risk"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

type chunk struct {
	provider risk.Provider
	requests []*pendingRequest
}

// dispatch sends batch to the providers and resolves every future in it
func (c *Context) dispatch(ctx context.Context, batch []*pendingRequest) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pricing.dispatch")
	defer span.End()

	chunks := c.chunks(batch)
	span.SetAttributes(
		attribute.Int("requests", len(batch)),
		attribute.Int("chunks", len(chunks)),
	)

	subLog := log.With().Int("NumRequests", len(batch)).Int("NumChunks", len(chunks)).Logger()
	subLog.Debug().Msg("dispatching risk requests")

	var g errgroup.Group
	g.SetLimit(c.opts.Concurrency)

	completed := make(chan int, len(chunks))
	for _, ch := range chunks {
		ch := ch
		g.Go(func() error {
			err := c.calcChunk(ctx, ch)
			completed <- len(ch.requests)
			return err
		})
	}

	if c.opts.ShowProgress {
		go func() {
			done := 0
			for cnt := range completed {
				done += cnt
				subLog.Info().Int("Completed", done).Msg("risk requests completed")
			}
		}()
	}

	err := g.Wait()
	close(completed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "risk calculation failed")
		subLog.Warn().Err(err).Msg("risk calculation failed")
	}
}

// chunks groups requests by provider, in order of first appearance, and
// splits each group into runs of at most BatchSize requests. When IsBatch is
// set every group is sent as a single chunk.
func (c *Context) chunks(batch []*pendingRequest) []*chunk {
	order := make([]string, 0)
	groups := make(map[string][]*pendingRequest)
	providers := make(map[string]risk.Provider)
	for _, req := range batch {
		name := req.provider.Name()
		if _, ok := groups[name]; !ok {
			order = append(order, name)
			providers[name] = req.provider
		}
		groups[name] = append(groups[name], req)
	}

	chunks := make([]*chunk, 0, len(order))
	for _, name := range order {
		reqs := groups[name]
		size := c.opts.BatchSize
		if c.opts.IsBatch {
			size = len(reqs)
		}
		for start := 0; start < len(reqs); start += size {
			end := start + size
			if end > len(reqs) {
				end = len(reqs)
			}
			chunks = append(chunks, &chunk{
				provider: providers[name],
				requests: reqs[start:end],
			})
		}
	}

	return chunks
}

// calcChunk calls the provider once and resolves the chunk's futures
// positionally. A provider error is delivered unchanged to every future.
func (c *Context) calcChunk(ctx context.Context, ch *chunk) error {
	requests := make([]risk.Request, len(ch.requests))
	for idx, req := range ch.requests {
		requests[idx] = req.request
	}

	results, err := ch.provider.Calc(ctx, requests)
	if err == nil {
		err = risk.CheckResults(requests, results)
	}

	if err != nil {
		for _, req := range ch.requests {
			req.future.Resolve(risk.Result{}, err)
		}
		return err
	}

	for idx, req := range ch.requests {
		if req.cacheKey != "" {
			c.store(ctx, req.cacheKey, results[idx])
		}
		req.future.Resolve(results[idx], nil)
	}

	return nil
}
