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
	"sync"
)

type scopeKey struct{}

// batchScope holds the requests submitted inside one outermost Batch call
type batchScope struct {
	owner  *Context
	parent *batchScope

	mu      sync.Mutex
	open    bool
	pending []*pendingRequest
}

func scopeOf(ctx context.Context) *batchScope {
	scope, _ := ctx.Value(scopeKey{}).(*batchScope)
	return scope
}

// scopeFrom returns the innermost scope on ctx owned by c
func (c *Context) scopeFrom(ctx context.Context) *batchScope {
	for scope := scopeOf(ctx); scope != nil; scope = scope.parent {
		if scope.owner == c {
			return scope
		}
	}
	return nil
}

// add queues req; it returns false once the scope has closed
func (s *batchScope) add(req *pendingRequest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return false
	}
	s.pending = append(s.pending, req)
	return true
}

func (s *batchScope) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// close stops the scope accepting requests and returns those it held
func (s *batchScope) close() []*pendingRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	batch := s.pending
	s.pending = nil
	return batch
}

// holds reports whether ctx is inside this scope while it is still open
func (s *batchScope) holds(ctx context.Context) bool {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()
	if !open {
		return false
	}
	for scope := scopeOf(ctx); scope != nil; scope = scope.parent {
		if scope == s {
			return true
		}
	}
	return false
}
