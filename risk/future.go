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

package risk

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrResultInScope = errors.New("result requested inside the batch scope holding its request")
)

// Future is the pending result of a single risk request. It is safe to wait
// on from multiple goroutines.
type Future struct {
	id     uuid.UUID
	key    Key
	done   chan struct{}
	once   sync.Once
	result Result
	err    error

	held func(ctx context.Context) bool
}

// NewFuture creates an unresolved future for key
func NewFuture(key Key) *Future {
	return &Future{
		id:   uuid.New(),
		key:  key,
		done: make(chan struct{}),
	}
}

// ResolvedFuture creates a future that already holds result
func ResolvedFuture(key Key, result Result) *Future {
	f := NewFuture(key)
	f.Resolve(result, nil)
	return f
}

func (f *Future) ID() uuid.UUID {
	return f.id
}

func (f *Future) Key() Key {
	return f.key
}

// Resolve sets the outcome of the future. Only the first call has an effect;
// it returns false for every later call.
func (f *Future) Resolve(result Result, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.result = result
		f.err = err
		close(f.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the future is resolved
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// SetHeld installs a check reporting whether the request is still queued in
// a batch scope carried by ctx. It must be called before the future is
// shared.
func (f *Future) SetHeld(held func(ctx context.Context) bool) {
	f.held = held
}

// Result blocks until the future is resolved or ctx is done. Waiting from
// inside the batch scope that still holds the request fails with
// ErrResultInScope since the request cannot be sent until that scope exits.
func (f *Future) Result(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	default:
	}

	if f.held != nil && f.held(ctx) {
		return Result{}, ErrResultInScope
	}

	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
