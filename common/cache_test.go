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

package common_test

import (
	"bytes"
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/penny-vault/pv-pricing/common"
)

var _ = Describe("Cache", func() {
	var (
		ctx   context.Context
		cache *common.Cache
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		cache, err = common.NewCache(2, nil, time.Minute)
		Expect(err).To(BeNil())
	})

	It("refuses a non-positive size", func() {
		_, err := common.NewCache(0, nil, time.Minute)
		Expect(errors.Is(err, common.ErrCacheSize)).To(BeTrue())
	})

	It("returns what was stored", func() {
		Expect(cache.Set(ctx, "a", []byte("hello world"))).To(Succeed())
		val, ok, err := cache.Get(ctx, "a")
		Expect(err).To(BeNil())
		Expect(ok).To(BeTrue())
		Expect(string(val)).To(Equal("hello world"))
	})

	It("reports a miss for unknown keys", func() {
		val, ok, err := cache.Get(ctx, "missing")
		Expect(err).To(BeNil())
		Expect(ok).To(BeFalse())
		Expect(val).To(BeNil())
	})

	It("evicts the least recently used entry", func() {
		Expect(cache.Set(ctx, "a", []byte("1"))).To(Succeed())
		Expect(cache.Set(ctx, "b", []byte("2"))).To(Succeed())
		Expect(cache.Set(ctx, "c", []byte("3"))).To(Succeed())
		Expect(cache.Len()).To(Equal(2))

		_, ok, _ := cache.Get(ctx, "a")
		Expect(ok).To(BeFalse())
	})

	It("is configured from viper", func() {
		viper.Set("cache.redis", false)
		viper.Set("cache.local_size", 16)
		Expect(common.SetupCache()).To(Succeed())
		Expect(common.DefaultCache()).ToNot(BeNil())

		common.SetDefaultCache(nil)
		Expect(common.DefaultCache()).To(BeNil())
	})
})

var _ = Describe("Compression", func() {
	It("round trips repetitive payloads and shrinks them", func() {
		in := bytes.Repeat([]byte(`{"value":101.25,"unit":"USD"}`), 64)
		compressed, err := common.Compress(in)
		Expect(err).To(BeNil())
		Expect(len(compressed)).To(BeNumerically("<", len(in)))

		out, err := common.Decompress(compressed)
		Expect(err).To(BeNil())
		Expect(out).To(Equal(in))
	})
})
