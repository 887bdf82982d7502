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

package risk_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/multierr"

	"github.com/penny-vault/pv-pricing/common"
	"github.com/penny-vault/pv-pricing/risk"
)

func keyOn(dt time.Time) risk.Key {
	return risk.Key{
		Provider: "test",
		Date:     dt,
		Market:   risk.CloseMarket("LDN", dt, true),
		Measure:  risk.Delta,
	}
}

var _ = Describe("Future", func() {
	var (
		ctx context.Context
		d1  time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		d1 = time.Date(2021, 3, 1, 0, 0, 0, 0, common.GetTimezone())
	})

	It("only resolves once", func() {
		f := risk.NewFuture(keyOn(d1))
		Expect(f.Resolve(risk.Result{Value: 1}, nil)).To(BeTrue())
		Expect(f.Resolve(risk.Result{Value: 2}, nil)).To(BeFalse())

		res, err := f.Result(ctx)
		Expect(err).To(BeNil())
		Expect(res.Value).To(Equal(1.0))
	})

	It("returns resolved futures immediately", func() {
		f := risk.ResolvedFuture(keyOn(d1), risk.Result{Value: 3, Unit: "USD"})
		Eventually(f.Done()).Should(BeClosed())
		Expect(f.Key().Date).To(BeTemporally("==", d1))
	})

	It("gives every future a unique id", func() {
		Expect(risk.NewFuture(keyOn(d1)).ID()).ToNot(Equal(risk.NewFuture(keyOn(d1)).ID()))
	})

	It("honours context cancellation", func() {
		f := risk.NewFuture(keyOn(d1))
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := f.Result(cancelCtx)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})

	It("fails instead of waiting while its request is held", func() {
		f := risk.NewFuture(keyOn(d1))
		f.SetHeld(func(context.Context) bool { return true })

		_, err := f.Result(ctx)
		Expect(errors.Is(err, risk.ErrResultInScope)).To(BeTrue())
	})

	It("returns a resolved result even when held", func() {
		f := risk.NewFuture(keyOn(d1))
		f.SetHeld(func(context.Context) bool { return true })
		f.Resolve(risk.Result{Value: 4}, nil)

		res, err := f.Result(ctx)
		Expect(err).To(BeNil())
		Expect(res.Value).To(Equal(4.0))
	})

	It("releases concurrent waiters", func() {
		f := risk.NewFuture(keyOn(d1))
		var wg sync.WaitGroup
		vals := make([]float64, 5)
		for idx := range vals {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				defer GinkgoRecover()
				res, err := f.Result(ctx)
				Expect(err).To(BeNil())
				vals[idx] = res.Value
			}(idx)
		}
		f.Resolve(risk.Result{Value: 7}, nil)
		wg.Wait()
		Expect(vals).To(Equal([]float64{7, 7, 7, 7, 7}))
	})
})

var _ = Describe("HistoricalFuture", func() {
	var (
		ctx     context.Context
		dates   []time.Time
		futures []*risk.Future
	)

	BeforeEach(func() {
		ctx = context.Background()
		tz := common.GetTimezone()
		dates = []time.Time{
			time.Date(2021, 3, 1, 0, 0, 0, 0, tz),
			time.Date(2021, 3, 2, 0, 0, 0, 0, tz),
			time.Date(2021, 3, 3, 0, 0, 0, 0, tz),
		}
		futures = make([]*risk.Future, len(dates))
		for idx, dt := range dates {
			futures[idx] = risk.NewFuture(keyOn(dt))
		}
	})

	It("keeps positional order regardless of completion order", func() {
		hf := risk.NewHistoricalFuture(futures)
		futures[2].Resolve(risk.Result{Value: 3}, nil)
		futures[0].Resolve(risk.Result{Value: 1}, nil)
		futures[1].Resolve(risk.Result{Value: 2}, nil)

		Eventually(hf.Done()).Should(BeClosed())

		df, err := hf.Result(ctx)
		Expect(err).To(BeNil())
		Expect(df.ColNames).To(Equal([]string{"Delta"}))
		Expect(df.Column("Delta")).To(Equal([]float64{1, 2, 3}))
		Expect(df.Len()).To(Equal(3))
		for idx, dt := range dates {
			Expect(df.Dates[idx]).To(BeTemporally("==", dt))
			Expect(hf.Dates()[idx]).To(BeTemporally("==", dt))
		}
	})

	It("combines per-date failures", func() {
		hf := risk.NewHistoricalFuture(futures)
		errA := errors.New("market data unavailable")
		errB := errors.New("timeout")
		futures[0].Resolve(risk.Result{}, errA)
		futures[1].Resolve(risk.Result{Value: 2}, nil)
		futures[2].Resolve(risk.Result{}, errB)

		df, err := hf.Result(ctx)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, errA)).To(BeTrue())
		Expect(errors.Is(err, errB)).To(BeTrue())
		Expect(multierr.Errors(err)).To(HaveLen(2))
		Expect(err.Error()).To(ContainSubstring("2021-03-01"))

		Expect(math.IsNaN(df.Column("Delta")[0])).To(BeTrue())
		Expect(df.Column("Delta")[1]).To(Equal(2.0))
	})

	It("stops waiting when the context is cancelled", func() {
		hf := risk.NewHistoricalFuture(futures)
		cancelCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err := hf.Result(cancelCtx)
		Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
	})

	It("fails fast when its requests are held", func() {
		futures[0].Resolve(risk.Result{Value: 1}, nil)
		futures[1].SetHeld(func(context.Context) bool { return true })
		hf := risk.NewHistoricalFuture(futures)

		df, err := hf.Result(ctx)
		Expect(df).To(BeNil())
		Expect(errors.Is(err, risk.ErrResultInScope)).To(BeTrue())
	})

	It("is not affected by changes to the input slice", func() {
		hf := risk.NewHistoricalFuture(futures)
		futures[0] = nil
		Expect(hf.Futures()[0]).ToNot(BeNil())
		Expect(hf.Len()).To(Equal(3))
	})
})
