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

package pricing_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-pricing/calendar"
	"github.com/penny-vault/pv-pricing/common"
	"github.com/penny-vault/pv-pricing/pricing"
	"github.com/penny-vault/pv-pricing/risk"
)

func keyDates(keys []risk.Key) []time.Time {
	dates := make([]time.Time, len(keys))
	for idx, key := range keys {
		dates[idx] = key.Date
	}
	return dates
}

func formatted(dates []time.Time) []string {
	res := make([]string, len(dates))
	for idx, dt := range dates {
		res[idx] = dt.Format(common.DateFormat)
	}
	return res
}

var _ = Describe("HistoricalContext", func() {
	var (
		ctx      context.Context
		provider *recordingProvider
		restore  func()
	)

	BeforeEach(func() {
		ctx = context.Background()
		provider = newRecordingProvider("recording")
		restore = pricing.SetNow(func() time.Time {
			return time.Date(2020, 7, 8, 11, 0, 0, 0, common.GetTimezone())
		})
	})

	AfterEach(func() {
		restore()
	})

	Context("construction", func() {
		DescribeTable("rejects invalid date arguments",
			func(opts pricing.HistoricalOptions, expected error) {
				_, err := pricing.NewHistoricalContext(opts)
				Expect(errors.Is(err, expected)).To(BeTrue())
				Expect(errors.Is(err, pricing.ErrInvalidArgument)).To(BeTrue())
			},
			Entry("both start and dates",
				pricing.HistoricalOptions{Start: datePtr("2020-07-01"), Dates: []time.Time{date("2020-07-01")}},
				pricing.ErrStartAndDates),
			Entry("both start offset and dates",
				pricing.HistoricalOptions{StartOffset: intPtr(3), Dates: []time.Time{date("2020-07-01")}},
				pricing.ErrStartAndDates),
			Entry("neither start nor dates",
				pricing.HistoricalOptions{End: datePtr("2020-07-01")},
				pricing.ErrMissingStartOrDates),
			Entry("an empty date list",
				pricing.HistoricalOptions{Dates: []time.Time{}},
				pricing.ErrEmptyDateRange),
			Entry("start after end",
				pricing.HistoricalOptions{Start: datePtr("2020-07-08"), End: datePtr("2020-07-01")},
				pricing.ErrEmptyDateRange),
			Entry("a range without business days",
				pricing.HistoricalOptions{Start: datePtr("2020-07-03"), End: datePtr("2020-07-05"), Calendars: []string{"NYC"}},
				pricing.ErrEmptyDateRange),
			Entry("start as a date and an offset",
				pricing.HistoricalOptions{Start: datePtr("2020-07-01"), StartOffset: intPtr(2)},
				pricing.ErrInvalidArgument),
			Entry("end as a date and an offset",
				pricing.HistoricalOptions{Start: datePtr("2020-07-01"), End: datePtr("2020-07-08"), EndOffset: intPtr(2)},
				pricing.ErrInvalidArgument),
			Entry("start and end both offsets",
				pricing.HistoricalOptions{StartOffset: intPtr(2), EndOffset: intPtr(2)},
				pricing.ErrInvalidArgument),
			Entry("a negative offset",
				pricing.HistoricalOptions{StartOffset: intPtr(-2)},
				pricing.ErrInvalidOptions),
			Entry("an invalid market data location",
				pricing.HistoricalOptions{Options: pricing.Options{MarketDataLocation: "SYD"}, Start: datePtr("2020-07-01")},
				pricing.ErrInvalidOptions),
		)

		It("propagates unknown calendars", func() {
			_, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{
				Start:     datePtr("2020-07-01"),
				Calendars: []string{"XYZ"},
			})
			Expect(errors.Is(err, calendar.ErrUnknownCalendar)).To(BeTrue())
		})

		It("expands start and end over the holiday calendar", func() {
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{
				Start:     datePtr("2020-07-01"),
				End:       datePtr("2020-07-08"),
				Calendars: []string{"NYC"},
			})
			Expect(err).To(BeNil())
			Expect(formatted(hctx.DateRange())).To(Equal([]string{"2020-07-01", "2020-07-02", "2020-07-06", "2020-07-07", "2020-07-08"}))
		})

		It("defaults the end to today", func() {
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{
				Start:     datePtr("2020-07-06"),
				Calendars: []string{"NYC"},
			})
			Expect(err).To(BeNil())
			Expect(formatted(hctx.DateRange())).To(Equal([]string{"2020-07-06", "2020-07-07", "2020-07-08"}))
		})

		It("counts a start offset back from the end", func() {
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{
				StartOffset: intPtr(3),
				Calendars:   []string{"NYC"},
			})
			Expect(err).To(BeNil())
			Expect(formatted(hctx.DateRange())).To(Equal([]string{"2020-07-02", "2020-07-06", "2020-07-07", "2020-07-08"}))
		})

		It("counts an end offset forward from the start", func() {
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{
				Start:     datePtr("2020-07-01"),
				EndOffset: intPtr(2),
				Calendars: []string{"NYC"},
			})
			Expect(err).To(BeNil())
			Expect(formatted(hctx.DateRange())).To(Equal([]string{"2020-07-01", "2020-07-02", "2020-07-06"}))
		})

		It("keeps explicit dates in the given order", func() {
			dates := []time.Time{date("2020-07-08"), date("2020-07-04"), date("2020-07-01")}
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{Dates: dates})
			Expect(err).To(BeNil())
			Expect(formatted(hctx.DateRange())).To(Equal([]string{"2020-07-08", "2020-07-04", "2020-07-01"}))

			dates[0] = date("2021-01-01")
			Expect(hctx.DateRange()[0]).To(BeTemporally("==", date("2020-07-08")))
		})

		It("prices explicit dates at midnight in the given order", func() {
			tz := common.GetTimezone()
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{
				Options: pricing.Options{Provider: provider},
				Dates:   []time.Time{time.Date(2020, 7, 7, 16, 0, 0, 0, tz), time.Date(2020, 7, 2, 9, 30, 0, 0, tz)},
			})
			Expect(err).To(BeNil())
			Expect(formatted(hctx.DateRange())).To(Equal([]string{"2020-07-07", "2020-07-02"}))
			Expect(hctx.DateRange()[0]).To(BeTemporally("==", date("2020-07-07")))

			_, err = hctx.Calc(ctx, swap(), risk.Price).Result(ctx)
			Expect(err).To(BeNil())

			keys := provider.Keys()
			Expect(keys).To(HaveLen(2))
			Expect(keys[0].Date).To(BeTemporally("==", date("2020-07-07")))
			Expect(keys[1].Date).To(BeTemporally("==", date("2020-07-02")))
			Expect(keys[0].Date.Hour()).To(Equal(0))
		})

		It("fails fast when the aggregate is awaited inside an enclosing batch", func() {
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{
				Options: pricing.Options{Provider: provider},
				Start:   datePtr("2020-07-01"),
				End:     datePtr("2020-07-02"),
			})
			Expect(err).To(BeNil())

			var waitErr error
			Expect(hctx.Batch(ctx, func(ctx context.Context) error {
				_, waitErr = hctx.Calc(ctx, swap(), risk.Price).Result(ctx)
				return nil
			})).To(Succeed())

			Expect(errors.Is(waitErr, risk.ErrResultInScope)).To(BeTrue())
			Expect(provider.Keys()).To(HaveLen(2))
		})

		It("returns a copy of the date range", func() {
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{Start: datePtr("2020-07-06")})
			Expect(err).To(BeNil())

			dates := hctx.DateRange()
			dates[0] = date("1999-01-01")
			Expect(hctx.DateRange()[0]).To(BeTemporally("==", date("2020-07-06")))
		})

		It("prices with historical diddles only", func() {
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{Start: datePtr("2020-07-06")})
			Expect(err).To(BeNil())
			Expect(hctx.Parameters().UseHistoricalDiddlesOnly).To(BeTrue())
		})
	})

	Context("calc", func() {
		It("returns a single element when start equals end", func() {
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{
				Options: pricing.Options{Provider: provider},
				Start:   datePtr("2020-07-07"),
				End:     datePtr("2020-07-07"),
			})
			Expect(err).To(BeNil())

			hf := hctx.Calc(ctx, swap(), risk.Price)
			Expect(hf.Len()).To(Equal(1))

			df, err := hf.Result(ctx)
			Expect(err).To(BeNil())
			Expect(df.Len()).To(Equal(1))
			Expect(df.Dates[0]).To(BeTemporally("==", date("2020-07-07")))
			Expect(df.Column("Price")).To(Equal([]float64{7}))
		})

		It("builds one key per date against that date's close market", func() {
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{
				Options:   pricing.Options{Provider: provider, MarketDataLocation: "NYC", CsaTerm: "USD-SOFR"},
				Start:     datePtr("2020-07-01"),
				End:       datePtr("2020-07-08"),
				Calendars: []string{"NYC"},
			})
			Expect(err).To(BeNil())

			df, err := hctx.Calc(ctx, swap(), risk.Delta).Result(ctx)
			Expect(err).To(BeNil())
			Expect(df.Column("Delta")).To(Equal([]float64{1, 2, 6, 7, 8}))

			keys := provider.Keys()
			Expect(formatted(keyDates(keys))).To(Equal(formatted(hctx.DateRange())))
			for _, key := range keys {
				Expect(key.Provider).To(Equal("recording"))
				Expect(key.Market.Equal(risk.CloseMarket("NYC", key.Date, true))).To(BeTrue())
				Expect(key.Scenario).To(BeNil())
				Expect(key.Measure).To(Equal(risk.Delta))
				Expect(key.Parameters).To(Equal(risk.Parameters{CsaTerm: "USD-SOFR", UseHistoricalDiddlesOnly: true}))
			}
		})

		It("submits every date in one batch", func() {
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{
				Options: pricing.Options{Provider: provider},
				Start:   datePtr("2020-06-01"),
				End:     datePtr("2020-07-08"),
			})
			Expect(err).To(BeNil())

			hctx.Calc(ctx, swap(), risk.Price)
			Expect(provider.Calls()).To(HaveLen(1))
			Expect(provider.Calls()[0]).To(HaveLen(len(hctx.DateRange())))
		})

		It("carries the ambient scenario", func() {
			scenario := risk.MarketDataScenario{Scenario: risk.RollFwd{Date: date("2020-12-31"), RealiseFwd: true}}
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{
				Options: pricing.Options{Provider: provider, Scenario: scenario},
				Dates:   []time.Time{date("2020-07-01"), date("2020-07-02")},
			})
			Expect(err).To(BeNil())

			_, err = hctx.Calc(ctx, swap(), risk.Price).Result(ctx)
			Expect(err).To(BeNil())
			for _, key := range provider.Keys() {
				Expect(key.Scenario).To(Equal(scenario))
			}
		})

		It("returns a fresh aggregate future on every call", func() {
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{
				Options: pricing.Options{Provider: provider},
				Dates:   []time.Time{date("2020-07-01"), date("2020-07-02")},
			})
			Expect(err).To(BeNil())

			hf1 := hctx.Calc(ctx, swap(), risk.Price)
			hf2 := hctx.Calc(ctx, swap(), risk.Price)
			Expect(hf1.Futures()[0].ID()).ToNot(Equal(hf2.Futures()[0].ID()))
			Expect(provider.Calls()).To(HaveLen(2))
		})

		It("fails every date without a provider", func() {
			hctx, err := pricing.NewHistoricalContext(pricing.HistoricalOptions{
				Dates: []time.Time{date("2020-07-01"), date("2020-07-02")},
			})
			Expect(err).To(BeNil())

			_, err = hctx.Calc(ctx, swap(), risk.Price).Result(ctx)
			Expect(errors.Is(err, pricing.ErrNoProvider)).To(BeTrue())
		})
	})
})
