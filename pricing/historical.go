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
	"errors"
	"fmt"
	"time"

	"github.com/penny-vault/pv-pricing/calendar"
	"github.com/penny-vault/pv-pricing/common"
	"github.com/penny-vault/pv-pricing/risk"
	"github.com/rs/zerolog/log"
)

// HistoricalOptions configures a HistoricalContext. Exactly one of
// Start/StartOffset or Dates must be set.
type HistoricalOptions struct {
	Options

	// Start is the first date of the range
	Start *time.Time

	// StartOffset places the start n business days before the end
	StartOffset *int `validate:"omitempty,gte=0"`

	// End is the last date of the range (default today)
	End *time.Time

	// EndOffset places the end n business days after the start
	EndOffset *int `validate:"omitempty,gte=0"`

	// Calendars are the holiday calendars used to expand the range
	Calendars []string

	// Dates is an explicit list of dates used verbatim
	Dates []time.Time

	// Resolver expands the range (default calendar.DefaultResolver())
	Resolver calendar.Resolver `validate:"-"`
}

// HistoricalContext prices an instrument once per date in a range. Each date
// is priced against the close market for that date.
type HistoricalContext struct {
	*Context
	dateRange []time.Time
}

// marketSelector returns the market and scenario used to price date
type marketSelector func(date time.Time) (risk.Market, risk.Scenario)

// NewHistoricalContext validates opts and resolves the date range
func NewHistoricalContext(opts HistoricalOptions) (*HistoricalContext, error) {
	if err := prepare(&opts); err != nil {
		return nil, err
	}
	return newHistoricalContext(opts)
}

func newHistoricalContext(opts HistoricalOptions) (*HistoricalContext, error) {
	dates, err := resolveDateRange(opts)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("NumDates", len(dates)).Time("Start", dates[0]).Time("End", dates[len(dates)-1]).Msg("resolved date range")

	return &HistoricalContext{
		Context:   newContext(opts.Options, true),
		dateRange: dates,
	}, nil
}

func resolveDateRange(opts HistoricalOptions) ([]time.Time, error) {
	hasStart := opts.Start != nil || opts.StartOffset != nil

	if hasStart && opts.Dates != nil {
		return nil, ErrStartAndDates
	}

	if opts.Dates != nil {
		if len(opts.Dates) == 0 {
			return nil, ErrEmptyDateRange
		}
		dates := make([]time.Time, len(opts.Dates))
		for idx, dt := range opts.Dates {
			dates[idx] = common.Date(dt)
		}
		return dates, nil
	}

	if !hasStart {
		return nil, ErrMissingStartOrDates
	}

	switch {
	case opts.Start != nil && opts.StartOffset != nil:
		return nil, fmt.Errorf("%w: start must be a date or an offset, not both", ErrInvalidArgument)
	case opts.End != nil && opts.EndOffset != nil:
		return nil, fmt.Errorf("%w: end must be a date or an offset, not both", ErrInvalidArgument)
	case opts.StartOffset != nil && opts.EndOffset != nil:
		return nil, fmt.Errorf("%w: start and end cannot both be offsets", ErrInvalidArgument)
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = calendar.DefaultResolver()
	}

	var start, end time.Time
	var err error

	if opts.End != nil {
		end = *opts.End
	} else if opts.EndOffset == nil {
		end = today()
	}

	if opts.Start != nil {
		start = *opts.Start
	} else if start, err = resolver.BusinessDayOffset(end, -*opts.StartOffset, opts.Calendars...); err != nil {
		return nil, err
	}

	if opts.EndOffset != nil {
		if end, err = resolver.BusinessDayOffset(start, *opts.EndOffset, opts.Calendars...); err != nil {
			return nil, err
		}
	}

	dates, err := resolver.DateRange(start, end, opts.Calendars...)
	if err != nil {
		if errors.Is(err, calendar.ErrBeginAfterEnd) {
			return nil, fmt.Errorf("%w: %w", ErrEmptyDateRange, err)
		}
		return nil, err
	}

	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: no business days between %s and %s", ErrEmptyDateRange,
			start.Format(common.DateFormat), end.Format(common.DateFormat))
	}

	return dates, nil
}

// DateRange returns a copy of the resolved dates
func (c *HistoricalContext) DateRange() []time.Time {
	dates := make([]time.Time, len(c.dateRange))
	copy(dates, c.dateRange)
	return dates
}

// Calc prices inst on every date in the range and returns the per-date
// futures in date range order
func (c *HistoricalContext) Calc(ctx context.Context, inst risk.Instrument, measure risk.Measure) *risk.HistoricalFuture {
	location := c.Market().Location
	scenario := c.Scenario()

	return c.calcOverDates(ctx, inst, measure, func(date time.Time) (risk.Market, risk.Scenario) {
		return risk.CloseMarket(location, date, true), scenario
	})
}

// calcOverDates submits one request per date inside a single batch scope;
// selector chooses the market and scenario for each date
func (c *HistoricalContext) calcOverDates(ctx context.Context, inst risk.Instrument, measure risk.Measure, selector marketSelector) *risk.HistoricalFuture {
	provider, _ := c.Provider(inst)
	name := providerName(provider)
	parameters := c.Parameters()

	futures := make([]*risk.Future, 0, len(c.dateRange))
	_ = c.Batch(ctx, func(ctx context.Context) error {
		for _, date := range c.dateRange {
			mkt, scenario := selector(date)
			key := risk.Key{
				Provider:   name,
				Date:       date,
				Market:     mkt,
				Parameters: parameters,
				Scenario:   scenario,
				Measure:    measure,
			}
			futures = append(futures, c.Submit(ctx, inst, key))
		}
		return nil
	})

	return risk.NewHistoricalFuture(futures)
}
