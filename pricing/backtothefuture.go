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
	"time"

	"github.com/penny-vault/pv-pricing/common"
	"github.com/penny-vault/pv-pricing/risk"
)

// BackToTheFutureOptions configures a BackToTheFutureContext
type BackToTheFutureOptions struct {
	HistoricalOptions

	// RollToFwds realises the forward curve on future dates; when false spot
	// rates are realised (default true)
	RollToFwds *bool `default:"true"`

	// Name is attached to the roll forward scenario
	Name string
}

// BackToTheFutureContext prices dates up to the pricing date like a
// HistoricalContext. Dates after the pricing date are priced against the
// base market with a roll forward scenario to that date.
type BackToTheFutureContext struct {
	*HistoricalContext
	rollToFwds bool
	name       string
}

// NewBackToTheFutureContext validates opts and resolves the date range
func NewBackToTheFutureContext(opts BackToTheFutureOptions) (*BackToTheFutureContext, error) {
	if err := prepare(&opts); err != nil {
		return nil, err
	}

	hc, err := newHistoricalContext(opts.HistoricalOptions)
	if err != nil {
		return nil, err
	}

	return &BackToTheFutureContext{
		HistoricalContext: hc,
		rollToFwds:        *opts.RollToFwds,
		name:              opts.Name,
	}, nil
}

func (c *BackToTheFutureContext) RollToFwds() bool {
	return c.rollToFwds
}

func (c *BackToTheFutureContext) Name() string {
	return c.name
}

// Calc prices inst on every date in the range. A date equal to the pricing
// date is priced historically.
func (c *BackToTheFutureContext) Calc(ctx context.Context, inst risk.Instrument, measure risk.Measure) *risk.HistoricalFuture {
	baseMarket := c.Market()
	baseScenario := c.Scenario()
	location := baseMarket.Location
	pricingDate := c.PricingDate()

	return c.calcOverDates(ctx, inst, measure, func(date time.Time) (risk.Market, risk.Scenario) {
		if common.Date(date).After(pricingDate) {
			return baseMarket, risk.MarketDataScenario{
				Scenario: risk.RollFwd{
					Date:       date,
					RealiseFwd: c.rollToFwds,
					Name:       c.name,
				},
			}
		}
		return risk.CloseMarket(location, date, true), baseScenario
	})
}
