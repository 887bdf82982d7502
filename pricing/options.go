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
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/penny-vault/pv-pricing/common"
	"github.com/penny-vault/pv-pricing/risk"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// now is replaced in tests
var now = time.Now

func today() time.Time {
	return common.Date(now().In(common.GetTimezone()))
}

// Options configures a pricing Context. Zero values are replaced by the
// defaults noted on each field.
type Options struct {
	// IsAsync returns from a batch scope without waiting for results
	IsAsync bool

	// IsBatch sends every pending request for a provider in a single call
	IsBatch bool

	// UseCache stores results in the result cache and serves repeated keys from it
	UseCache bool

	VisibleToGS     bool
	RequestPriority int `validate:"gte=0,lte=10"`

	// CsaTerm is the csa under which calculations are made; empty means the local ccy ois index
	CsaTerm string

	// MarketDataLocation is the location market data is sourced from (default LDN)
	MarketDataLocation string `default:"LDN" validate:"oneof=NYC LDN HKG"`

	// Timeout bounds each dispatch; zero waits indefinitely
	Timeout time.Duration

	// ShowProgress logs progress after every completed chunk
	ShowProgress   bool
	UseServerCache bool

	// Provider overrides the instrument's default provider
	Provider risk.Provider `validate:"-"`

	// PricingDate is the valuation date (default today)
	PricingDate time.Time

	// Market is the base market (default close market at MarketDataLocation on PricingDate)
	Market *risk.Market `validate:"-"`

	// Scenario is the ambient scenario; nil is the base scenario
	Scenario risk.Scenario `validate:"-"`

	// BatchSize is the maximum number of requests sent to a provider at once
	BatchSize int `default:"250" validate:"gte=1"`

	// Concurrency is the maximum number of chunks in flight
	Concurrency int `default:"4" validate:"gte=1"`

	// Cache is the result cache (default common.DefaultCache())
	Cache *common.Cache `validate:"-"`
}

// SetDefaults fills the fields that depend on other options
func (opts *Options) SetDefaults() {
	if defaults.CanUpdate(opts.PricingDate) {
		opts.PricingDate = today()
	}
	opts.PricingDate = common.Date(opts.PricingDate)

	if opts.Market == nil {
		mkt := risk.CloseMarket(opts.MarketDataLocation, opts.PricingDate, true)
		opts.Market = &mkt
	}

	if opts.Cache == nil {
		opts.Cache = common.DefaultCache()
	}
}

// prepare sets defaults on opts, which must be a pointer to an options
// struct, and validates it
func prepare(opts any) error {
	if err := defaults.Set(opts); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if err := validate.Struct(opts); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}
