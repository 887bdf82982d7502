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

package cmd

import (
	"fmt"
	"time"

	"github.com/penny-vault/pv-pricing/common"
	"github.com/penny-vault/pv-pricing/pricing"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// dateRangeFlags are the flags shared by every command that resolves a
// historical date range
type dateRangeFlags struct {
	start       string
	end         string
	startOffset int
	endOffset   int
	dates       []string
	calendars   []string
	pricingDate string
}

func (f *dateRangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "first date of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "last date of the range (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVar(&f.startOffset, "start-offset", 0, "start the range this many business days before the end")
	cmd.Flags().IntVar(&f.endOffset, "end-offset", 0, "end the range this many business days after the start")
	cmd.Flags().StringSliceVar(&f.dates, "dates", nil, "explicit comma separated list of dates, used instead of a range")
	cmd.Flags().StringSliceVar(&f.calendars, "calendar", []string{"NYC"}, "holiday calendars used to expand the range")
	cmd.Flags().StringVar(&f.pricingDate, "pricing-date", "", "valuation date (YYYY-MM-DD), defaults to today")
}

func parseDateFlag(name, val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	dt, err := common.ParseDate(val)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return &dt, nil
}

// options converts the parsed flags into HistoricalOptions
func (f *dateRangeFlags) options(cmd *cobra.Command) (pricing.HistoricalOptions, error) {
	opts := pricing.HistoricalOptions{
		Calendars: f.calendars,
	}
	opts.MarketDataLocation = viper.GetString("pricing.location")

	var err error
	if opts.Start, err = parseDateFlag("start", f.start); err != nil {
		return opts, err
	}
	if opts.End, err = parseDateFlag("end", f.end); err != nil {
		return opts, err
	}

	pricingDate, err := parseDateFlag("pricing-date", f.pricingDate)
	if err != nil {
		return opts, err
	}
	if pricingDate != nil {
		opts.PricingDate = *pricingDate
	}

	if cmd.Flags().Changed("start-offset") {
		opts.StartOffset = &f.startOffset
	}
	if cmd.Flags().Changed("end-offset") {
		opts.EndOffset = &f.endOffset
	}

	if len(f.dates) > 0 {
		opts.Dates = make([]time.Time, 0, len(f.dates))
		for _, val := range f.dates {
			dt, err := common.ParseDate(val)
			if err != nil {
				return opts, fmt.Errorf("invalid --dates: %w", err)
			}
			opts.Dates = append(opts.Dates, dt)
		}
	}

	return opts, nil
}
