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

	"github.com/penny-vault/pv-pricing/common"
	"github.com/penny-vault/pv-pricing/pricing"
	"github.com/spf13/cobra"
)

var datesRange dateRangeFlags

func init() {
	rootCmd.AddCommand(datesCmd)
	datesRange.register(datesCmd)
}

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "Print the dates a historical calculation would price",
	Long: `Resolve a date range against the configured holiday calendars and print
each date along with the market it would be priced against.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := datesRange.options(cmd)
		if err != nil {
			return err
		}

		hctx, err := pricing.NewHistoricalContext(opts)
		if err != nil {
			return err
		}

		pricingDate := hctx.PricingDate()
		for _, dt := range hctx.DateRange() {
			kind := "historical"
			if common.Date(dt).After(pricingDate) {
				kind = "future"
			}
			fmt.Printf("%s\t%s\n", dt.Format(common.DateFormat), kind)
		}
		return nil
	},
}
