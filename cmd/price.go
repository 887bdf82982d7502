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
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-pricing/api"
	"github.com/penny-vault/pv-pricing/pricing"
	"github.com/penny-vault/pv-pricing/risk"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	ErrInvalidProperty = errors.New("instrument properties must be formatted as key=value")
)

var (
	priceRange        dateRangeFlags
	priceMeasure      string
	priceFuture       bool
	priceRollToFwds   bool
	priceScenarioName string
	priceBatch        bool
	priceBatchSize    int
	priceConcurrency  int
	priceUseCache     bool
	priceTimeout      time.Duration
	priceShowProgress bool
	priceCsaTerm      string
	pricePriority     int
	priceDropFailed   bool
	priceJSON         bool
)

func init() {
	rootCmd.AddCommand(priceCmd)

	priceRange.register(priceCmd)
	priceCmd.Flags().StringVarP(&priceMeasure, "measure", "m", string(risk.Price), "risk measure to compute")
	priceCmd.Flags().BoolVar(&priceFuture, "future", false, "price dates after the pricing date by rolling today's market forward")
	priceCmd.Flags().BoolVar(&priceRollToFwds, "roll-to-fwds", true, "realise forward curves on future dates, when false spot rates are realised")
	priceCmd.Flags().StringVar(&priceScenarioName, "scenario-name", "", "name attached to the roll forward scenario")
	priceCmd.Flags().BoolVar(&priceBatch, "batch", false, "send every date to the provider in a single request")
	priceCmd.Flags().IntVar(&priceBatchSize, "batch-size", 250, "maximum number of requests sent to the provider at once")
	priceCmd.Flags().IntVar(&priceConcurrency, "concurrency", 4, "maximum number of provider calls in flight")
	priceCmd.Flags().BoolVar(&priceUseCache, "cache", false, "serve repeated requests from the result cache")
	priceCmd.Flags().DurationVar(&priceTimeout, "timeout", 0, "abandon outstanding requests after this long")
	priceCmd.Flags().BoolVar(&priceShowProgress, "progress", false, "log progress as results arrive")
	priceCmd.Flags().StringVar(&priceCsaTerm, "csa", "", "csa term the calculation is made under")
	priceCmd.Flags().IntVar(&pricePriority, "priority", 0, "request priority between 0 and 10")
	priceCmd.Flags().BoolVar(&priceDropFailed, "drop-failed", false, "leave dates that could not be priced out of the output")
	priceCmd.Flags().BoolVar(&priceJSON, "json", false, "print the series as a JSON object keyed by date")
}

var priceCmd = &cobra.Command{
	Use:   "price <asset class> <type> [key=value ...]",
	Short: "Price an instrument once per date",
	Long: `Price an instrument once per business day in a date range and print the
resulting series. With --future, dates after the pricing date are priced
against the pricing date's market rolled forward to each date.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		props, err := parseProperties(args[2:])
		if err != nil {
			return err
		}

		session, err := api.SessionFromConfig()
		if err != nil {
			return err
		}

		inst := &risk.InstrumentDef{
			AssetClass:   args[0],
			Type:         args[1],
			Properties:   props,
			RiskProvider: api.NewRiskAPI(session),
		}

		histOpts, err := priceRange.options(cmd)
		if err != nil {
			return err
		}
		histOpts.IsBatch = priceBatch
		histOpts.BatchSize = priceBatchSize
		histOpts.Concurrency = priceConcurrency
		histOpts.UseCache = priceUseCache
		histOpts.Timeout = priceTimeout
		histOpts.ShowProgress = priceShowProgress
		histOpts.CsaTerm = priceCsaTerm
		histOpts.RequestPriority = pricePriority

		measure := risk.Measure(priceMeasure)

		var result *risk.HistoricalFuture
		if priceFuture {
			rollToFwds := priceRollToFwds
			pctx, err := pricing.NewBackToTheFutureContext(pricing.BackToTheFutureOptions{
				HistoricalOptions: histOpts,
				RollToFwds:        &rollToFwds,
				Name:              priceScenarioName,
			})
			if err != nil {
				return err
			}
			result = pctx.Calc(ctx, inst, measure)
		} else {
			pctx, err := pricing.NewHistoricalContext(histOpts)
			if err != nil {
				return err
			}
			result = pctx.Calc(ctx, inst, measure)
		}

		log.Info().Str("Instrument", inst.Name()).Str("Measure", measure.String()).Int("NumDates", result.Len()).Msg("waiting for results")

		df, err := result.Result(ctx)
		if df == nil {
			return err
		}
		if err != nil {
			log.Warn().Err(err).Int("NumFailed", countNaN(df.Column(measure.String()))).Msg("some dates could not be priced")
		}

		if priceDropFailed {
			priced := df.Copy().Drop(math.NaN())
			log.Debug().Int("NumDropped", df.Len()-priced.Len()).Msg("dropped dates that could not be priced")
			df = priced
		}

		log.Info().Time("Start", df.Start()).Time("End", df.End()).Int("NumRows", df.Len()).Msg("priced instrument")

		if priceJSON {
			out, err := json.Marshal(df.AsMap(measure.String()))
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Println(df.Table())
		return nil
	},
}

func countNaN(vals []float64) int {
	cnt := 0
	for _, val := range vals {
		if math.IsNaN(val) {
			cnt++
		}
	}
	return cnt
}

// parseProperties turns key=value arguments into instrument properties.
// Numeric values are sent as numbers.
func parseProperties(args []string) (map[string]any, error) {
	props := make(map[string]any, len(args))
	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProperty, arg)
		}
		if num, err := strconv.ParseFloat(val, 64); err == nil {
			props[key] = num
			continue
		}
		props[key] = val
	}
	return props, nil
}
