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
	"context"
	"fmt"
	"os"

	"github.com/penny-vault/pv-pricing/calendar"
	"github.com/penny-vault/pv-pricing/common"
	"github.com/penny-vault/pv-pricing/database"
	"github.com/penny-vault/pv-pricing/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var shutdownTracer func(context.Context) error

func init() {
	// Database
	viper.BindEnv("database.url", "DATABASE_URL")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string used to load market holidays")
	viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))

	// Risk and data API
	viper.BindEnv("api.url", "PV_API_URL")
	rootCmd.PersistentFlags().String("api-url", "", "Base URL of the risk and data API")
	viper.BindPFlag("api.url", rootCmd.PersistentFlags().Lookup("api-url"))

	viper.BindEnv("api.token", "PV_API_TOKEN")
	rootCmd.PersistentFlags().String("api-token", "", "Bearer token sent with every API request")
	viper.BindPFlag("api.token", rootCmd.PersistentFlags().Lookup("api-token"))

	viper.BindEnv("api.timeout", "PV_API_TIMEOUT")
	rootCmd.PersistentFlags().Duration("api-timeout", 0, "HTTP timeout for API requests, 0 waits indefinitely")
	viper.BindPFlag("api.timeout", rootCmd.PersistentFlags().Lookup("api-timeout"))

	// Result cache
	viper.BindEnv("cache.redis", "PV_CACHE_REDIS")
	rootCmd.PersistentFlags().Bool("cache-redis", false, "Share cached results through redis")
	viper.BindPFlag("cache.redis", rootCmd.PersistentFlags().Lookup("cache-redis"))

	viper.BindEnv("cache.redis_url", "REDIS_URL")
	rootCmd.PersistentFlags().String("cache-redis-url", "redis://localhost:6379/0", "Redis connection string")
	viper.BindPFlag("cache.redis_url", rootCmd.PersistentFlags().Lookup("cache-redis-url"))

	viper.BindEnv("cache.local_size", "PV_CACHE_LOCAL_SIZE")
	rootCmd.PersistentFlags().Int("cache-local-size", 10000, "Number of results kept in the in-process cache")
	viper.BindPFlag("cache.local_size", rootCmd.PersistentFlags().Lookup("cache-local-size"))

	viper.BindEnv("cache.ttl", "PV_CACHE_TTL")
	rootCmd.PersistentFlags().Int("cache-ttl", 86400, "Seconds a result is kept in redis")
	viper.BindPFlag("cache.ttl", rootCmd.PersistentFlags().Lookup("cache-ttl"))

	// Pricing
	viper.BindEnv("pricing.location", "PV_PRICING_LOCATION")
	rootCmd.PersistentFlags().String("location", "LDN", "Market data location, one of NYC, LDN, or HKG")
	viper.BindPFlag("pricing.location", rootCmd.PersistentFlags().Lookup("location"))

	// Logging configuration
	viper.BindEnv("log.level", "PV_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "PV_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "PV_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stderr", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	viper.BindEnv("log.pretty", "PV_LOG_PRETTY")
	rootCmd.PersistentFlags().Bool("log-pretty", true, "Write human readable log messages instead of JSON")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// Tracing
	viper.BindEnv("otlp.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OTLP collector to send traces to, if blank tracing is disabled")
	viper.BindPFlag("otlp.endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint"))

	viper.BindEnv("otlp.http", "PV_OTLP_HTTP")
	rootCmd.PersistentFlags().Bool("otlp-http", false, "Use HTTP instead of gRPC for the OTLP connection")
	viper.BindPFlag("otlp.http", rootCmd.PersistentFlags().Lookup("otlp-http"))
}

var rootCmd = &cobra.Command{
	Use:     common.ProgramName,
	Version: common.CurrentVersion.String(),
	Short:   "Price instruments over historical and future dates",
	Long: `Price an instrument once per business day in a date range. Dates up to the
pricing date use that day's close market; with --future, later dates are
priced against today's market rolled forward to the target date.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		common.SetupLogging()

		if err := common.SetupCache(); err != nil {
			return err
		}

		var err error
		if shutdownTracer, err = opentelemetry.Setup(); err != nil {
			return err
		}

		if viper.GetString("database.url") != "" {
			ctx := cmd.Context()
			if err := database.Connect(ctx); err != nil {
				return err
			}
			if err := calendar.LoadHolidays(ctx); err != nil {
				log.Warn().Err(err).Msg("could not load market holidays, using embedded calendars")
			}
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if database.Configured() {
			database.LogOpenTransactions()
		}

		if shutdownTracer == nil {
			return
		}
		if err := shutdownTracer(context.Background()); err != nil {
			log.Error().Err(err).Msg("could not flush traces")
		}
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
