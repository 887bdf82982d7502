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

package calendar

import (
	"context"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pv-pricing/common"
	"github.com/penny-vault/pv-pricing/database"
	"github.com/rs/zerolog/log"
)

//go:embed holidays.toml
var embeddedHolidays []byte

type holidayFile map[string]struct {
	Description string   `toml:"description"`
	Holidays    []string `toml:"holidays"`
}

// lastDatabaseLoad is the latest event date read from market_holidays
var (
	lastDatabaseLoad time.Time
	databaseLoadMu   sync.Mutex
)

func init() {
	if err := parseHolidays(embeddedHolidays); err != nil {
		log.Panic().Err(err).Msg("could not parse embedded holiday calendars")
	}
}

func parseHolidays(raw []byte) error {
	var cals holidayFile
	if err := toml.Unmarshal(raw, &cals); err != nil {
		return err
	}

	for name, cal := range cals {
		dates := make([]time.Time, 0, len(cal.Holidays))
		for _, val := range cal.Holidays {
			dt, err := common.ParseDate(val)
			if err != nil {
				return fmt.Errorf("calendar %s: %w", name, err)
			}
			dates = append(dates, dt)
		}
		Register(name, dates...)
	}

	return nil
}

// LoadHolidays reads additional holidays from the market_holidays table. The
// first call reads the whole table; later calls only request dates newer than
// the last one read. Dates already known from the embedded calendars are
// merged.
func LoadHolidays(ctx context.Context) error {
	databaseLoadMu.Lock()
	defer databaseLoadMu.Unlock()

	trx, err := database.Begin(ctx)
	if err != nil {
		return err
	}

	since := lastDatabaseLoad

	var rows pgx.Rows
	if since.IsZero() {
		rows, err = trx.Query(ctx, "SELECT calendar, event_date FROM market_holidays ORDER BY event_date ASC")
	} else {
		rows, err = trx.Query(ctx, "SELECT calendar, event_date FROM market_holidays WHERE event_date > $1 ORDER BY event_date ASC", since)
	}
	if err != nil {
		log.Error().Err(err).Msg("could not query market holidays")
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Err(err).Msg("could not rollback transaction")
		}
		return err
	}

	loaded := make(map[string][]time.Time)
	latest := since
	cnt := 0
	for rows.Next() {
		var name string
		var dt time.Time
		if err = rows.Scan(&name, &dt); err != nil {
			log.Error().Err(err).Msg("could not scan market holiday")
			break
		}
		loaded[name] = append(loaded[name], dt)
		if dt.After(latest) {
			latest = dt
		}
		cnt++
	}
	rows.Close()

	if err == nil {
		err = rows.Err()
	}
	if err != nil {
		log.Error().Err(err).Msg("could not read market holidays")
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Err(err).Msg("could not rollback transaction")
		}
		return err
	}

	for name, dates := range loaded {
		Register(name, dates...)
	}
	lastDatabaseLoad = latest

	log.Info().Int("NumHolidays", cnt).Time("Since", since).Msg("loaded market holidays")

	return trx.Commit(ctx)
}
