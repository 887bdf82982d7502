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

package pgxmockhelper

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pashagolub/pgxmock"
	"github.com/penny-vault/pv-pricing/common"
	"github.com/rs/zerolog/log"
)

// CSVRows holds typed rows read from a csv fixture
type CSVRows struct {
	rows    [][]any
	header  []string
	dateCol int
}

// NewCSVRows reads csvFn and converts the columns named in typeMap to
// "date" or "float64"; other columns are left as strings
func NewCSVRows(csvFn string, typeMap map[string]string) *CSVRows {
	subLog := log.With().Str("CsvFn", csvFn).Logger()

	rows := &CSVRows{
		dateCol: -1,
		rows:    make([][]any, 0),
	}
	rawData, err := os.ReadFile(csvFn)
	if err != nil {
		subLog.Panic().Err(err).Msg("could not read file")
	}

	lines := strings.Split(strings.TrimRight(string(rawData), "\n"), "\n")
	if len(lines) < 1 || lines[0] == "" {
		subLog.Panic().Msg("input file is missing a header")
	}

	rows.header = strings.Split(lines[0], ",")
	for _, ll := range lines[1:] {
		parts := strings.Split(ll, ",")
		if len(parts) != len(rows.header) {
			subLog.Panic().Str("Line", ll).Int("NumCols", len(rows.header)).Msg("line has the wrong number of columns")
		}

		cols := make([]any, len(rows.header))
		for idx, val := range parts {
			switch typeMap[rows.header[idx]] {
			case "date":
				parsed, err := common.ParseDate(val)
				if err != nil {
					subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to date")
				}
				cols[idx] = parsed
				rows.dateCol = idx
			case "float64":
				parsed, err := strconv.ParseFloat(val, 64)
				if err != nil {
					subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to float64")
				}
				cols[idx] = parsed
			default:
				cols[idx] = val
			}
		}
		rows.rows = append(rows.rows, cols)
	}

	return rows
}

// After drops every row dated on or before a
func (csvRows *CSVRows) After(a time.Time) *CSVRows {
	if csvRows.dateCol == -1 {
		log.Panic().Time("a", a).Msg("no date column found")
	}
	newRows := make([][]any, 0, len(csvRows.rows))
	for _, row := range csvRows.rows {
		if row[csvRows.dateCol].(time.Time).After(a) {
			newRows = append(newRows, row)
		}
	}
	csvRows.rows = newRows
	return csvRows
}

// Len returns the number of rows
func (csvRows *CSVRows) Len() int {
	return len(csvRows.rows)
}

// Rows converts the fixture into pgxmock rows
func (csvRows *CSVRows) Rows() *pgxmock.Rows {
	r := pgxmock.NewRows(csvRows.header)
	for _, row := range csvRows.rows {
		r.AddRow(row...)
	}
	return r
}

// MockHolidays expects a market_holidays query answered from fn
func MockHolidays(db pgxmock.PgxConnIface, fn string, since time.Time) {
	db.ExpectBegin()
	db.ExpectQuery("SELECT calendar, event_date FROM market_holidays").WillReturnRows(
		NewCSVRows(fn, map[string]string{
			"event_date": "date",
		}).After(since).Rows())
	db.ExpectCommit()
}
