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

package calendar_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"

	"github.com/penny-vault/pv-pricing/calendar"
	"github.com/penny-vault/pv-pricing/database"
	"github.com/penny-vault/pv-pricing/pgxmockhelper"
)

var _ = Describe("Holidays", func() {
	var (
		ctx    context.Context
		dbPool pgxmock.PgxConnIface
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		database.SetPool(dbPool)
		calendar.ResetDatabaseLoad()
	})

	AfterEach(func() {
		Expect(dbPool.ExpectationsWereMet()).To(Succeed())
	})

	It("loads additional calendars from the database", func() {
		pgxmockhelper.MockHolidays(dbPool, "testdata/market_holidays.csv", time.Time{})
		Expect(calendar.LoadHolidays(ctx)).To(Succeed())
		Expect(database.OpenTransactions()).To(Equal(0))

		Expect(calendar.Calendars()).To(ContainElement("HKG"))

		holiday, err := calendar.IsMarketHoliday(date("2027-02-08"), "HKG")
		Expect(err).To(BeNil())
		Expect(holiday).To(BeTrue())

		holiday, err = calendar.IsMarketHoliday(date("2027-01-18"), "NYC")
		Expect(err).To(BeNil())
		Expect(holiday).To(BeTrue())

		res, err := calendar.DateRange(date("2027-02-05"), date("2027-02-10"), "HKG")
		Expect(err).To(BeNil())
		Expect(formatted(res)).To(Equal([]string{"2027-02-05", "2027-02-10"}))
	})

	It("loads database holidays older than the embedded calendars", func() {
		pgxmockhelper.MockHolidays(dbPool, "testdata/market_holidays.csv", time.Time{})
		Expect(calendar.LoadHolidays(ctx)).To(Succeed())

		holiday, err := calendar.IsMarketHoliday(date("2024-03-13"), "NYC")
		Expect(err).To(BeNil())
		Expect(holiday).To(BeTrue())
	})

	It("only requests newer holidays on later loads", func() {
		pgxmockhelper.MockHolidays(dbPool, "testdata/market_holidays.csv", time.Time{})
		Expect(calendar.LoadHolidays(ctx)).To(Succeed())

		dbPool.ExpectBegin()
		dbPool.ExpectQuery("SELECT calendar, event_date FROM market_holidays WHERE event_date > \\$1").
			WithArgs(date("2027-02-09")).
			WillReturnRows(pgxmock.NewRows([]string{"calendar", "event_date"}))
		dbPool.ExpectCommit()

		Expect(calendar.LoadHolidays(ctx)).To(Succeed())
	})

	It("rolls back when reading rows fails part way", func() {
		rows := pgxmock.NewRows([]string{"calendar", "event_date"}).
			AddRow("SGP", date("2027-01-03")).
			AddRow("SGP", date("2027-01-04")).
			RowError(1, errors.New("connection reset"))

		dbPool.ExpectBegin()
		dbPool.ExpectQuery("SELECT calendar, event_date FROM market_holidays").WillReturnRows(rows)
		dbPool.ExpectRollback()

		Expect(calendar.LoadHolidays(ctx)).To(MatchError("connection reset"))
		Expect(database.OpenTransactions()).To(Equal(0))
		Expect(calendar.Calendars()).NotTo(ContainElement("SGP"))
	})

	It("rolls back when the query fails", func() {
		dbPool.ExpectBegin()
		dbPool.ExpectQuery("SELECT calendar, event_date FROM market_holidays").WillReturnError(errors.New("relation does not exist"))
		dbPool.ExpectRollback()

		Expect(calendar.LoadHolidays(ctx)).To(MatchError("relation does not exist"))
		Expect(database.OpenTransactions()).To(Equal(0))
	})

	It("requires a database pool", func() {
		database.SetPool(nil)
		err := calendar.LoadHolidays(ctx)
		Expect(errors.Is(err, database.ErrNoPool)).To(BeTrue())
	})
})
