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
	"fmt"
	"time"

	"github.com/penny-vault/pv-pricing/common"
)

// Resolver expands date ranges and business day offsets against a set of
// holiday calendars
type Resolver interface {
	// DateRange returns every business day in [begin, end], ascending
	DateRange(begin, end time.Time, calendars ...string) ([]time.Time, error)

	// BusinessDayOffset moves t by n business days. A non-business t is
	// first rolled forward when n >= 0 and backward when n < 0.
	BusinessDayOffset(t time.Time, n int, calendars ...string) (time.Time, error)
}

type holidayResolver struct{}

// DefaultResolver returns a Resolver backed by the registered holiday calendars
func DefaultResolver() Resolver {
	return holidayResolver{}
}

func (holidayResolver) DateRange(begin, end time.Time, calendars ...string) ([]time.Time, error) {
	return DateRange(begin, end, calendars...)
}

func (holidayResolver) BusinessDayOffset(t time.Time, n int, calendars ...string) (time.Time, error) {
	return BusinessDayOffset(t, n, calendars...)
}

// DateRange returns every business day between begin and end inclusive
func DateRange(begin, end time.Time, calendars ...string) ([]time.Time, error) {
	begin = common.Date(begin)
	end = common.Date(end)
	if begin.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrBeginAfterEnd, begin.Format(common.DateFormat), end.Format(common.DateFormat))
	}

	dates := make([]time.Time, 0, int(end.Sub(begin).Hours()/24)+1)
	for dt := begin; !dt.After(end); dt = dt.AddDate(0, 0, 1) {
		ok, err := IsBusinessDay(dt, calendars...)
		if err != nil {
			return nil, err
		}
		if ok {
			dates = append(dates, dt)
		}
	}

	return dates, nil
}

// BusinessDayOffset moves t by n business days
func BusinessDayOffset(t time.Time, n int, calendars ...string) (time.Time, error) {
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}

	dt, err := roll(common.Date(t), step, calendars...)
	if err != nil {
		return time.Time{}, err
	}

	for ; n > 0; n-- {
		if dt, err = roll(dt.AddDate(0, 0, step), step, calendars...); err != nil {
			return time.Time{}, err
		}
	}

	return dt, nil
}

// roll advances dt in the direction of step until it lands on a business day
func roll(dt time.Time, step int, calendars ...string) (time.Time, error) {
	for {
		ok, err := IsBusinessDay(dt, calendars...)
		if err != nil {
			return time.Time{}, err
		}
		if ok {
			return dt, nil
		}
		dt = dt.AddDate(0, 0, step)
	}
}
