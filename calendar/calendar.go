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

// Package calendar resolves business dates for one or more market holiday
// calendars.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/penny-vault/pv-pricing/common"
)

var (
	ErrUnknownCalendar = errors.New("unknown holiday calendar")
	ErrBeginAfterEnd   = errors.New("begin date is after end date")
)

// registry maps an upper-case calendar name to its set of holidays, keyed by
// the date formatted with common.DateFormat
type registry struct {
	mu       sync.RWMutex
	holidays map[string]map[string]struct{}
}

var calendars = &registry{
	holidays: make(map[string]map[string]struct{}),
}

// Register adds holidays to the named calendar, creating it if necessary
func Register(name string, dates ...time.Time) {
	calendars.mu.Lock()
	defer calendars.mu.Unlock()

	name = strings.ToUpper(name)
	set, ok := calendars.holidays[name]
	if !ok {
		set = make(map[string]struct{}, len(dates))
		calendars.holidays[name] = set
	}

	for _, dt := range dates {
		set[dt.Format(common.DateFormat)] = struct{}{}
	}
}

// Calendars returns the sorted names of every registered calendar
func Calendars() []string {
	calendars.mu.RLock()
	defer calendars.mu.RUnlock()

	names := make([]string, 0, len(calendars.holidays))
	for k := range calendars.holidays {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// IsMarketHoliday returns true if t is a holiday in any of the given calendars
func IsMarketHoliday(t time.Time, names ...string) (bool, error) {
	calendars.mu.RLock()
	defer calendars.mu.RUnlock()

	key := t.Format(common.DateFormat)
	for _, name := range names {
		set, ok := calendars.holidays[strings.ToUpper(name)]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrUnknownCalendar, name)
		}
		if _, ok := set[key]; ok {
			return true, nil
		}
	}
	return false, nil
}

// IsBusinessDay returns true if t is a weekday and not a holiday in any of
// the given calendars. With no calendars only weekends are excluded.
func IsBusinessDay(t time.Time, names ...string) (bool, error) {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false, nil
	}
	holiday, err := IsMarketHoliday(t, names...)
	if err != nil {
		return false, err
	}
	return !holiday, nil
}
