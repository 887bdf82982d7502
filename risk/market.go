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

package risk

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-pricing/common"
)

const (
	CloseMarketType = "CloseMarket"
)

// Market identifies the market data used to price an instrument
type Market struct {
	Type     string
	Location string
	Date     time.Time
	Check    bool
}

// CloseMarket is the close of day market for location on date
func CloseMarket(location string, date time.Time, check bool) Market {
	return Market{
		Type:     CloseMarketType,
		Location: location,
		Date:     common.Date(date),
		Check:    check,
	}
}

// Equal compares markets by value; dates are compared with time.Equal
func (m Market) Equal(other Market) bool {
	return m.Type == other.Type && m.Location == other.Location && m.Check == other.Check && m.Date.Equal(other.Date)
}

func (m Market) String() string {
	return fmt.Sprintf("%s(%s,%s,%t)", m.Type, m.Location, m.Date.Format(common.DateFormat), m.Check)
}

func (m Market) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string `json:"marketType"`
		Location string `json:"location"`
		Date     string `json:"date"`
		Check    bool   `json:"check"`
	}{
		Type:     m.Type,
		Location: m.Location,
		Date:     m.Date.Format(common.DateFormat),
		Check:    m.Check,
	})
}
