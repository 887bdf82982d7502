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
	"encoding/hex"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-pricing/common"
	"github.com/zeebo/blake3"
)

// Parameters are the calculation settings attached to every key
type Parameters struct {
	CsaTerm                  string `json:"csaTerm,omitempty"`
	RawResults               bool   `json:"rawResults"`
	UseHistoricalDiddlesOnly bool   `json:"useHistoricalDiddlesOnly"`
}

func (p Parameters) String() string {
	return fmt.Sprintf("Parameters(%s,%t,%t)", p.CsaTerm, p.RawResults, p.UseHistoricalDiddlesOnly)
}

// Key uniquely identifies one risk calculation
type Key struct {
	Provider   string
	Date       time.Time
	Market     Market
	Parameters Parameters
	Scenario   Scenario
	Measure    Measure
}

// String is the canonical rendering of the key
func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s", k.Provider, k.Date.Format(common.DateFormat), k.Market,
		k.Parameters, ScenarioString(k.Scenario), k.Measure)
}

// Hash returns the hex encoded blake3 digest of the canonical rendering
func (k Key) Hash() string {
	digest := blake3.Sum256([]byte(k.String()))
	return hex.EncodeToString(digest[:])
}

func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Provider   string     `json:"provider"`
		Date       string     `json:"date"`
		Market     Market     `json:"market"`
		Parameters Parameters `json:"parameters"`
		Scenario   Scenario   `json:"scenario,omitempty"`
		Measure    Measure    `json:"measure"`
	}{
		Provider:   k.Provider,
		Date:       k.Date.Format(common.DateFormat),
		Market:     k.Market,
		Parameters: k.Parameters,
		Scenario:   k.Scenario,
		Measure:    k.Measure,
	})
}
