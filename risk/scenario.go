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

// Scenario transforms market data before a calculation. A nil Scenario is
// the base scenario.
type Scenario interface {
	ScenarioType() string
	String() string
}

// RollFwd simulates the market on Date by advancing the curves of the base
// market. When RealiseFwd is true forward rates are realised, otherwise spot
// rates are held.
type RollFwd struct {
	Date       time.Time
	RealiseFwd bool
	Name       string
}

func (s RollFwd) ScenarioType() string {
	return "RollFwd"
}

func (s RollFwd) String() string {
	if s.Name != "" {
		return fmt.Sprintf("RollFwd(%s,%t,%s)", s.Date.Format(common.DateFormat), s.RealiseFwd, s.Name)
	}
	return fmt.Sprintf("RollFwd(%s,%t)", s.Date.Format(common.DateFormat), s.RealiseFwd)
}

func (s RollFwd) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string `json:"scenarioType"`
		Date       string `json:"date"`
		RealiseFwd bool   `json:"realiseFwd"`
		Name       string `json:"name,omitempty"`
	}{
		Type:       s.ScenarioType(),
		Date:       s.Date.Format(common.DateFormat),
		RealiseFwd: s.RealiseFwd,
		Name:       s.Name,
	})
}

// MarketDataScenario applies Scenario to the market data
type MarketDataScenario struct {
	Scenario Scenario
}

func (s MarketDataScenario) ScenarioType() string {
	return "MarketDataScenario"
}

func (s MarketDataScenario) String() string {
	return fmt.Sprintf("MarketDataScenario(%s)", ScenarioString(s.Scenario))
}

func (s MarketDataScenario) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string   `json:"scenarioType"`
		Scenario Scenario `json:"scenario"`
	}{
		Type:     s.ScenarioType(),
		Scenario: s.Scenario,
	})
}

// ScenarioString renders s, including the base scenario
func ScenarioString(s Scenario) string {
	if s == nil {
		return "Base"
	}
	return s.String()
}
