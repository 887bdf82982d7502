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

package risk_test

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-pricing/common"
	"github.com/penny-vault/pv-pricing/risk"
)

var _ = Describe("Key", func() {
	var (
		d1  time.Time
		key risk.Key
	)

	BeforeEach(func() {
		d1 = time.Date(2020, 7, 6, 0, 0, 0, 0, common.GetTimezone())
		key = risk.Key{
			Provider:   "pvpricing",
			Date:       d1,
			Market:     risk.CloseMarket("LDN", d1, true),
			Parameters: risk.Parameters{UseHistoricalDiddlesOnly: true},
			Measure:    risk.Price,
		}
	})

	It("renders a canonical string", func() {
		Expect(key.String()).To(Equal("pvpricing|2020-07-06|CloseMarket(LDN,2020-07-06,true)|Parameters(,false,true)|Base|Price"))
	})

	It("hashes deterministically", func() {
		other := key
		Expect(key.Hash()).To(Equal(other.Hash()))
		Expect(key.Hash()).To(HaveLen(64))
	})

	It("hashes scenarios into the key", func() {
		rolled := key
		rolled.Scenario = risk.MarketDataScenario{Scenario: risk.RollFwd{Date: d1.AddDate(0, 0, 1), RealiseFwd: true}}
		Expect(rolled.Hash()).ToNot(Equal(key.Hash()))
		Expect(rolled.String()).To(ContainSubstring("MarketDataScenario(RollFwd(2020-07-07,true))"))
	})

	It("truncates close market dates to midnight", func() {
		mkt := risk.CloseMarket("NYC", d1.Add(15*time.Hour), false)
		Expect(mkt.Date).To(BeTemporally("==", d1))
		Expect(mkt.Equal(risk.CloseMarket("NYC", d1, false))).To(BeTrue())
		Expect(mkt.Equal(risk.CloseMarket("LDN", d1, false))).To(BeFalse())
	})

	It("encodes to json", func() {
		key.Scenario = risk.MarketDataScenario{Scenario: risk.RollFwd{Date: d1, RealiseFwd: false, Name: "fwd"}}
		raw, err := json.Marshal(key)
		Expect(err).To(BeNil())

		var decoded map[string]any
		Expect(json.Unmarshal(raw, &decoded)).To(Succeed())
		Expect(decoded["date"]).To(Equal("2020-07-06"))
		Expect(decoded["measure"]).To(Equal("Price"))
		Expect(decoded["market"]).To(HaveKeyWithValue("location", "LDN"))
		Expect(decoded["scenario"]).To(HaveKeyWithValue("scenarioType", "MarketDataScenario"))
		Expect(decoded["scenario"].(map[string]any)["scenario"]).To(HaveKeyWithValue("name", "fwd"))
	})

	It("omits the base scenario from json", func() {
		raw, err := json.Marshal(key)
		Expect(err).To(BeNil())
		Expect(string(raw)).ToNot(ContainSubstring("scenario\""))
	})
})

var _ = Describe("CheckResults", func() {
	It("detects a result count mismatch", func() {
		err := risk.CheckResults(make([]risk.Request, 2), make([]risk.Result, 1))
		Expect(errors.Is(err, risk.ErrResultCountMismatch)).To(BeTrue())
		Expect(risk.CheckResults(make([]risk.Request, 2), make([]risk.Result, 2))).To(Succeed())
	})
})

var _ = Describe("InstrumentDef", func() {
	It("names itself from the asset class and type", func() {
		inst := &risk.InstrumentDef{AssetClass: "Rates", Type: "Swap"}
		Expect(inst.Name()).To(Equal("Rates Swap"))
		Expect(inst.Provider()).To(BeNil())

		inst.Title = "10y DKK payer"
		Expect(inst.Name()).To(Equal("10y DKK payer"))
	})
})
