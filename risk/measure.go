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

// Package risk defines the keys, requests and futures exchanged with a risk
// calculation provider.
package risk

// Measure names a quantity computed for an instrument
type Measure string

const (
	Price       Measure = "Price"
	DollarPrice Measure = "DollarPrice"
	Delta       Measure = "Delta"
	Gamma       Measure = "Gamma"
	Vega        Measure = "Vega"
	Theta       Measure = "Theta"
	IRDelta     Measure = "IRDelta"
	IRVega      Measure = "IRVega"
)

func (m Measure) String() string {
	return string(m)
}
