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
	"context"
	"errors"
	"fmt"
)

var (
	ErrResultCountMismatch = errors.New("provider returned a different number of results than requests")
)

// Instrument is anything a provider can price
type Instrument interface {
	Name() string

	// Provider is the default provider for the instrument; nil if none
	Provider() Provider
}

// InstrumentDef is a generic instrument described by its asset class, type
// and a bag of properties
type InstrumentDef struct {
	AssetClass   string         `json:"assetClass"`
	Type         string         `json:"type"`
	Title        string         `json:"name,omitempty"`
	Properties   map[string]any `json:"properties,omitempty"`
	RiskProvider Provider       `json:"-"`
}

func (inst *InstrumentDef) Name() string {
	if inst.Title != "" {
		return inst.Title
	}
	return fmt.Sprintf("%s %s", inst.AssetClass, inst.Type)
}

func (inst *InstrumentDef) Provider() Provider {
	return inst.RiskProvider
}

// RequestOptions are forwarded to the provider with every request
type RequestOptions struct {
	VisibleToGS     bool `json:"visibleToGS"`
	RequestPriority int  `json:"requestPriority,omitempty"`
	UseServerCache  bool `json:"useServerCache"`
	IsBatch         bool `json:"isBatch"`
}

// Request is a single instrument priced under a single key
type Request struct {
	Instrument Instrument     `json:"instrument"`
	Key        Key            `json:"key"`
	Options    RequestOptions `json:"options"`
}

// Result is the value computed for one request
type Result struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// Provider computes results for a batch of requests. Results are returned
// in the same order as the requests.
type Provider interface {
	Name() string
	Calc(ctx context.Context, requests []Request) ([]Result, error)
}

// CheckResults verifies a provider returned one result per request
func CheckResults(requests []Request, results []Result) error {
	if len(requests) != len(results) {
		return fmt.Errorf("%w: %d requests, %d results", ErrResultCountMismatch, len(requests), len(results))
	}
	return nil
}
