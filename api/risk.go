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

package api

import (
	"context"

	"github.com/penny-vault/pv-pricing/risk"
)

const (
	RiskProviderName = "RiskAPI"
	riskCalcPath     = "/risk/calculate"
)

type riskCalcRequest struct {
	Requests []risk.Request `json:"requests"`
}

type riskCalcResponse struct {
	Results []risk.Result `json:"results"`
}

// RiskAPI is a risk.Provider backed by the remote risk service
type RiskAPI struct {
	session *Session
}

func NewRiskAPI(session *Session) *RiskAPI {
	return &RiskAPI{
		session: session,
	}
}

func (r *RiskAPI) Name() string {
	return RiskProviderName
}

// Calc posts every request in a single call
func (r *RiskAPI) Calc(ctx context.Context, requests []risk.Request) ([]risk.Result, error) {
	var resp riskCalcResponse
	if err := r.session.Post(ctx, riskCalcPath, riskCalcRequest{Requests: requests}, &resp); err != nil {
		return nil, err
	}
	if err := risk.CheckResults(requests, resp.Results); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
