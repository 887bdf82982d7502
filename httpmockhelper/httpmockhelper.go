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

// Package httpmockhelper answers API requests from canned JSON fixtures. It
// plugs into httpmock so API clients can be tested without a server.
package httpmockhelper

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"reflect"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jarcoal/httpmock"
	"github.com/rs/zerolog/log"
)

//go:embed resources
var resources embed.FS

var (
	ErrUnhandledRequest = errors.New("unhandled request")
)

const volatileField = "asOfTime"

// known request payloads; asOfTime is ignored when matching
var queries = map[string]string{
	"assetsDataGSNWithRic": `{"asOfTime": "2019-05-16T21:18:18.294Z", "limit": 4, "where": {"ric": ["GS.N"]}, "fields": ["ric", "id"]}`,
	"assetsDataGSNWithId":  `{"limit": 4, "fields": ["id", "ric"], "where": {"id": ["123456MW5E27U123456"]}}`,
	"assetsDataSPXWithRic": `{"where": {"ric": [".SPX"]}, "limit": 4, "fields": ["ric", "id"]}`,
	"assetsDataSPXWithId":  `{"limit": 4, "fields": ["id", "ric"], "where": {"id": ["456123MW5E27U123456"]}}`,
	"dataQueryRic":         `{"fields": ["adjustedTradePrice"], "format": "MessagePack", "where": {"assetId": ["123456MW5E27U123456"]}}`,
	"dataQuerySPX":         `{"fields": ["adjustedTradePrice"], "format": "MessagePack", "where": {"assetId": ["456123MW5E27U123456"]}}`,
}

type route struct {
	method   string
	path     string
	queries  []string
	response string
}

var routes = []route{
	{method: http.MethodGet, path: "/data/datasets/TREOD", response: "datasets_treod_response.json"},
	{method: http.MethodPost, path: "/assets/data/query", queries: []string{"assetsDataGSNWithRic", "assetsDataGSNWithId"}, response: "assets_data_query_response_gsn.json"},
	{method: http.MethodPost, path: "/assets/data/query", queries: []string{"assetsDataSPXWithRic", "assetsDataSPXWithId"}, response: "assets_data_query_response_spx.json"},
	{method: http.MethodPost, path: "/data/TREOD/query", queries: []string{"dataQueryRic"}, response: "treod_query_response_gsn.json"},
	{method: http.MethodPost, path: "/data/TREOD/query", queries: []string{"dataQuerySPX"}, response: "treod_query_response_spx.json"},
}

// normalize round trips payload through JSON and drops the volatile
// timestamp so payloads compare by value. Empty payloads, including typed
// nils and zero values, become an empty object.
func normalize(payload any) (any, error) {
	if payload == nil {
		return map[string]any{}, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	normalized, err := normalizeJSON(raw)
	if err != nil {
		return nil, err
	}
	if isEmpty(normalized) {
		return map[string]any{}, nil
	}
	return normalized, nil
}

func normalizeJSON(raw []byte) (any, error) {
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, err
	}
	if obj, ok := normalized.(map[string]any); ok {
		delete(obj, volatileField)
	}
	return normalized, nil
}

func isEmpty(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case string:
		return v == ""
	case float64:
		return v == 0
	case bool:
		return !v
	}
	return false
}

func matchesQuery(payload any, name string) bool {
	expected, err := normalizeJSON([]byte(queries[name]))
	if err != nil {
		log.Panic().Err(err).Str("Query", name).Msg("known query is not valid JSON")
	}
	return reflect.DeepEqual(payload, expected)
}

// MockRequest returns the parsed fixture for the request, or an error
// wrapping ErrUnhandledRequest when no fixture matches
func MockRequest(method, reqPath string, payload any, fixtureSet string) (any, error) {
	normalized, err := normalize(payload)
	if err != nil {
		return nil, err
	}

	for _, r := range routes {
		if r.method != method || r.path != reqPath {
			continue
		}
		if len(r.queries) == 0 {
			return LoadJSONFromResource(fixtureSet, r.response)
		}
		for _, name := range r.queries {
			if matchesQuery(normalized, name) {
				return LoadJSONFromResource(fixtureSet, r.response)
			}
		}
	}

	rendered, _ := json.Marshal(normalized)
	return nil, fmt.Errorf("%w. Method: %s, Path: %s, payload: %s not recognized", ErrUnhandledRequest, method, reqPath, rendered)
}

// LoadJSONFromResource parses resources/<fixtureSet>/<fileName>
func LoadJSONFromResource(fixtureSet, fileName string) (any, error) {
	raw, err := resources.ReadFile(path.Join("resources", fixtureSet, fileName))
	if err != nil {
		return nil, err
	}

	var res any
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Responder answers requests from the fixtures in fixtureSet. basePath is
// stripped from the request path before matching.
func Responder(fixtureSet, basePath string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		reqPath := strings.TrimPrefix(req.URL.Path, strings.TrimRight(basePath, "/"))

		var payload any
		if req.Body != nil {
			raw, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &payload); err != nil {
					return nil, err
				}
			}
		}

		res, err := MockRequest(req.Method, reqPath, payload, fixtureSet)
		if err != nil {
			log.Warn().Err(err).Msg("mock request did not match a fixture")
			return nil, err
		}
		return httpmock.NewJsonResponse(http.StatusOK, res)
	}
}

// Activate starts httpmock and answers every unregistered request from
// fixtureSet. Callers should defer httpmock.DeactivateAndReset.
func Activate(fixtureSet, basePath string) {
	httpmock.Activate()
	httpmock.RegisterNoResponder(Responder(fixtureSet, basePath))
}
