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
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/penny-vault/pv-pricing/common"
	"github.com/penny-vault/pv-pricing/dataframe"
	"github.com/rs/zerolog/log"
)

const (
	FormatJSON        = "JSON"
	FormatMessagePack = "MessagePack"
)

var (
	ErrUnknownIdentifier = errors.New("identifier could not be mapped")
	ErrMissingField      = errors.New("row is missing a field")
)

// Dataset describes a data set served by the data API
type Dataset struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Vendor      string     `json:"vendor"`
	Dimensions  Dimensions `json:"dimensions"`
}

type Dimensions struct {
	TimeField           string        `json:"timeField"`
	SymbolDimensions    []string      `json:"symbolDimensions"`
	NonSymbolDimensions []FieldColumn `json:"nonSymbolDimensions"`
}

type FieldColumn struct {
	Field  string `json:"field"`
	Column string `json:"column"`
}

// DataQuery selects rows from a dataset
type DataQuery struct {
	StartDate string              `json:"startDate,omitempty"`
	EndDate   string              `json:"endDate,omitempty"`
	Where     map[string][]string `json:"where"`
	Fields    []string            `json:"fields,omitempty"`
	Format    string              `json:"format,omitempty"`
}

type dataQueryResponse struct {
	RequestID string           `json:"requestId"`
	Data      []map[string]any `json:"data"`
}

type assetQuery struct {
	AsOfTime string              `json:"asOfTime"`
	Limit    int                 `json:"limit"`
	Where    map[string][]string `json:"where"`
	Fields   []string            `json:"fields"`
}

type assetQueryResponse struct {
	Results      []map[string]any `json:"results"`
	TotalResults int              `json:"totalResults"`
}

// GetDataset returns the definition of dataset id
func (s *Session) GetDataset(ctx context.Context, id string) (*Dataset, error) {
	var dataset Dataset
	if err := s.Get(ctx, "/data/datasets/"+url.PathEscape(id), &dataset); err != nil {
		return nil, err
	}
	return &dataset, nil
}

// QueryData returns the rows of dataset id matching query
func (s *Session) QueryData(ctx context.Context, id string, query DataQuery) ([]map[string]any, error) {
	var resp dataQueryResponse
	if err := s.Post(ctx, fmt.Sprintf("/data/%s/query", url.PathEscape(id)), query, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// MapIdentifiers maps each of ids from the `from` identifier type (e.g. ric)
// to the `to` type (e.g. id) as of asOf
func (s *Session) MapIdentifiers(ctx context.Context, from, to string, ids []string, asOf time.Time) (map[string]string, error) {
	query := assetQuery{
		AsOfTime: asOf.UTC().Format(time.RFC3339),
		Limit:    4 * len(ids),
		Where:    map[string][]string{from: ids},
		Fields:   []string{from, to},
	}

	var resp assetQueryResponse
	if err := s.Post(ctx, "/assets/data/query", query, &resp); err != nil {
		return nil, err
	}

	mapped := make(map[string]string, len(ids))
	for _, row := range resp.Results {
		src, ok1 := row[from].(string)
		dst, ok2 := row[to].(string)
		if !ok1 || !ok2 {
			log.Warn().Str("From", from).Str("To", to).Interface("Row", row).Msg("skipping asset without both identifiers")
			continue
		}
		mapped[src] = dst
	}

	for _, id := range ids {
		if _, ok := mapped[id]; !ok {
			return mapped, fmt.Errorf("%w: %s %s", ErrUnknownIdentifier, from, id)
		}
	}

	return mapped, nil
}

// History maps ric to an asset id and returns field from dataset id as a
// dataframe with one column named after the ric
func (s *Session) History(ctx context.Context, datasetID, ric, field string) (*dataframe.DataFrame, error) {
	ids, err := s.MapIdentifiers(ctx, "ric", "id", []string{ric}, time.Now())
	if err != nil {
		return nil, err
	}

	rows, err := s.QueryData(ctx, datasetID, DataQuery{
		Where:  map[string][]string{"assetId": {ids[ric]}},
		Fields: []string{field},
		Format: FormatMessagePack,
	})
	if err != nil {
		return nil, err
	}

	type point struct {
		date time.Time
		val  float64
	}

	points := make([]point, 0, len(rows))
	for _, row := range rows {
		dateStr, ok := row["date"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: date", ErrMissingField)
		}
		dt, err := common.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		val, ok := toFloat(row[field])
		if !ok {
			return nil, fmt.Errorf("%w: %s on %s", ErrMissingField, field, dateStr)
		}
		points = append(points, point{date: dt, val: val})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].date.Before(points[j].date)
	})

	df := dataframe.New(ric)
	for _, p := range points {
		if err := df.InsertRow(p.date, p.val); err != nil {
			return nil, err
		}
	}

	return df, nil
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	case uint64:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	default:
		return 0, false
	}
}
