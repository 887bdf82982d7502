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
	"math"
	"sync"
	"time"

	"github.com/penny-vault/pv-pricing/common"
	"github.com/penny-vault/pv-pricing/dataframe"
	"go.uber.org/multierr"
)

// HistoricalFuture aggregates one future per date. Its elements keep the
// order in which they were supplied regardless of completion order.
type HistoricalFuture struct {
	futures  []*Future
	done     chan struct{}
	doneOnce sync.Once
}

func NewHistoricalFuture(futures []*Future) *HistoricalFuture {
	hf := &HistoricalFuture{
		futures: make([]*Future, len(futures)),
		done:    make(chan struct{}),
	}
	copy(hf.futures, futures)
	return hf
}

// Futures returns the per-date futures in order
func (hf *HistoricalFuture) Futures() []*Future {
	res := make([]*Future, len(hf.futures))
	copy(res, hf.futures)
	return res
}

func (hf *HistoricalFuture) Len() int {
	return len(hf.futures)
}

// Dates returns the valuation date of each element
func (hf *HistoricalFuture) Dates() []time.Time {
	dates := make([]time.Time, len(hf.futures))
	for idx, f := range hf.futures {
		dates[idx] = f.Key().Date
	}
	return dates
}

// Done is closed once every element is resolved
func (hf *HistoricalFuture) Done() <-chan struct{} {
	hf.doneOnce.Do(func() {
		go func() {
			for _, f := range hf.futures {
				<-f.Done()
			}
			close(hf.done)
		}()
	})
	return hf.done
}

// Result waits for every element and returns a dataframe indexed by date
// with one column named after the measure. Failed dates hold NaN and their
// errors are combined into the returned error. Waiting from inside the
// batch scope that holds the requests fails with ErrResultInScope.
func (hf *HistoricalFuture) Result(ctx context.Context) (*dataframe.DataFrame, error) {
	colName := "Value"
	if len(hf.futures) > 0 {
		colName = hf.futures[0].Key().Measure.String()
	}

	df := dataframe.New(colName)
	vals := make([]float64, 0, len(hf.futures))

	var errs error
	for _, f := range hf.futures {
		res, err := f.Result(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, ErrResultInScope) {
			return nil, err
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", f.Key().Date.Format(common.DateFormat), err))
			res.Value = math.NaN()
		}
		df.Dates = append(df.Dates, f.Key().Date)
		vals = append(vals, res.Value)
	}
	df.Vals[0] = vals

	return df, errs
}
