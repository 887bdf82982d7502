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

package dataframe

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/pv-pricing/common"
)

// New creates an empty dataframe with the given columns
func New(colNames ...string) *DataFrame {
	df := &DataFrame{
		Dates:    make([]time.Time, 0),
		ColNames: make([]string, len(colNames)),
		Vals:     make([][]float64, len(colNames)),
	}
	copy(df.ColNames, colNames)
	for idx := range df.Vals {
		df.Vals[idx] = make([]float64, 0)
	}
	return df
}

// ColIndex returns the index of the named column or -1 if it does not exist
func (df *DataFrame) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}
	return -1
}

// Column returns the values of the named column or nil if it does not exist
func (df *DataFrame) Column(colName string) []float64 {
	idx := df.ColIndex(colName)
	if idx == -1 {
		return nil
	}
	return df.Vals[idx]
}

// Copy creates a deep copy of the dataframe
func (df *DataFrame) Copy() *DataFrame {
	df2 := &DataFrame{
		ColNames: make([]string, len(df.ColNames)),
		Dates:    make([]time.Time, len(df.Dates)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(df2.ColNames, df.ColNames)
	copy(df2.Dates, df.Dates)

	for idx := range df2.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}

	return df2
}

// Drop removes rows that contain `val` in any column; NaN matches NaN
func (df *DataFrame) Drop(val float64) *DataFrame {
	isNA := math.IsNaN(val)
	newVals := make([][]float64, len(df.Vals))
	newDates := make([]time.Time, 0, len(df.Dates))

	for idx, dt := range df.Dates {
		keep := true
		for _, col := range df.Vals {
			rowVal := col[idx]
			if rowVal == val || (isNA && math.IsNaN(rowVal)) {
				keep = false
				break
			}
		}

		if keep {
			newDates = append(newDates, dt)
			for colIdx, col := range df.Vals {
				newVals[colIdx] = append(newVals[colIdx], col[idx])
			}
		}
	}

	df.Vals = newVals
	df.Dates = newDates
	return df
}

// Start returns the first date of the dataframe
func (df *DataFrame) Start() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[0]
}

// End returns the last date of the dataframe
func (df *DataFrame) End() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[len(df.Dates)-1]
}

// Len returns the number of rows in the dataframe
func (df *DataFrame) Len() int {
	return len(df.Dates)
}

// InsertRow appends a row. The date must be after the last date in the
// dataframe and there must be one value per column.
func (df *DataFrame) InsertRow(dt time.Time, vals ...float64) error {
	if len(df.Dates) != 0 && !df.End().Before(dt) {
		return fmt.Errorf("%w: %s <= %s", ErrDateNotAscending, dt.Format(common.DateFormat), df.End().Format(common.DateFormat))
	}

	if len(vals) != len(df.ColNames) {
		return fmt.Errorf("%w: got %d want %d", ErrColumnCount, len(vals), len(df.ColNames))
	}

	df.Dates = append(df.Dates, dt)
	for colIdx := range df.ColNames {
		df.Vals[colIdx] = append(df.Vals[colIdx], vals[colIdx])
	}

	return nil
}

// Value returns the value of colName on dt
func (df *DataFrame) Value(colName string, dt time.Time) (float64, bool) {
	colIdx := df.ColIndex(colName)
	if colIdx == -1 {
		return 0, false
	}
	for idx, rowDate := range df.Dates {
		if rowDate.Equal(dt) {
			return df.Vals[colIdx][idx], true
		}
	}
	return 0, false
}

// AsMap returns the named column keyed by date formatted as common.DateFormat
func (df *DataFrame) AsMap(colName string) map[string]float64 {
	res := make(map[string]float64, len(df.Dates))
	colIdx := df.ColIndex(colName)
	if colIdx == -1 {
		return res
	}
	for idx, dt := range df.Dates {
		res[dt.Format(common.DateFormat)] = df.Vals[colIdx][idx]
	}
	return res
}

// Table renders the dataframe as an ASCII table
func (df *DataFrame) Table() string {
	if len(df.Dates) == 0 {
		return "<NO DATA>"
	}

	tableCols := append([]string{"Date"}, df.ColNames...)

	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(tableCols)
	footer := make([]string, len(tableCols))
	footer[0] = "Num Rows"
	if len(footer) > 1 {
		footer[1] = fmt.Sprintf("%d", df.Len())
	}
	table.SetFooter(footer)
	table.SetBorder(false)

	for idx, dt := range df.Dates {
		row := make([]string, 0, len(df.Vals)+1)
		row = append(row, dt.Format(common.DateFormat))
		for _, col := range df.Vals {
			row = append(row, fmt.Sprintf("%.4f", col[idx]))
		}
		table.Append(row)
	}

	table.Render()
	return s.String()
}
