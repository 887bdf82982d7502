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

package pricing

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidOptions      = fmt.Errorf("%w: invalid options", ErrInvalidArgument)
	ErrStartAndDates       = fmt.Errorf("%w: must supply start or dates, not both", ErrInvalidArgument)
	ErrMissingStartOrDates = fmt.Errorf("%w: must supply start or dates", ErrInvalidArgument)
	ErrEmptyDateRange      = fmt.Errorf("%w: date range is empty", ErrInvalidArgument)
	ErrNoProvider          = errors.New("no risk provider configured for instrument")
)
