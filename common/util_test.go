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

package common_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-pricing/common"
)

var _ = Describe("Dates", func() {
	It("truncates to midnight in the reference timezone", func() {
		t := time.Date(2020, 7, 6, 21, 15, 0, 0, common.GetTimezone())
		d := common.Date(t)
		Expect(d.Hour()).To(Equal(0))
		Expect(d.Day()).To(Equal(6))
		Expect(d.Location().String()).To(Equal("America/New_York"))
	})

	It("parses YYYY-MM-DD", func() {
		d, err := common.ParseDate(" 2020-07-14 ")
		Expect(err).To(BeNil())
		Expect(d).To(BeTemporally("==", time.Date(2020, 7, 14, 0, 0, 0, 0, common.GetTimezone())))
	})

	It("rejects malformed dates", func() {
		_, err := common.ParseDate("14/07/2020")
		Expect(err).ToNot(BeNil())
	})

	It("reports today as a date", func() {
		today := common.Today()
		Expect(today).To(BeTemporally("==", common.Date(today)))
	})
})
