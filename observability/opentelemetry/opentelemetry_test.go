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

package opentelemetry_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"

	"github.com/penny-vault/pv-pricing/observability/opentelemetry"
)

var _ = Describe("Opentelemetry", func() {
	It("is disabled without an endpoint", func() {
		viper.Set("otlp.endpoint", "")

		shutdown, err := opentelemetry.Setup()
		Expect(err).NotTo(HaveOccurred())
		Expect(shutdown(context.Background())).To(Succeed())
	})

	It("describes outgoing requests", func() {
		req, err := http.NewRequest(http.MethodPost, "https://api.example.com/v1/risk/calculate", nil)
		Expect(err).NotTo(HaveOccurred())

		attrs := opentelemetry.SpanAttributesFromRequest(req)
		Expect(attrs).To(ContainElements(
			attribute.String("http.method", "POST"),
			attribute.String("http.url", "https://api.example.com/v1/risk/calculate"),
			attribute.String("http.target", "/v1/risk/calculate"),
		))
	})
})
