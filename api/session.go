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

// Package api is a client for the remote risk and data service
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/penny-vault/pv-pricing/common"
	"github.com/penny-vault/pv-pricing/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/vmihailenco/msgpack/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgPack = "application/x-msgpack"
)

var (
	ErrHTTPStatus = errors.New("HTTP request returned invalid status code")
	ErrNoBaseURL  = errors.New("api.url is not configured")
)

// Session sends authenticated requests to the API rooted at BaseURL
type Session struct {
	BaseURL string
	token   string
	client  *http.Client
}

// NewSession creates a session. The session uses http.DefaultTransport at
// request time so tests may swap it.
func NewSession(baseURL, token string, timeout time.Duration) *Session {
	return &Session{
		BaseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// SessionFromConfig creates a session from the api.* configuration keys
func SessionFromConfig() (*Session, error) {
	baseURL := viper.GetString("api.url")
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	return NewSession(baseURL, viper.GetString("api.token"), viper.GetDuration("api.timeout")), nil
}

// Get decodes the response of GET path into out
func (s *Session) Get(ctx context.Context, path string, out any) error {
	return s.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends payload as JSON and decodes the response into out
func (s *Session) Post(ctx context.Context, path string, payload, out any) error {
	return s.do(ctx, http.MethodPost, path, payload, out)
}

func (s *Session) do(ctx context.Context, method, path string, payload, out any) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "api.Session.do")
	defer span.End()

	requestID := uuid.New().String()
	subLog := log.With().Str("Method", method).Str("Path", path).Str("RequestId", requestID).Logger()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "could not encode payload")
			subLog.Error().Err(err).Msg("could not encode payload")
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not build request")
		return err
	}

	req.Header.Set("Accept", fmt.Sprintf("%s, %s", ContentTypeJSON, ContentTypeMsgPack))
	req.Header.Set("User-Agent", fmt.Sprintf("%s/%s", common.ProgramName, common.CurrentVersion.String()))
	req.Header.Set("X-Request-Id", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", ContentTypeJSON)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	span.SetAttributes(opentelemetry.SpanAttributesFromRequest(req)...)

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		msg := "http request failed"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		msg := "could not read response body"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return err
	}

	span.SetAttributes(attribute.Int("StatusCode", resp.StatusCode))
	if resp.StatusCode >= 400 {
		msg := "api returned invalid response code"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Int("HTTPResponseStatusCode", resp.StatusCode).Bytes("Body", respBody).Msg(msg)
		return fmt.Errorf("%w: %d %s", ErrHTTPStatus, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil {
		return nil
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), ContentTypeMsgPack) {
		dec := msgpack.NewDecoder(bytes.NewReader(respBody))
		dec.SetCustomStructTag("json")
		err = dec.Decode(out)
	} else {
		err = json.Unmarshal(respBody, out)
	}
	if err != nil {
		span.RecordError(err)
		msg := "could not decode response"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Bytes("Body", respBody).Msg(msg)
		return err
	}

	return nil
}
