// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpsredirect_test

import (
	"testing"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/httpsredirect"
	"github.com/google/go-safeweb-dsl/safehttp/safehttptest"
)

func TestRedirect(t *testing.T) {
	tests := []struct {
		name         string
		it           httpsredirect.Interceptor
		target       string
		wantCode     safehttp.StatusCode
		wantLocation string
	}{
		{
			name:         "No port",
			target:       "http://example.com/path?q=1",
			wantCode:     safehttp.StatusMovedPermanently,
			wantLocation: "https://example.com/path?q=1",
		},
		{
			name:         "Port 80",
			target:       "http://example.com:80/",
			wantCode:     safehttp.StatusMovedPermanently,
			wantLocation: "https://example.com/",
		},
		{
			name:         "Port 8080",
			target:       "http://example.com:8080/a",
			wantCode:     safehttp.StatusMovedPermanently,
			wantLocation: "https://example.com:8443/a",
		},
		{
			name:         "Custom port mapper",
			it:           httpsredirect.Interceptor{PortMapper: httpsredirect.PortMapper{9080: 9443}},
			target:       "http://example.com:9080/",
			wantCode:     safehttp.StatusMovedPermanently,
			wantLocation: "https://example.com:9443/",
		},
		{
			name:     "Unmapped port",
			target:   "http://example.com:1234/",
			wantCode: safehttp.StatusInternalServerError,
		},
		{
			name:         "Matcher matches",
			it:           httpsredirect.Interceptor{Matchers: []matcher.Matcher{matcher.Path("/secure/**")}},
			target:       "http://example.com/secure/x",
			wantCode:     safehttp.StatusMovedPermanently,
			wantLocation: "https://example.com/secure/x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeRW := safehttptest.NewFakeResponseWriter()
			tt.it.Before(fakeRW, safehttptest.NewRequest(safehttp.MethodGet, tt.target, nil), nil)
			if got := fakeRW.Code; got != tt.wantCode {
				t.Errorf("Code got: %v want: %v", got, tt.wantCode)
			}
			if got := fakeRW.Location(); got != tt.wantLocation {
				t.Errorf("Location got: %q want: %q", got, tt.wantLocation)
			}
		})
	}
}

func TestNoRedirect(t *testing.T) {
	tests := []struct {
		name   string
		it     httpsredirect.Interceptor
		target string
	}{
		{
			name:   "Secure",
			target: "https://example.com/",
		},
		{
			name:   "Matcher does not match",
			it:     httpsredirect.Interceptor{Matchers: []matcher.Matcher{matcher.Path("/secure/**")}},
			target: "http://example.com/public",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeRW := safehttptest.NewFakeResponseWriter()
			tt.it.Before(fakeRW, safehttptest.NewRequest(safehttp.MethodGet, tt.target, nil), nil)
			if fakeRW.IsWritten() {
				t.Errorf("Before() wrote %v, want nothing", fakeRW.Written)
			}
		})
	}
}
