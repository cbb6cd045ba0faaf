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

package collector_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/collector"
	"github.com/google/go-safeweb-dsl/safehttp/safehttptest"
)

func post(contentType, body string) *safehttp.IncomingRequest {
	r := safehttptest.NewRequest(safehttp.MethodPost, "/collector", strings.NewReader(body))
	r.Header.Set("Content-Type", contentType)
	return r
}

func TestValidReport(t *testing.T) {
	tests := []struct {
		name    string
		report  string
		want    []collector.Report
		wantCSP []collector.CSPReport
	}{
		{
			name: "Custom report",
			report: `[{
				"type": "custom",
				"age": 10,
				"url": "https://example.com/vulnerable-page/",
				"user_agent": "chrome",
				"body": {"x": "y", "roundness": 3.14}
			}]`,
			want: []collector.Report{{
				Type:      "custom",
				Age:       10,
				URL:       "https://example.com/vulnerable-page/",
				UserAgent: "chrome",
				Body:      map[string]interface{}{"x": "y", "roundness": float64(3.14)},
			}},
		},
		{
			name: "CSP violation",
			report: `[{
				"type": "csp-violation",
				"age": 5,
				"url": "https://example.com/",
				"user_agent": "firefox",
				"body": {
					"blockedURL": "https://evil.example/x.js",
					"disposition": "enforce",
					"documentURL": "https://example.com/",
					"effectiveDirective": "script-src-elem",
					"statusCode": 200,
					"lineNumber": 3,
					"columnNumber": 7
				}
			}]`,
			want: []collector.Report{{
				Type:      "csp-violation",
				Age:       5,
				URL:       "https://example.com/",
				UserAgent: "firefox",
				Body: collector.CSPReport{
					BlockedURL:         "https://evil.example/x.js",
					Disposition:        "enforce",
					DocumentURL:        "https://example.com/",
					EffectiveDirective: "script-src-elem",
					ViolatedDirective:  "script-src-elem",
					StatusCode:         200,
					LineNumber:         3,
					ColumnNumber:       7,
				},
			}},
			wantCSP: []collector.CSPReport{{
				BlockedURL:         "https://evil.example/x.js",
				Disposition:        "enforce",
				DocumentURL:        "https://example.com/",
				EffectiveDirective: "script-src-elem",
				ViolatedDirective:  "script-src-elem",
				StatusCode:         200,
				LineNumber:         3,
				ColumnNumber:       7,
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []collector.Report
			var gotCSP []collector.CSPReport
			h := collector.Handler(
				func(r collector.Report) { got = append(got, r) },
				func(r collector.CSPReport) { gotCSP = append(gotCSP, r) },
			)
			rw := safehttptest.NewFakeResponseWriter()
			h.ServeHTTP(rw, post("application/reports+json", tt.report))
			if rw.Code != safehttp.StatusNoContent {
				t.Errorf("status got %v, want %v", rw.Code, safehttp.StatusNoContent)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("reports mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantCSP, gotCSP); diff != "" {
				t.Errorf("CSP reports mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidDeprecatedCSPReport(t *testing.T) {
	want := collector.CSPReport{
		BlockedURL:         "https://evil.example/x.js",
		Disposition:        "report",
		DocumentURL:        "https://example.com/",
		EffectiveDirective: "script-src",
		OriginalPolicy:     "script-src 'none'",
		Sample:             "alert(1)",
		StatusCode:         200,
		ViolatedDirective:  "script-src",
		LineNumber:         12,
		ColumnNumber:       4,
	}
	tests := []struct {
		name   string
		report string
	}{
		{
			name: "CSP2 wrapped",
			report: `{"csp-report": {
				"blocked-uri": "https://evil.example/x.js",
				"disposition": "report",
				"document-uri": "https://example.com/",
				"effective-directive": "script-src",
				"original-policy": "script-src 'none'",
				"script-sample": "alert(1)",
				"status-code": 200,
				"violated-directive": "script-src",
				"lineno": 12,
				"colno": 4
			}}`,
		},
		{
			name: "CSP3 unwrapped",
			report: `{
				"blocked-uri": "https://evil.example/x.js",
				"disposition": "report",
				"document-uri": "https://example.com/",
				"effective-directive": "script-src",
				"original-policy": "script-src 'none'",
				"script-sample": "alert(1)",
				"status-code": 200,
				"violated-directive": "script-src",
				"line-number": 12,
				"column-number": 4
			}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got collector.CSPReport
			h := collector.Handler(nil, func(r collector.CSPReport) { got = r })
			rw := safehttptest.NewFakeResponseWriter()
			h.ServeHTTP(rw, post("application/csp-report", tt.report))
			if rw.Code != safehttp.StatusNoContent {
				t.Errorf("status got %v, want %v", rw.Code, safehttp.StatusNoContent)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("report mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  *safehttp.IncomingRequest
		want safehttp.StatusCode
	}{
		{
			name: "Method",
			req:  safehttptest.NewRequest(safehttp.MethodGet, "/collector", nil),
			want: safehttp.StatusMethodNotAllowed,
		},
		{
			name: "Content-Type",
			req:  post("text/plain", `{}`),
			want: safehttp.StatusUnsupportedMediaType,
		},
		{
			name: "Broken JSON",
			req:  post("application/csp-report", `{`),
			want: safehttp.StatusBadRequest,
		},
		{
			name: "Report list is not a list",
			req:  post("application/reports+json", `{"type": "custom"}`),
			want: safehttp.StatusBadRequest,
		},
		{
			name: "Report body is not an object",
			req:  post("application/reports+json", `[{"type": "custom", "body": 3}]`),
			want: safehttp.StatusBadRequest,
		},
		{
			name: "Too large",
			req:  post("application/csp-report", `{"referrer": "`+strings.Repeat("a", collector.MaxReportSize)+`"}`),
			want: safehttp.StatusRequestEntityTooLarge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw := safehttptest.NewFakeResponseWriter()
			collector.Handler(nil, nil).ServeHTTP(rw, tt.req)
			if rw.Code != tt.want {
				t.Errorf("status got %v, want %v", rw.Code, tt.want)
			}
		})
	}
}
