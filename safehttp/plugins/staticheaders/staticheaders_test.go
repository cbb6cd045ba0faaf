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

package staticheaders_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/staticheaders"
	"github.com/google/go-safeweb-dsl/safehttp/safehttptest"
)

func TestStaticHeaders(t *testing.T) {
	tests := []struct {
		name        string
		it          staticheaders.Interceptor
		handlerSets map[string]string
		want        map[string][]string
	}{
		{
			name: "Default",
			it:   staticheaders.Default(),
			want: map[string][]string{
				"X-Content-Type-Options": {"nosniff"},
				"X-Xss-Protection":       {"1; mode=block"},
				"Cache-Control":          {"no-cache, no-store, max-age=0, must-revalidate"},
				"Pragma":                 {"no-cache"},
				"Expires":                {"0"},
			},
		},
		{
			name: "Handler sets its own caching",
			it:   staticheaders.Interceptor{CacheControl: true},
			handlerSets: map[string]string{
				"Cache-Control": "public, max-age=3600",
			},
			want: map[string][]string{
				"Cache-Control": {"public, max-age=3600"},
			},
		},
		{
			name: "Referrer and feature policy",
			it: staticheaders.Interceptor{
				XSSProtection:  staticheaders.XSSDisabled,
				ReferrerPolicy: staticheaders.SameOrigin,
				FeaturePolicy:  "geolocation 'none'",
			},
			want: map[string][]string{
				"X-Xss-Protection": {"0"},
				"Referrer-Policy":  {"same-origin"},
				"Feature-Policy":   {"geolocation 'none'"},
			},
		},
		{
			name: "Nothing",
			it:   staticheaders.Interceptor{},
			want: map[string][]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeRW := safehttptest.NewFakeResponseWriter()
			r := safehttptest.NewRequest(safehttp.MethodGet, "/", nil)
			tt.it.Before(fakeRW, r, nil)
			for k, v := range tt.handlerSets {
				if err := fakeRW.Header().Set(k, v); err != nil {
					t.Fatalf("Header().Set(%q): %v", k, err)
				}
			}
			tt.it.Commit(fakeRW, r, safehttp.NoContentResponse{}, nil)
			if diff := cmp.Diff(tt.want, map[string][]string(fakeRW.HeaderMap())); diff != "" {
				t.Errorf("headers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClaimedHeaders(t *testing.T) {
	fakeRW := safehttptest.NewFakeResponseWriter()
	staticheaders.Default().Before(fakeRW, safehttptest.NewRequest(safehttp.MethodGet, "/", nil), nil)
	for _, h := range []string{"X-Content-Type-Options", "X-XSS-Protection"} {
		if !fakeRW.Header().IsClaimed(h) {
			t.Errorf("IsClaimed(%q) got: false", h)
		}
	}
	if fakeRW.Header().IsClaimed("Cache-Control") {
		t.Error(`IsClaimed("Cache-Control") got: true`)
	}
}

func TestParseReferrerPolicy(t *testing.T) {
	if p, ok := staticheaders.ParseReferrerPolicy("strict-origin-when-cross-origin"); !ok || p != staticheaders.StrictOriginWhenCrossOrigin {
		t.Errorf("ParseReferrerPolicy() got: %q, %v", p, ok)
	}
	if _, ok := staticheaders.ParseReferrerPolicy("bogus"); ok {
		t.Error(`ParseReferrerPolicy("bogus") got: ok`)
	}
}
