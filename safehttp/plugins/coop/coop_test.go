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

package coop

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/safehttptest"
)

func TestBefore(t *testing.T) {
	type want struct {
		enf, rep []string
	}
	var tests = []struct {
		name                 string
		interceptor          Interceptor
		override             Override
		want, wantOverridden want
	}{
		{
			name:           "No policies, override on header",
			interceptor:    Interceptor{},
			override:       Override{Policies: []Policy{{Mode: SameOrigin}}},
			wantOverridden: want{enf: []string{"same-origin"}},
		},
		{
			name:        "Default",
			interceptor: Default("coop"),
			want:        want{enf: []string{`same-origin; report-to "coop"`}},
		},
		{
			name: "Override disables enforcement",
			interceptor: Interceptor{Policies: []Policy{
				{Mode: SameOriginAllowPopups, ReportingGroup: "coop-ap"},
				{Mode: SameOrigin, ReportingGroup: "coop-so", ReportOnly: true},
			}},
			override: Override{Policies: []Policy{
				{Mode: SameOrigin, ReportingGroup: "coop-so", ReportOnly: true},
			}},
			want: want{
				enf: []string{`same-origin-allow-popups; report-to "coop-ap"`},
				rep: []string{`same-origin; report-to "coop-so"`},
			},
			wantOverridden: want{
				rep: []string{`same-origin; report-to "coop-so"`},
			},
		},
		{
			name: "Multiple report-only",
			interceptor: Interceptor{Policies: []Policy{
				{Mode: SameOriginAllowPopups, ReportingGroup: "coop-ap"},
				{Mode: SameOrigin, ReportingGroup: "coop-so", ReportOnly: true},
				{Mode: UnsafeNone, ReportingGroup: "coop-un", ReportOnly: true},
			}},
			want: want{
				enf: []string{`same-origin-allow-popups; report-to "coop-ap"`},
				rep: []string{`same-origin; report-to "coop-so"`, `unsafe-none; report-to "coop-un"`},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := func(rw *safehttptest.FakeResponseWriter, w want) {
				t.Helper()
				h := rw.HeaderMap()
				enf, rep := h.Values("Cross-Origin-Opener-Policy"), h.Values("Cross-Origin-Opener-Policy-Report-Only")
				if diff := cmp.Diff(w.enf, enf); diff != "" {
					t.Errorf("Enforced COOP -want +got:\n%s", diff)
				}
				if diff := cmp.Diff(w.rep, rep); diff != "" {
					t.Errorf("Report Only COOP -want +got:\n%s", diff)
				}
				if rw.IsWritten() {
					t.Errorf("Before() wrote %v", rw.Written)
				}
			}
			{
				rw := safehttptest.NewFakeResponseWriter()
				tt.interceptor.Before(rw, safehttptest.NewRequest(safehttp.MethodGet, "/", nil), nil)
				check(rw, tt.want)
			}
			{
				rw := safehttptest.NewFakeResponseWriter()
				tt.interceptor.Before(rw, safehttptest.NewRequest(safehttp.MethodGet, "/", nil), tt.override)
				check(rw, tt.wantOverridden)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	if m, ok := ParseMode("same-origin-allow-popups"); !ok || m != SameOriginAllowPopups {
		t.Errorf("ParseMode() got: %q, %v", m, ok)
	}
	if _, ok := ParseMode("cross-origin"); ok {
		t.Error(`ParseMode("cross-origin") got: ok`)
	}
}
