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

package csp

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/safehttptest"
	"github.com/google/safehtml/template"
)

func withFixedNonce(t *testing.T) {
	t.Helper()
	old := randReader
	randReader = bytes.NewReader(bytes.Repeat([]byte{0}, 100*nonceSize))
	t.Cleanup(func() { randReader = old })
}

const zeroNonce = "AAAAAAAAAAAAAAAAAAAAAAAAAAA="

func TestInterceptor(t *testing.T) {
	tests := []struct {
		name string
		it   Interceptor
		want map[string][]string
	}{
		{
			name: "Default",
			it:   Default(""),
			want: map[string][]string{
				"Content-Security-Policy": {"object-src 'none'; script-src 'unsafe-inline' 'nonce-" + zeroNonce + "' 'strict-dynamic' https: http:; base-uri 'none'"},
			},
		},
		{
			name: "Directives report only",
			it: Interceptor{
				ReportOnly: []Policy{Directives("default-src 'self'; script-src 'nonce-{nonce}'")},
			},
			want: map[string][]string{
				"Content-Security-Policy-Report-Only": {"default-src 'self'; script-src 'nonce-" + zeroNonce + "'"},
			},
		},
		{
			name: "Strict with options",
			it: Interceptor{Enforce: []Policy{StrictPolicy{
				NoStrictDynamic: true,
				UnsafeEval:      true,
				BaseURI:         "https://example.com",
				ReportURI:       "/csp-report",
			}.Build()}},
			want: map[string][]string{
				"Content-Security-Policy": {"object-src 'none'; script-src 'unsafe-inline' 'nonce-" + zeroNonce + "' 'unsafe-eval'; base-uri https://example.com; report-uri /csp-report"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withFixedNonce(t)
			fakeRW := safehttptest.NewFakeResponseWriter()
			tt.it.Before(fakeRW, safehttptest.NewRequest(safehttp.MethodGet, "/", nil), nil)
			if diff := cmp.Diff(tt.want, map[string][]string(fakeRW.HeaderMap())); diff != "" {
				t.Errorf("headers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDisable(t *testing.T) {
	it := Default("")
	if !it.Match(Disable{}) {
		t.Fatal("it.Match(Disable{}) got: false")
	}
	fakeRW := safehttptest.NewFakeResponseWriter()
	it.Before(fakeRW, safehttptest.NewRequest(safehttp.MethodGet, "/", nil), Disable{})
	if len(fakeRW.HeaderMap()) != 0 {
		t.Errorf("headers got: %v want: none", fakeRW.HeaderMap())
	}
	if err := fakeRW.Header().Set("Content-Security-Policy", "x"); err == nil {
		t.Error("CSP header is still writable by the handler")
	}
}

func TestNonceInTemplate(t *testing.T) {
	withFixedNonce(t)
	tmpl := template.Must(template.New("").Funcs(template.FuncMap{"CSPNonce": func() string { return "" }}).Parse(`<script nonce="{{CSPNonce}}" type="application/javascript">alert("script")</script>`))

	mb := safehttp.NewServeMuxConfig(nil)
	mb.Intercept(Default(""))
	mb.Handle("/", safehttp.MethodGet, safehttp.HandlerFunc(func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
		if n, err := Nonce(r.Context()); err != nil || n != zeroNonce {
			t.Errorf("Nonce() got: %q, %v want: %q", n, err, zeroNonce)
		}
		return safehttp.ExecuteTemplate(w, tmpl, "", nil)
	}))
	rw := httptest.NewRecorder()
	mb.Mux().ServeHTTP(rw, httptest.NewRequest(safehttp.MethodGet, "https://foo.com/", nil))

	if want := `<script nonce="` + zeroNonce + `" type="application/javascript">alert("script")</script>`; rw.Body.String() != want {
		t.Errorf("body got: %q want: %q", rw.Body.String(), want)
	}
	if got := rw.Header().Get("Content-Security-Policy"); !strings.Contains(got, zeroNonce) {
		t.Errorf("Content-Security-Policy got: %q", got)
	}
}

func TestNonceMissing(t *testing.T) {
	r := safehttptest.NewRequest(safehttp.MethodGet, "/", nil)
	if _, err := Nonce(r.Context()); err == nil {
		t.Error("Nonce() without interceptor got: nil error")
	}
}

func TestPolicyString(t *testing.T) {
	if got, want := Directives("script-src 'nonce-{nonce}'").String(), "script-src 'nonce-{nonce}'"; got != want {
		t.Errorf("String() got: %q want: %q", got, want)
	}
}
