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

package logout_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/logout"
	"github.com/google/go-safeweb-dsl/safehttp/safehttptest"
)

func TestLogout(t *testing.T) {
	var handled []string
	it := &logout.Interceptor{
		Repository: auth.NewCookieContextRepository([]byte("0123456789abcdef0123456789abcdef")),
		Handlers: []logout.Handler{
			logout.HandlerFunc(func(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest, a *auth.Authentication) {
				handled = append(handled, a.Principal)
			}),
		},
		DeleteCookies: []string{"JSESSIONID"},
	}
	r := safehttptest.NewRequest(safehttp.MethodPost, "/logout", nil)
	auth.SetAuthentication(r, &auth.Authentication{Principal: "alice"})
	fakeRW := safehttptest.NewFakeResponseWriter()
	it.Before(fakeRW, r, nil)

	if fakeRW.Code != safehttp.StatusFound || fakeRW.Location() != "/login?logout" {
		t.Errorf("got %v %q, want 302 /login?logout", fakeRW.Code, fakeRW.Location())
	}
	if auth.FromRequest(r) != nil {
		t.Errorf("FromRequest() got: %+v, want nil", auth.FromRequest(r))
	}
	if diff := cmp.Diff([]string{"alice"}, handled); diff != "" {
		t.Errorf("handlers mismatch (-want +got):\n%s", diff)
	}
	want := []string{
		"SESSION=; Path=/; Max-Age=0; HttpOnly; Secure; SameSite=Lax",
		"JSESSIONID=; Path=/; Max-Age=0; HttpOnly; Secure; SameSite=Lax",
	}
	if diff := cmp.Diff(want, fakeRW.SetCookies()); diff != "" {
		t.Errorf("Set-Cookie mismatch (-want +got):\n%s", diff)
	}
}

func TestNotALogout(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
	}{
		{name: "GET on logout URL", method: safehttp.MethodGet, target: "/logout"},
		{name: "POST elsewhere", method: safehttp.MethodPost, target: "/other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeRW := safehttptest.NewFakeResponseWriter()
			(&logout.Interceptor{}).Before(fakeRW, safehttptest.NewRequest(tt.method, tt.target, nil), nil)
			if fakeRW.IsWritten() {
				t.Errorf("Before() wrote %v", fakeRW.Written)
			}
		})
	}
}

func TestCustomMatcherAndSuccess(t *testing.T) {
	it := &logout.Interceptor{
		RequiresLogout: matcher.Path("/signout"),
		SuccessURL:     "/bye",
	}
	fakeRW := safehttptest.NewFakeResponseWriter()
	it.Before(fakeRW, safehttptest.NewRequest(safehttp.MethodGet, "/signout", nil), nil)
	if got := fakeRW.Location(); got != "/bye" {
		t.Errorf("Location got: %q want: %q", got, "/bye")
	}
	if got := it.Endpoints(); got != nil {
		t.Errorf("Endpoints() got: %v, want nil", got)
	}
}

func TestSuccessHandler(t *testing.T) {
	it := &logout.Interceptor{
		SuccessHandler: logout.SuccessHandlerFunc(func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, a *auth.Authentication) safehttp.Result {
			return w.Write(safehttp.NoContentResponse{})
		}),
	}
	fakeRW := safehttptest.NewFakeResponseWriter()
	it.Before(fakeRW, safehttptest.NewRequest(safehttp.MethodPost, "/logout", nil), nil)
	if fakeRW.Code != safehttp.StatusNoContent {
		t.Errorf("Code got: %v want: %v", fakeRW.Code, safehttp.StatusNoContent)
	}
	want := []auth.Endpoint{{Pattern: "/logout", Method: safehttp.MethodPost}}
	if diff := cmp.Diff(want, it.Endpoints()); diff != "" {
		t.Errorf("Endpoints() mismatch (-want +got):\n%s", diff)
	}
}
