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

package oauth2login_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/oauth2login"
	"github.com/google/go-safeweb-dsl/safehttp/safehttptest"
)

func provider(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("code") != "thecode" || r.PostForm.Get("code_verifier") == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "at",
			"token_type":   "Bearer",
			"scope":        "read write",
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"sub": "1234", "name": "Alice"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func interceptor(srv *httptest.Server) *oauth2login.Interceptor {
	return &oauth2login.Interceptor{
		Registrations: []oauth2login.Registration{{
			ID:           "test",
			ClientID:     "cid",
			ClientSecret: "secret",
			AuthURL:      srv.URL + "/authorize",
			TokenURL:     srv.URL + "/token",
			UserInfoURL:  srv.URL + "/userinfo",
			Scopes:       []string{"read"},
		}},
		HTTPClient: srv.Client(),
	}
}

// authorize runs the authorization endpoint and returns the state and the
// authorization request cookie.
func authorize(t *testing.T, it *oauth2login.Interceptor) (state, cookie string) {
	t.Helper()
	fakeRW := safehttptest.NewFakeResponseWriter()
	it.Before(fakeRW, safehttptest.NewRequest(safehttp.MethodGet, "/oauth2/authorization/test", nil), nil)
	require.Equal(t, safehttp.StatusFound, fakeRW.Code)

	loc, err := url.Parse(fakeRW.Location())
	require.NoError(t, err)
	q := loc.Query()
	assert.Equal(t, "/authorize", loc.Path)
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Equal(t, "http://example.com/login/oauth2/code/test", q.Get("redirect_uri"))

	require.Len(t, fakeRW.Cookies, 1)
	assert.Equal(t, oauth2login.AuthorizationRequestCookie, fakeRW.Cookies[0].Name())
	return q.Get("state"), fakeRW.Cookies[0].Value()
}

func callback(it *oauth2login.Interceptor, query, cookie string) (*safehttptest.FakeResponseWriter, *safehttp.IncomingRequest) {
	r := safehttptest.NewRequest(safehttp.MethodGet, "/login/oauth2/code/test?"+query, nil)
	if cookie != "" {
		r.Header.Set("Cookie", oauth2login.AuthorizationRequestCookie+"="+cookie)
	}
	fakeRW := safehttptest.NewFakeResponseWriter()
	it.Before(fakeRW, r, nil)
	return fakeRW, r
}

func TestLoginFlow(t *testing.T) {
	srv := provider(t)
	it := interceptor(srv)
	state, cookie := authorize(t, it)

	fakeRW, r := callback(it, url.Values{"code": {"thecode"}, "state": {state}}.Encode(), cookie)
	assert.Equal(t, safehttp.StatusFound, fakeRW.Code)
	assert.Equal(t, "/", fakeRW.Location())

	a := auth.FromRequest(r)
	require.NotNil(t, a)
	assert.Equal(t, "1234", a.Principal)
	assert.Equal(t, auth.MechanismOAuth2, a.Mechanism)
	assert.Equal(t, []string{"OAUTH2_USER", "SCOPE_read", "SCOPE_write"}, a.Authorities)
	assert.Equal(t, "Alice", a.Attributes["name"])
	assert.Equal(t, "test", a.Attributes[oauth2login.RegistrationAttribute])
}

func TestLoginFailures(t *testing.T) {
	srv := provider(t)
	tests := []struct {
		name  string
		query func(state string) string
		drop  bool
	}{
		{
			name:  "State mismatch",
			query: func(string) string { return "code=thecode&state=other" },
		},
		{
			name:  "No authorization request",
			query: func(state string) string { return "code=thecode&state=" + state },
			drop:  true,
		},
		{
			name:  "Provider error",
			query: func(state string) string { return "error=access_denied&state=" + state },
		},
		{
			name:  "Bad code",
			query: func(state string) string { return "code=wrong&state=" + state },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := interceptor(srv)
			state, cookie := authorize(t, it)
			if tt.drop {
				cookie = ""
			}
			fakeRW, r := callback(it, tt.query(state), cookie)
			assert.Equal(t, safehttp.StatusFound, fakeRW.Code)
			assert.Equal(t, "/login?error", fakeRW.Location())
			assert.Nil(t, auth.FromRequest(r))
		})
	}
}

func TestEndpointsAndEntryPoint(t *testing.T) {
	it := &oauth2login.Interceptor{
		Registrations:        []oauth2login.Registration{{ID: "a"}, {ID: "b"}},
		AuthorizationBaseURI: "/auth/",
		GenerateLoginPage:    true,
	}
	assert.Equal(t, []auth.Endpoint{
		{Pattern: "/login", Method: safehttp.MethodGet},
		{Pattern: "/auth/a", Method: safehttp.MethodGet},
		{Pattern: "/login/oauth2/code/a", Method: safehttp.MethodGet},
		{Pattern: "/auth/b", Method: safehttp.MethodGet},
		{Pattern: "/login/oauth2/code/b", Method: safehttp.MethodGet},
	}, it.Endpoints())
	assert.Equal(t, auth.RedirectEntryPoint{URL: "/login"}, it.EntryPoint())

	single := &oauth2login.Interceptor{Registrations: []oauth2login.Registration{{ID: "a"}}}
	assert.Equal(t, auth.RedirectEntryPoint{URL: "/oauth2/authorization/a"}, single.EntryPoint())
}

func TestLoginPage(t *testing.T) {
	it := &oauth2login.Interceptor{
		Registrations:     []oauth2login.Registration{oauth2login.GoogleRegistration("id", "secret"), oauth2login.GitHubRegistration("id", "secret")},
		GenerateLoginPage: true,
	}
	fakeRW := safehttptest.NewFakeResponseWriter()
	it.Before(fakeRW, safehttptest.NewRequest(safehttp.MethodGet, "/login", nil), nil)
	resp, ok := fakeRW.Written.(*safehttp.TemplateResponse)
	require.True(t, ok, "Written got %T", fakeRW.Written)
	assert.Equal(t, []oauth2login.Link{
		{Name: "Google", URL: "/oauth2/authorization/google"},
		{Name: "GitHub", URL: "/oauth2/authorization/github"},
	}, resp.Data)
}

func TestLoginPageServed(t *testing.T) {
	it := &oauth2login.Interceptor{
		Registrations:     []oauth2login.Registration{oauth2login.GoogleRegistration("id", "secret"), oauth2login.GitHubRegistration("id", "secret")},
		GenerateLoginPage: true,
	}
	cfg := safehttp.NewServeMuxConfig(nil)
	cfg.Intercept(it)
	for _, e := range it.Endpoints() {
		cfg.Handle(e.Pattern, e.Method, safehttp.HandlerFunc(func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
			return w.WriteError(safehttp.StatusNotFound)
		}))
	}
	m := cfg.Mux()

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		m.ServeHTTP(rr, httptest.NewRequest(safehttp.MethodGet, "https://example.com/login", nil))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Body.String(), `<a href="/oauth2/authorization/google">Google</a>`)
		assert.Contains(t, rr.Body.String(), `<a href="/oauth2/authorization/github">GitHub</a>`)
	}
}
